package models

// Identity is the resolved user reference bound to an authenticated
// connection. It is a value type and is never mutated after resolution.
type Identity struct {
	ID    uint
	Name  string
	Email string
}

/** -------------------- DTOs -------------------- */

// UserSummary is the basic identity projection sent to other clients.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (i Identity) Summary() UserSummary {
	return UserSummary{ID: i.ID, Name: i.Name, Email: i.Email}
}
