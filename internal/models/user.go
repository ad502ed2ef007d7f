package models

import (
	"strings"

	"gorm.io/gorm"
)

/** --------------------ENTITIES-------------------- */
// User represents the user entity
type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// PushToken is the device token registered by the mobile client. Nil
	// until the client registers one.
	PushToken *string `json:"-"`
	// PushEnabled is a pointer so an explicit false is written on insert
	// instead of being replaced by the column default. Nil means enabled.
	PushEnabled *bool `gorm:"not null;default:true" json:"pushEnabled"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// ShortName is the first name, or the username when no first name is set.
func (u *User) ShortName() string {
	if first := strings.TrimSpace(u.FirstName); first != "" {
		return first
	}
	return u.Username
}

// NotificationsEnabled reports the push setting, defaulting to on.
func (u *User) NotificationsEnabled() bool {
	return u.PushEnabled == nil || *u.PushEnabled
}

func (u *User) HasPushToken() bool {
	return u.PushToken != nil && strings.TrimSpace(*u.PushToken) != ""
}

// Identity projects the user into the immutable identity bound to a
// connection.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.FullName(), Email: u.Email}
}
