package models

import "gorm.io/gorm"

/** --------------------ENTITIES-------------------- */
// Conversation is a one-to-one thread between two participants. The
// naming follows who opened it; both sides are members.
type Conversation struct {
	gorm.Model
	SenderID    uint `gorm:"not null;index" json:"senderId"`
	RecipientID uint `gorm:"not null;index" json:"recipientId"`

	Sender    User `gorm:"foreignKey:SenderID" json:"-"`
	Recipient User `gorm:"foreignKey:RecipientID" json:"-"`
}

func (c *Conversation) IsMember(userID uint) bool {
	return userID != 0 && (c.SenderID == userID || c.RecipientID == userID)
}

// OtherParticipant returns the member that is not userID. For a
// conversation a user opened with themselves it returns userID.
func (c *Conversation) OtherParticipant(userID uint) (uint, bool) {
	switch userID {
	case c.SenderID:
		return c.RecipientID, c.RecipientID != 0
	case c.RecipientID:
		return c.SenderID, c.SenderID != 0
	default:
		return 0, false
	}
}
