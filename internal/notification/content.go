package notification

import (
	"strconv"

	"chat-realtime/internal/models"
)

const (
	// MaxBodyLength is the body limit in characters, ellipsis included.
	MaxBodyLength = 100
	Ellipsis      = "..."

	DataTypeChatMessage = "chat_message"
)

// PushNotification is what gets handed to the push provider.
type PushNotification struct {
	Token string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// TruncateBody keeps content of up to MaxBodyLength characters as is and
// otherwise cuts it so that the result, ellipsis included, is exactly
// MaxBodyLength characters long. Characters are Unicode code points.
func TruncateBody(content string) string {
	runes := []rune(content)
	if len(runes) <= MaxBodyLength {
		return content
	}
	keep := MaxBodyLength - len([]rune(Ellipsis))
	return string(runes[:keep]) + Ellipsis
}

// BuildNotification renders the push for message, sent by sender, to the
// device token of the recipient.
func BuildNotification(message *models.Message, sender *models.User, token string) PushNotification {
	return PushNotification{
		Token: token,
		Title: sender.ShortName(),
		Body:  TruncateBody(message.Body),
		Data: map[string]string{
			"type":            DataTypeChatMessage,
			"conversation_id": strconv.FormatUint(uint64(message.ConversationID), 10),
			"message_id":      strconv.FormatUint(uint64(message.ID), 10),
			"sender_id":       strconv.FormatUint(uint64(sender.ID), 10),
			"sender_name":     sender.FullName(),
		},
	}
}
