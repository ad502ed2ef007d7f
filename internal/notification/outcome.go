package notification

import "fmt"

type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// SkipReason says why a message did not produce a notification.
type SkipReason string

const (
	SkipNotFound    SkipReason = "not_found"
	SkipNoRecipient SkipReason = "no_recipient"
	SkipNoToken     SkipReason = "no_token"
	SkipDisabled    SkipReason = "disabled"
	SkipSelfSend    SkipReason = "self_send"
)

// Outcome is the terminal state of one dispatch. All three states count as
// a completed task for the queue.
type Outcome struct {
	Status       Status
	Reason       SkipReason
	Err          error
	Notification *PushNotification
}

func Delivered(n PushNotification) Outcome {
	return Outcome{Status: StatusDelivered, Notification: &n}
}

func Skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}

func (o Outcome) String() string {
	switch o.Status {
	case StatusSkipped:
		return fmt.Sprintf("skipped(%s)", o.Reason)
	case StatusFailed:
		return fmt.Sprintf("failed(%v)", o.Err)
	default:
		return string(o.Status)
	}
}
