package notify

import (
	"time"

	"github.com/google/uuid"
)

// Message is one outbound notification. ID is assigned on enqueue and
// follows the message through retries and into failure reports.
type Message struct {
	ID                    uuid.UUID
	ChatID                int64
	Text                  string
	ParseMode             string
	DisableWebPagePreview *bool
}

// DeliveryFailure is published on the dispatcher's failure channel when a
// message is dropped: either a permanent provider rejection or retry
// exhaustion. It is operator-facing; end users never see it.
type DeliveryFailure struct {
	Message  Message
	Attempts int
	Err      error
	At       time.Time
}
