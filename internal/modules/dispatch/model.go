// README: Drivers and notification payloads for dispatch fan-out.
package dispatch

import "github.com/MacTheAnon/joco-exec/internal/types"

// Driver is the read-only view of a driver account. The authentication
// collaborator owns the record and the approval flag; dispatch only reads.
type Driver struct {
	ID       types.ID
	Name     string
	Email    string
	Phone    string
	Approved bool
}

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelVoice Channel = "voice"
)

// Notification is one message to one recipient. Delivery is best-effort;
// a failed send never fails the booking that triggered it.
type Notification struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
}
