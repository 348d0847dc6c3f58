package domain

// EventKind tags an inbound webhook event.
type EventKind string

const (
	EventFollow   EventKind = "follow"
	EventUnfollow EventKind = "unfollow"
	EventMessage  EventKind = "message"
	EventPostback EventKind = "postback"
)

// MessageTypeText is the only message type the router understands;
// everything else gets an "unsupported content" reply.
const MessageTypeText = "text"

// Postback data values wired to the main menu buttons.
const (
	PostbackReportFire = "REPORT_FIRE"
	PostbackViewAlerts = "VIEW_ALERTS"
	PostbackSafetyTips = "SAFETY_TIPS"
)

// Event is one parsed webhook event. Only the fields matching Kind are set:
// Message for message events, Postback for postback events. ReplyToken is
// valid for a single reply and is empty for unfollow events.
type Event struct {
	Kind       EventKind
	UserID     string
	ReplyToken string
	Message    Message
	Postback   Postback
}

// Message is the message payload of a message event.
type Message struct {
	Type string
	Text string
}

// Postback carries the opaque data string of a postback event.
type Postback struct {
	Data string
}
