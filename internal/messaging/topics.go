package messaging

const (
	TopicCheckoutCompleted = "checkout.completed"

	// EventTypeHeader names the payload schema carried by a message.
	EventTypeHeader = "event_type"
)
