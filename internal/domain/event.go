package domain

// EventType names a notification pushed to websocket subscribers.
type EventType string

const (
	EventIdentityEnrolled EventType = "identity.enrolled"
	EventIdentityDeleted  EventType = "identity.deleted"
	EventLabelsChanged    EventType = "frame.labels_changed"
	EventSessionClosed    EventType = "session.closed"
)
