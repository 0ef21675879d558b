package domain

// EventType identifies an audit event.
type EventType string

const (
	// EventTypePolicyUpdated is emitted after a policy save is persisted.
	EventTypePolicyUpdated EventType = "policy_updated"
)
