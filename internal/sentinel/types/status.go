package types

// TaskStatus is the task lifecycle state. Active is the only initial
// state; completed and revoked are terminal.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskRevoked   TaskStatus = "revoked"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskActive, TaskCompleted, TaskRevoked:
		return true
	}
	return false
}

func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskRevoked
}

// IntegrationStatus tracks whether a gate is bound to a physical door
// controller and whether that controller has ever reported in.
type IntegrationStatus string

const (
	IntegrationNone    IntegrationStatus = "not_integrated"
	IntegrationActive  IntegrationStatus = "integrated"
	IntegrationOffline IntegrationStatus = "offline"
)

// DoorEventType is the physical-layer event vocabulary reported by gate
// bridges.
type DoorEventType string

const (
	DoorEventEntry  DoorEventType = "entry"
	DoorEventExit   DoorEventType = "exit"
	DoorEventDenied DoorEventType = "denied"
)

func (e DoorEventType) Valid() bool {
	switch e {
	case DoorEventEntry, DoorEventExit, DoorEventDenied:
		return true
	}
	return false
}
