package types

import "fmt"

// TaskType represents the kind of work a scheduled task performs.
// New task kinds are added here; the scheduler dispatches on this value.
type TaskType string

const (
	TaskTypeCalendarCheck TaskType = "calendar_check"
)

// AllTaskTypes returns all valid task types
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskTypeCalendarCheck,
	}
}

// IsValid checks if the task type is valid
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypeCalendarCheck:
		return true
	default:
		return false
	}
}

// String returns the string representation of the task type
func (t TaskType) String() string {
	return string(t)
}

// ParseTaskType parses a string into a TaskType
func ParseTaskType(s string) (TaskType, error) {
	taskType := TaskType(s)
	if !taskType.IsValid() {
		return "", fmt.Errorf("invalid task type: %s", s)
	}
	return taskType, nil
}
