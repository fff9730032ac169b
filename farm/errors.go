package farm

import "fmt"

// NoHostAvailableError is returned by Select when no farm yields an
// eligible host for the task id.
type NoHostAvailableError struct {
	TaskID string
}

func (e *NoHostAvailableError) Error() string {
	return fmt.Sprintf("farm: no engine host available for task id %s", e.TaskID)
}
