package backend

import "fmt"

// Error is a non-2xx answer from the kit backend.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("backend %s: status %d: %s", e.Op, e.Status, e.Message)
}
