package wizard

import (
	"errors"
	"fmt"
	"strings"

	"giftkit/models"
)

var (
	ErrSessionNotFound    = errors.New("wizard session not found or expired")
	ErrStaleResponse      = errors.New("wizard moved on before the response arrived")
	ErrSubmissionInFlight = errors.New("enquiry submission already in progress")
	ErrQuoteMissing       = errors.New("price has not been calculated yet")
	ErrUnknownEvent       = errors.New("unknown wizard event")
)

// ErrBackend wraps every failed call to the kit backend. The step stays active.
var ErrBackend = errors.New("kit backend unavailable")

// TransitionError reports an event that is not valid in the session's current step.
type TransitionError struct {
	Step  models.WizardStep
	Event string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %s in step %s", e.Event, e.Step)
}

// ValidationError is a local, per-field failure caught before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// MissingCategoriesError blocks leaving the products step.
type MissingCategoriesError struct {
	Categories []string
}

func (e *MissingCategoriesError) Error() string {
	return "select one product in each category: missing " + strings.Join(e.Categories, ", ")
}
