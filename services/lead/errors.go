package lead

import "errors"

var (
	ErrForbidden         = errors.New("not allowed to access this lead")
	ErrInvalidStatus     = errors.New("unknown lead status")
	ErrInvalidTransition = errors.New("lead status change not allowed")
	ErrInvalidAssignee   = errors.New("assignee is not an associate")
	ErrEmptyNote         = errors.New("note text is required")
	ErrNoLeads           = errors.New("no leads selected")
	ErrMissingContact    = errors.New("name and phone are required")
)
