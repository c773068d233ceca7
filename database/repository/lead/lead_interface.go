package leadRepo

import (
	"context"
	"errors"

	"giftkit/models"
)

var (
	ErrLeadNotFound     = errors.New("lead not found")
	ErrDuplicateEnquiry = errors.New("lead for this enquiry already recorded")
)

// ErrStatusChanged is returned when a lead left the expected status before the
// update landed.
var ErrStatusChanged = errors.New("lead status changed concurrently")

// LeadRepository defines methods for lead data access.
type LeadRepository interface {
	// Create inserts a new lead.
	Create(ctx context.Context, lead *models.Lead) error
	// GetByID retrieves a lead by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Lead, error)
	// Search returns one page of leads matching criteria plus the total match count.
	Search(ctx context.Context, criteria LeadSearchCriteria) ([]models.Lead, int64, error)
	// Assign sets the assignee of every lead in ids and returns how many matched.
	Assign(ctx context.Context, ids []string, assigneeID string) (int64, error)
	// UpdateStatus moves a lead from one status to another.
	UpdateStatus(ctx context.Context, id string, from, to models.LeadStatus) error
	// AddNote appends a note to a lead.
	AddNote(ctx context.Context, id string, note models.LeadNote) error
	// CountByStatus counts leads per status, limited to one assignee when assigneeID
	// is set.
	CountByStatus(ctx context.Context, assigneeID string) (map[models.LeadStatus]int64, error)
}

// LeadSearchCriteria holds the dashboard filters. Page starts at 1.
type LeadSearchCriteria struct {
	Search     string            // Partial name, email, phone or company, case-insensitive.
	Status     models.LeadStatus // Empty matches every status.
	AssigneeID string            // Empty matches every assignee.
	Unassigned bool              // Only leads nobody owns yet.
	Page       int
	Limit      int
}
