package lead

import (
	"context"

	"giftkit/database/repository"
	"giftkit/models"

	"go.uber.org/zap"
)

// LeadService manages enquiries on the sales dashboards.
type LeadService interface {
	Record(ctx context.Context, lead *models.Lead) error
	RequestCallback(ctx context.Context, req CallbackRequest) (*models.Lead, error)
	List(ctx context.Context, actor models.Actor, q Query) (*Page, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Lead, error)
	Assign(ctx context.Context, actor models.Actor, leadID, associateID string) (*models.Lead, error)
	BulkAssign(ctx context.Context, actor models.Actor, leadIDs []string, associateID string) (int64, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, status string) (*models.Lead, error)
	AddNote(ctx context.Context, actor models.Actor, id, text string) (*models.Lead, error)
	Stats(ctx context.Context, actor models.Actor) (map[models.LeadStatus]int64, error)
}

// Notifier is told about lead events that associates should hear about.
type Notifier interface {
	LeadCreated(ctx context.Context, lead *models.Lead) error
	LeadAssigned(ctx context.Context, leadID, associateID string) error
}

// UserLookup resolves the associate a lead is assigned to.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// CallbackRequest is the landing page's "call me back" form.
type CallbackRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Phone   string `json:"phone" binding:"required,min=7,max=20"`
	Email   string `json:"email" binding:"omitempty,email"`
	Company string `json:"company" binding:"max=160"`
	Message string `json:"message" binding:"max=2000"`
}

// Query holds the dashboard list filters as received from the client. Assignee may
// be "unassigned".
type Query struct {
	Page     int    `form:"page"`
	Limit    int    `form:"limit"`
	Search   string `form:"search"`
	Status   string `form:"status"`
	Assignee string `form:"assignee"`
}

// Page is one page of leads.
type Page struct {
	Items []models.Lead `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

// DefaultLeadService implements LeadService.
type DefaultLeadService struct {
	Repo     repository.LeadRepository
	Users    UserLookup
	Notifier Notifier
	Logger   *zap.Logger
}

func NewLeadService(repo repository.LeadRepository, users UserLookup, notifier Notifier, logger *zap.Logger) *DefaultLeadService {
	return &DefaultLeadService{Repo: repo, Users: users, Notifier: notifier, Logger: logger}
}
