package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"giftkit/models"

	"github.com/hibiken/asynq"
)

const (
	TypeLeadCreated  = "lead:created"
	TypeLeadAssigned = "lead:assigned"
)

// LeadCreatedPayload is carried by TypeLeadCreated tasks.
type LeadCreatedPayload struct {
	LeadID      string            `json:"leadId"`
	Source      models.LeadSource `json:"source"`
	ContactName string            `json:"contactName"`
	Company     string            `json:"company,omitempty"`
	TotalPrice  float64           `json:"totalPrice,omitempty"`
}

// LeadAssignedPayload is carried by TypeLeadAssigned tasks.
type LeadAssignedPayload struct {
	LeadID      string `json:"leadId"`
	AssociateID string `json:"associateId"`
}

func NewLeadCreatedTask(lead *models.Lead) (*asynq.Task, error) {
	p := LeadCreatedPayload{
		LeadID:      lead.ID,
		Source:      lead.Source,
		ContactName: lead.Contact.Name,
		Company:     lead.Contact.Company,
	}
	if lead.Quote != nil {
		p.TotalPrice = lead.Quote.TotalPrice
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLeadCreated, b, asynq.MaxRetry(5)), nil
}

func NewLeadAssignedTask(leadID, associateID string) (*asynq.Task, error) {
	b, err := json.Marshal(LeadAssignedPayload{LeadID: leadID, AssociateID: associateID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeLeadAssigned, b, asynq.MaxRetry(5)), nil
}

// Enqueuer is the part of asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqNotifier turns lead events into background tasks.
type AsynqNotifier struct {
	Client Enqueuer
}

func (n AsynqNotifier) LeadCreated(ctx context.Context, lead *models.Lead) error {
	task, err := NewLeadCreatedTask(lead)
	if err != nil {
		return fmt.Errorf("failed to build %s task: %w", TypeLeadCreated, err)
	}
	if _, err := n.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", TypeLeadCreated, err)
	}
	return nil
}

func (n AsynqNotifier) LeadAssigned(ctx context.Context, leadID, associateID string) error {
	task, err := NewLeadAssignedTask(leadID, associateID)
	if err != nil {
		return fmt.Errorf("failed to build %s task: %w", TypeLeadAssigned, err)
	}
	if _, err := n.Client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", TypeLeadAssigned, err)
	}
	return nil
}
