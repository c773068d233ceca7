package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"giftkit/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (c *captureEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

func TestAsynqNotifier_LeadCreated(t *testing.T) {
	q := &captureEnqueuer{}
	n := AsynqNotifier{Client: q}

	lead := &models.Lead{
		ID:      "lead-1",
		Source:  models.SourceWizard,
		Contact: models.Contact{Name: "Asha", Company: "Corp"},
		Quote:   &models.PriceQuote{TotalPrice: 32000},
	}
	require.NoError(t, n.LeadCreated(context.Background(), lead))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeLeadCreated, q.tasks[0].Type())

	var p LeadCreatedPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	assert.Equal(t, "lead-1", p.LeadID)
	assert.Equal(t, 32000.0, p.TotalPrice)
}

func TestAsynqNotifier_LeadAssigned(t *testing.T) {
	q := &captureEnqueuer{}
	n := AsynqNotifier{Client: q}

	require.NoError(t, n.LeadAssigned(context.Background(), "lead-1", "assoc-1"))
	require.Len(t, q.tasks, 1)
	assert.Equal(t, TypeLeadAssigned, q.tasks[0].Type())

	var p LeadAssignedPayload
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload(), &p))
	assert.Equal(t, LeadAssignedPayload{LeadID: "lead-1", AssociateID: "assoc-1"}, p)
}

func TestAsynqNotifier_EnqueueFailure(t *testing.T) {
	n := AsynqNotifier{Client: &captureEnqueuer{err: errors.New("redis down")}}
	err := n.LeadAssigned(context.Background(), "lead-1", "assoc-1")
	assert.ErrorContains(t, err, "redis down")
}
