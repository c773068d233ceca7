package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"giftkit/models"
	"giftkit/services/tasks"
	"giftkit/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// UserDirectory finds the staff a lead notification goes to.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)
}

// LeadWorker processes lead notification tasks in the background.
type LeadWorker struct {
	server *asynq.Server
	users  UserDirectory
	sender utils.MessageSender
	logger *zap.Logger
}

func NewLeadWorker(redisOpt asynq.RedisClientOpt, users UserDirectory, sender utils.MessageSender, logger *zap.Logger) *LeadWorker {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      logger.Sugar(),
	})
	return &LeadWorker{server: srv, users: users, sender: sender, logger: logger}
}

// Mux routes each lead task type to its handler.
func (w *LeadWorker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeLeadCreated, w.HandleLeadCreated)
	mux.HandleFunc(tasks.TypeLeadAssigned, w.HandleLeadAssigned)
	return mux
}

// Start launches the worker, retrying with a growing delay while Redis is not
// reachable.
func (w *LeadWorker) Start(ctx context.Context) error {
	const maxAttempts = 5
	mux := w.Mux()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = w.server.Start(mux); err == nil {
			w.logger.Info("lead worker started")
			return nil
		}
		w.logger.Warn("lead worker failed to start", zap.Int("attempt", attempt), zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt*2) * time.Second):
		}
	}
	return fmt.Errorf("lead worker: giving up after %d attempts: %w", maxAttempts, err)
}

func (w *LeadWorker) Shutdown() {
	w.server.Shutdown()
}

// HandleLeadCreated tells every admin that a lead is waiting to be assigned.
func (w *LeadWorker) HandleLeadCreated(ctx context.Context, task *asynq.Task) error {
	var p tasks.LeadCreatedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.logger.Error("invalid lead:created payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	admins, err := w.users.ListByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("New %s lead from %s", p.Source, p.ContactName)
	if p.Company != "" {
		msg += " (" + p.Company + ")"
	}
	if p.TotalPrice > 0 {
		msg += fmt.Sprintf(", quoted %.2f", p.TotalPrice)
	}

	var sendErr error
	for _, admin := range admins {
		if admin.PhoneNumber == "" {
			continue
		}
		if err := w.sender.Send(ctx, admin.PhoneNumber, msg); err != nil {
			w.logger.Warn("failed to notify admin", zap.String("userID", admin.ID), zap.Error(err))
			sendErr = err
		}
	}
	return sendErr
}

// HandleLeadAssigned tells an associate about a lead they now own.
func (w *LeadWorker) HandleLeadAssigned(ctx context.Context, task *asynq.Task) error {
	var p tasks.LeadAssignedPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		w.logger.Error("invalid lead:assigned payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	associate, err := w.users.GetByID(ctx, p.AssociateID)
	if err != nil {
		return err
	}
	if associate.PhoneNumber == "" {
		w.logger.Info("associate has no phone number, skipping", zap.String("userID", associate.ID))
		return nil
	}

	msg := fmt.Sprintf("Hi %s, lead %s has been assigned to you.", associate.Name, p.LeadID)
	return w.sender.Send(ctx, associate.PhoneNumber, msg)
}
