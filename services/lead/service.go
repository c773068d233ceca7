package lead

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	leadRepo "giftkit/database/repository/lead"
	userRepo "giftkit/database/repository/user"
	"giftkit/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxNoteLength   = 2000
	unassignedQuery = "unassigned"
)

// Record stores an accepted wizard enquiry as a new lead. Recording the same
// enquiry twice is not an error.
func (s *DefaultLeadService) Record(ctx context.Context, lead *models.Lead) error {
	now := time.Now().UTC()
	lead.ID = uuid.NewString()
	lead.Status = models.LeadNew
	lead.AssigneeID = ""
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.Repo.Create(ctx, lead); err != nil {
		if errors.Is(err, leadRepo.ErrDuplicateEnquiry) {
			s.Logger.Info("lead already recorded for enquiry", zap.String("enquiryRef", lead.EnquiryRef))
			return nil
		}
		return err
	}

	s.Logger.Info("lead recorded", zap.String("leadID", lead.ID), zap.String("source", string(lead.Source)))
	s.notifyCreated(ctx, lead)
	return nil
}

func (s *DefaultLeadService) RequestCallback(ctx context.Context, req CallbackRequest) (*models.Lead, error) {
	lead := &models.Lead{
		Source: models.SourceCallback,
		Contact: models.Contact{
			Name:    strings.TrimSpace(req.Name),
			Email:   strings.ToLower(strings.TrimSpace(req.Email)),
			Phone:   strings.TrimSpace(req.Phone),
			Company: strings.TrimSpace(req.Company),
		},
		Message: strings.TrimSpace(req.Message),
	}
	if lead.Contact.Name == "" || lead.Contact.Phone == "" {
		return nil, ErrMissingContact
	}
	if err := s.Record(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *DefaultLeadService) notifyCreated(ctx context.Context, lead *models.Lead) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.LeadCreated(ctx, lead); err != nil {
		s.Logger.Warn("failed to enqueue lead notification", zap.String("leadID", lead.ID), zap.Error(err))
	}
}

func (s *DefaultLeadService) List(ctx context.Context, actor models.Actor, q Query) (*Page, error) {
	criteria, err := s.criteriaFor(actor, q)
	if err != nil {
		return nil, err
	}
	items, total, err := s.Repo.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total, Page: criteria.Page, Limit: criteria.Limit}, nil
}

// criteriaFor normalises a query and scopes it to what the actor may see.
func (s *DefaultLeadService) criteriaFor(actor models.Actor, q Query) (leadRepo.LeadSearchCriteria, error) {
	c := leadRepo.LeadSearchCriteria{
		Search: strings.TrimSpace(q.Search),
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Limit < 1 {
		c.Limit = defaultPageSize
	}
	if c.Limit > maxPageSize {
		c.Limit = maxPageSize
	}
	if q.Status != "" {
		status := models.LeadStatus(strings.ToLower(q.Status))
		if !status.Valid() {
			return c, ErrInvalidStatus
		}
		c.Status = status
	}

	switch actor.Role {
	case models.RoleAdmin:
		if q.Assignee == unassignedQuery {
			c.Unassigned = true
		} else {
			c.AssigneeID = q.Assignee
		}
	case models.RoleAssociate:
		c.AssigneeID = actor.UserID
	case models.RoleCustomer:
		return c, ErrForbidden
	default:
		return c, ErrForbidden
	}
	return c, nil
}

// authorize allows admins on every lead and associates on their own.
func authorize(actor models.Actor, lead *models.Lead) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleAssociate:
		if lead.AssigneeID != "" && lead.AssigneeID == actor.UserID {
			return nil
		}
		return ErrForbidden
	case models.RoleCustomer:
		return ErrForbidden
	}
	return ErrForbidden
}

func (s *DefaultLeadService) load(ctx context.Context, actor models.Actor, id string) (*models.Lead, error) {
	lead, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *DefaultLeadService) Get(ctx context.Context, actor models.Actor, id string) (*models.Lead, error) {
	return s.load(ctx, actor, id)
}

func (s *DefaultLeadService) Assign(ctx context.Context, actor models.Actor, leadID, associateID string) (*models.Lead, error) {
	if _, err := s.BulkAssign(ctx, actor, []string{leadID}, associateID); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, leadID)
}

func (s *DefaultLeadService) BulkAssign(ctx context.Context, actor models.Actor, leadIDs []string, associateID string) (int64, error) {
	if actor.Role != models.RoleAdmin {
		return 0, ErrForbidden
	}
	ids := dedupe(leadIDs)
	if len(ids) == 0 {
		return 0, ErrNoLeads
	}
	if err := s.checkAssociate(ctx, associateID); err != nil {
		return 0, err
	}

	n, err := s.Repo.Assign(ctx, ids, associateID)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, leadRepo.ErrLeadNotFound
	}

	s.Logger.Info("leads assigned", zap.Int64("count", n), zap.String("associateID", associateID), zap.String("by", actor.UserID))
	if s.Notifier != nil {
		for _, id := range ids {
			if err := s.Notifier.LeadAssigned(ctx, id, associateID); err != nil {
				s.Logger.Warn("failed to enqueue assignment notification", zap.String("leadID", id), zap.Error(err))
			}
		}
	}
	return n, nil
}

func (s *DefaultLeadService) checkAssociate(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidAssignee
	}
	user, err := s.Users.GetByID(ctx, id)
	if errors.Is(err, userRepo.ErrUserNotFound) {
		return ErrInvalidAssignee
	}
	if err != nil {
		return err
	}
	if user.Role != models.RoleAssociate {
		return ErrInvalidAssignee
	}
	return nil
}

func (s *DefaultLeadService) UpdateStatus(ctx context.Context, actor models.Actor, id string, status string) (*models.Lead, error) {
	to := models.LeadStatus(strings.ToLower(strings.TrimSpace(status)))
	if !to.Valid() {
		return nil, ErrInvalidStatus
	}
	lead, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(lead.Status, to) {
		return nil, fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, lead.Status, to)
	}

	if err := s.Repo.UpdateStatus(ctx, id, lead.Status, to); err != nil {
		return nil, err
	}
	s.Logger.Info("lead status changed",
		zap.String("leadID", id),
		zap.String("from", string(lead.Status)),
		zap.String("to", string(to)),
		zap.String("by", actor.UserID),
	)
	lead.Status = to
	lead.UpdatedAt = time.Now().UTC()
	return lead, nil
}

func (s *DefaultLeadService) AddNote(ctx context.Context, actor models.Actor, id, text string) (*models.Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}
	text = truncateNote(text)
	lead, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	note := models.LeadNote{AuthorID: actor.UserID, Text: text, CreatedAt: time.Now().UTC()}
	if err := s.Repo.AddNote(ctx, id, note); err != nil {
		return nil, err
	}
	lead.Notes = append(lead.Notes, note)
	lead.UpdatedAt = note.CreatedAt
	return lead, nil
}

// truncateNote cuts text to at most maxNoteLength bytes without splitting a rune.
func truncateNote(text string) string {
	if len(text) <= maxNoteLength {
		return text
	}
	cut := maxNoteLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func (s *DefaultLeadService) Stats(ctx context.Context, actor models.Actor) (map[models.LeadStatus]int64, error) {
	switch actor.Role {
	case models.RoleAdmin:
		return s.Repo.CountByStatus(ctx, "")
	case models.RoleAssociate:
		return s.Repo.CountByStatus(ctx, actor.UserID)
	case models.RoleCustomer:
		return nil, ErrForbidden
	}
	return nil, ErrForbidden
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
