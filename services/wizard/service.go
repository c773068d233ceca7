package wizard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"reflect"
	"sort"
	"strings"
	"time"

	"giftkit/models"
	"giftkit/services/backend"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultLockTTL = time.Minute

// DefaultLogoTypes are the image types accepted on the logo step.
var DefaultLogoTypes = []string{"image/png", "image/jpeg", "image/svg+xml", "image/webp"}

// DefaultService implements Service on top of a Store and the kit backend.
type DefaultService struct {
	backend  backend.Client
	store    Store
	leads    LeadRecorder
	storage  LogoStorage
	opts     Options
	lockTTL  time.Duration
	validate *validator.Validate
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the wizard service. storage may be nil when logos are not
// mirrored.
func NewService(client backend.Client, store Store, leads LeadRecorder, storage LogoStorage, opts Options, logger *zap.Logger) *DefaultService {
	if len(opts.LogoTypes) == 0 {
		opts.LogoTypes = DefaultLogoTypes
	}
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	return &DefaultService{
		backend:  client,
		store:    store,
		leads:    leads,
		storage:  storage,
		opts:     opts,
		lockTTL:  defaultLockTTL,
		validate: v,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *DefaultService) Options() Options {
	return s.opts
}

// Open starts a session. A credential that the backend cannot resolve is ignored and
// the customer continues as a guest.
func (s *DefaultService) Open(ctx context.Context, credential string) (*View, error) {
	now := s.now()
	session := &models.WizardSession{
		ID:        uuid.NewString(),
		Step:      models.StepBudget,
		Config:    models.KitConfiguration{Logo: models.Logo{Status: models.LogoPending}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if credential != "" {
		if contact := s.identify(ctx, credential); contact != nil {
			session.Config.UserDetails = contact
			session.Authenticated = true
		}
	}

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}
	s.logger.Info("wizard session opened", zap.String("sessionID", session.ID), zap.Bool("authenticated", session.Authenticated))
	return NewView(session), nil
}

func (s *DefaultService) identify(ctx context.Context, credential string) *models.Contact {
	contact, err := s.backend.FetchIdentity(ctx, credential)
	if err != nil {
		s.logger.Debug("identity lookup failed, continuing as guest", zap.Error(err))
		return nil
	}
	if contact == nil {
		return nil
	}
	normalizeContact(contact)
	if err := s.validateContact(*contact); err != nil {
		s.logger.Debug("identity incomplete, continuing as guest", zap.Error(err))
		return nil
	}
	return contact
}

func (s *DefaultService) Get(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(session), nil
}

func (s *DefaultService) Close(ctx context.Context, id string) error {
	if _, err := s.store.Get(ctx, id); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

func (s *DefaultService) SubmitBudget(ctx context.Context, id string, budget models.BudgetTier, quantity int) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, BudgetCommitted{}, models.StepBudget); err != nil {
		return nil, err
	}
	if err := s.validateBudget(budget, quantity); err != nil {
		return nil, err
	}

	suggestions, err := s.backend.FetchSuggestions(ctx, budget)
	if err != nil {
		return nil, backendFailure("suggestions", err)
	}
	categories := categoriesFrom(suggestions.Categories)
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no products suggested for budget %d", ErrBackend, budget)
	}

	next, err := s.commit(ctx, session, BudgetCommitted{
		Budget:     budget,
		Quantity:   quantity,
		Box:        suggestions.Box,
		Categories: categories,
	})
	if err != nil {
		return nil, err
	}
	return NewView(next), nil
}

func (s *DefaultService) SelectProducts(ctx context.Context, id string, selection map[string]string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, ProductsCommitted{}, models.StepProducts); err != nil {
		return nil, err
	}
	selected, err := resolveSelection(session.Config, selection)
	if err != nil {
		return nil, err
	}

	next, err := s.commit(ctx, session, ProductsCommitted{Selected: selected})
	if err != nil {
		return nil, err
	}
	return NewView(next), nil
}

// MissingCategories lists the categories a selection still lacks. A nil selection
// checks the one already committed.
func (s *DefaultService) MissingCategories(ctx context.Context, id string, selection map[string]string) ([]string, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step < models.StepProducts {
		return nil, &TransitionError{Step: session.Step, Event: "missing-categories"}
	}
	cfg := session.Config
	if selection != nil {
		selected, err := resolveSelection(cfg, selection)
		if err != nil {
			return nil, err
		}
		cfg.SelectedProducts = selected
	}
	return cfg.MissingCategories(), nil
}

func (s *DefaultService) UploadLogo(ctx context.Context, id string, upload LogoUpload) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, LogoCommitted{}, models.StepLogo); err != nil {
		return nil, err
	}
	contentType, err := s.validateLogo(upload)
	if err != nil {
		return nil, err
	}

	logo := models.Logo{
		Status:      models.LogoUploaded,
		FileName:    upload.FileName,
		ContentType: contentType,
		Size:        int64(len(upload.Data)),
		Data:        base64.StdEncoding.EncodeToString(upload.Data),
	}
	if s.storage != nil {
		url, err := s.storage.UploadLogo(ctx, session.ID, upload.FileName, upload.Data)
		if err != nil {
			s.logger.Warn("logo mirror failed", zap.String("sessionID", session.ID), zap.Error(err))
		} else {
			logo.URL = url
		}
	}

	next, err := s.commit(ctx, session, LogoCommitted{Logo: logo})
	if err != nil {
		return nil, err
	}
	return s.enterPreview(ctx, next)
}

// KeepLogo returns to Preview with the logo uploaded before the customer went back.
func (s *DefaultService) KeepLogo(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.commit(ctx, session, LogoKept{})
	if err != nil {
		return nil, err
	}
	return s.enterPreview(ctx, next)
}

func (s *DefaultService) SkipLogo(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.commit(ctx, session, LogoSkipped{})
	if err != nil {
		return nil, err
	}
	return s.enterPreview(ctx, next)
}

func (s *DefaultService) RemoveLogo(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.commit(ctx, session, LogoRemoved{})
	if err != nil {
		return nil, err
	}
	return NewView(next), nil
}

// RefreshPrice retries the price call of a Preview session that has no quote yet.
func (s *DefaultService) RefreshPrice(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, PricePreviewed{}, models.StepPreview); err != nil {
		return nil, err
	}
	return s.enterPreview(ctx, session)
}

// enterPreview prices the kit once for a session that has just reached Preview.
func (s *DefaultService) enterPreview(ctx context.Context, session *models.WizardSession) (*View, error) {
	quote, err := s.backend.CalculatePrice(ctx, PriceRequestFor(session.Config))
	if err != nil {
		return nil, backendFailure("price", err)
	}
	next, err := s.commit(ctx, session, PricePreviewed{Quote: *quote})
	if err != nil {
		return nil, err
	}
	return NewView(next), nil
}

// Confirm submits from Preview, or asks for contact details when none are known.
func (s *DefaultService) Confirm(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, EnquiryAccepted{}, models.StepPreview); err != nil {
		return nil, err
	}

	if session.Config.UserDetails == nil {
		next, err := s.commit(ctx, session, DetailsRequested{})
		if err != nil {
			return nil, err
		}
		return NewView(next), nil
	}
	return s.submit(ctx, session)
}

// SubmitDetails stores the contact form and submits right away.
func (s *DefaultService) SubmitDetails(ctx context.Context, id string, contact models.Contact) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := expectStep(*session, DetailsCommitted{}, models.StepUserDetails); err != nil {
		return nil, err
	}
	normalizeContact(&contact)
	if err := s.validateContact(contact); err != nil {
		return nil, err
	}

	next, err := s.commit(ctx, session, DetailsCommitted{Contact: contact})
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, next)
}

func (s *DefaultService) Back(ctx context.Context, id string) (*View, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.commit(ctx, session, Back{})
	if err != nil {
		return nil, err
	}
	return NewView(next), nil
}

// submit sends the enquiry at most once per session. The session id doubles as the
// idempotency key and the session is gone once the backend accepts.
func (s *DefaultService) submit(ctx context.Context, session *models.WizardSession) (*View, error) {
	if err := ReadyToSubmit(*session); err != nil {
		return nil, err
	}

	locked, err := s.store.Lock(ctx, session.ID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, ErrSubmissionInFlight
	}
	defer func() {
		if err := s.store.Unlock(context.WithoutCancel(ctx), session.ID); err != nil {
			s.logger.Warn("failed to release submit lock", zap.String("sessionID", session.ID), zap.Error(err))
		}
	}()

	current, err := s.store.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if current.Step != session.Step || current.Revision != session.Revision {
		return nil, ErrStaleResponse
	}

	ack, err := s.backend.SubmitEnquiry(ctx, current.ID, BuildEnquiry(current))
	if err != nil {
		return nil, backendFailure("enquiry", err)
	}

	next, err := Transition(*current, EnquiryAccepted{Ack: *ack})
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	// The enquiry is accepted at this point; what follows must not fail the request.
	detached := context.WithoutCancel(ctx)
	if s.leads != nil {
		if err := s.leads.Record(detached, LeadFor(&next)); err != nil {
			s.logger.Error("failed to record lead", zap.String("sessionID", next.ID), zap.String("enquiryID", ack.ID), zap.Error(err))
		}
	}
	if err := s.store.Delete(detached, next.ID); err != nil {
		s.logger.Warn("failed to delete finished wizard session", zap.String("sessionID", next.ID), zap.Error(err))
	}

	s.logger.Info("enquiry submitted", zap.String("sessionID", next.ID), zap.String("enquiryID", ack.ID))
	return NewView(&next), nil
}

// commit applies ev to the session as it was read and stores the result only if
// nothing else was committed since. Otherwise the event is dropped with
// ErrStaleResponse.
func (s *DefaultService) commit(ctx context.Context, seen *models.WizardSession, ev Event) (*models.WizardSession, error) {
	next, err := Transition(*seen, ev)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = s.now()

	if err := s.store.Update(ctx, &next, seen.Revision); err != nil {
		if errors.Is(err, ErrStaleResponse) {
			s.logger.Info("discarding stale wizard update",
				zap.String("sessionID", seen.ID),
				zap.String("event", ev.eventName()),
				zap.Int("seenRevision", seen.Revision),
			)
		}
		return nil, err
	}
	return &next, nil
}

func (s *DefaultService) validateBudget(budget models.BudgetTier, quantity int) error {
	offered := false
	for _, t := range s.opts.Tiers {
		if t == budget {
			offered = true
			break
		}
	}
	if !offered {
		return &ValidationError{Field: "budget", Message: "choose one of the offered budgets"}
	}
	if quantity < s.opts.MinQuantity {
		return &ValidationError{Field: "quantity", Message: fmt.Sprintf("minimum order is %d kits", s.opts.MinQuantity)}
	}
	return nil
}

func (s *DefaultService) validateLogo(upload LogoUpload) (string, error) {
	contentType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil {
		return "", &ValidationError{Field: "logo", Message: "unknown file type"}
	}
	allowed := false
	for _, t := range s.opts.LogoTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", &ValidationError{Field: "logo", Message: "use a PNG, JPEG, SVG or WebP image"}
	}
	if len(upload.Data) == 0 {
		return "", &ValidationError{Field: "logo", Message: "file is empty"}
	}
	if s.opts.MaxLogoBytes > 0 && int64(len(upload.Data)) > s.opts.MaxLogoBytes {
		return "", &ValidationError{Field: "logo", Message: fmt.Sprintf("file is larger than %d bytes", s.opts.MaxLogoBytes)}
	}
	return contentType, nil
}

func (s *DefaultService) validateContact(contact models.Contact) error {
	err := s.validate.Struct(contact)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: fe.Field(), Message: describeFieldError(fe)}
	}
	return err
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "is invalid"
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func normalizeContact(c *models.Contact) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Company = strings.TrimSpace(c.Company)
}

func backendFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackend, op, err)
}

// categoriesFrom orders the suggested categories by name. Empty categories are
// dropped since nothing could be selected in them.
func categoriesFrom(suggested map[string][]models.Product) []models.Category {
	names := make([]string, 0, len(suggested))
	for name, products := range suggested {
		if len(products) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		products := make([]models.Product, len(suggested[name]))
		for i, p := range suggested[name] {
			p.Category = name
			products[i] = p
		}
		categories = append(categories, models.Category{Name: name, Products: products})
	}
	return categories
}

func resolveSelection(cfg models.KitConfiguration, selection map[string]string) (map[string]models.Product, error) {
	selected := make(map[string]models.Product, len(selection))
	for name, productID := range selection {
		if productID == "" {
			continue
		}
		cat, ok := cfg.Category(name)
		if !ok {
			return nil, &ValidationError{Field: "selectedProducts", Message: "unknown category " + name}
		}
		p, ok := cat.Find(productID)
		if !ok {
			return nil, &ValidationError{Field: "selectedProducts", Message: "product " + productID + " is not offered in " + name}
		}
		selected[name] = p
	}
	return selected, nil
}
