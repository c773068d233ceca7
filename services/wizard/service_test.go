package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"giftkit/models"
	"giftkit/services/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu       sync.Mutex
	sessions map[string]models.WizardSession
	locks    map[string]bool

	// beforeUpdate, when set, runs once at the start of the next Update, outside the
	// store lock, so a test can interleave another request with a commit.
	beforeUpdate func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sessions: map[string]models.WizardSession{}, locks: map[string]bool{}}
}

func (m *memoryStore) Get(_ context.Context, id string) (*models.WizardSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *memoryStore) Create(_ context.Context, s *models.WizardSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Update(_ context.Context, s *models.WizardSession, prevRevision int) error {
	m.mu.Lock()
	hook := m.beforeUpdate
	m.beforeUpdate = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[s.ID]
	if !ok {
		return ErrSessionNotFound
	}
	if stored.Revision != prevRevision {
		return ErrStaleResponse
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memoryStore) Lock(_ context.Context, id string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[id] {
		return false, nil
	}
	m.locks[id] = true
	return true, nil
}

func (m *memoryStore) Unlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, id)
	return nil
}

type fakeBackend struct {
	mu sync.Mutex

	identity    *models.Contact
	identityErr error
	suggestions *backend.Suggestions
	suggestErr  error
	quote       models.PriceQuote
	priceErr    error
	submitErr   error

	// beforePrice runs inside CalculatePrice, before the quote is returned.
	beforePrice func()

	suggestCalls int
	priceCalls   []backend.PriceRequest
	submitted    []models.Enquiry
	submitKeys   []string
}

func (f *fakeBackend) FetchIdentity(_ context.Context, _ string) (*models.Contact, error) {
	if f.identityErr != nil {
		return nil, f.identityErr
	}
	c := *f.identity
	return &c, nil
}

func (f *fakeBackend) FetchSuggestions(_ context.Context, _ models.BudgetTier) (*backend.Suggestions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.suggestCalls++
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.suggestions, nil
}

func (f *fakeBackend) CalculatePrice(_ context.Context, req backend.PriceRequest) (*models.PriceQuote, error) {
	f.mu.Lock()
	f.priceCalls = append(f.priceCalls, req)
	hook := f.beforePrice
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if f.priceErr != nil {
		return nil, f.priceErr
	}
	q := f.quote
	return &q, nil
}

func (f *fakeBackend) SubmitEnquiry(_ context.Context, key string, e models.Enquiry) (*models.EnquiryAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submitted = append(f.submitted, e)
	f.submitKeys = append(f.submitKeys, key)
	return &models.EnquiryAck{ID: "enq-1", Message: "We will call you shortly"}, nil
}

type recordedLeads struct {
	leads []*models.Lead
}

func (r *recordedLeads) Record(_ context.Context, l *models.Lead) error {
	r.leads = append(r.leads, l)
	return nil
}

type fixture struct {
	svc     *DefaultService
	store   *memoryStore
	backend *fakeBackend
	leads   *recordedLeads
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fb := &fakeBackend{
		identity: &models.Contact{Name: "Asha Rao", Email: "asha@corp.in", Phone: "9876543210", Company: "Corp"},
		suggestions: &backend.Suggestions{
			Box: models.Box{ID: "bx1", Name: "Kraft box", Price: 60},
			Categories: map[string][]models.Product{
				"Pen":      {{ID: "p1", Name: "Metal pen", Price: 90}},
				"Diary":    {{ID: "d1", Name: "A5 diary", Price: 180}},
				"Bottle":   {{ID: "b1", Name: "Steel bottle", Price: 250}},
				"Keychain": {{ID: "k1", Name: "Brass keychain", Price: 60}},
			},
		},
		quote: models.PriceQuote{PerKitPrice: 640, TotalPrice: 32000},
	}
	store := newMemoryStore()
	leads := &recordedLeads{}
	opts := Options{
		Tiers:        []models.BudgetTier{500, 800, 1200, 1500},
		MinQuantity:  20,
		MaxLogoBytes: 1024,
	}
	return &fixture{
		svc:     NewService(fb, store, leads, nil, opts, zap.NewNop()),
		store:   store,
		backend: fb,
		leads:   leads,
	}
}

var allProducts = map[string]string{"Bottle": "b1", "Diary": "d1", "Keychain": "k1", "Pen": "p1"}

// toPreview opens a session and walks it to Preview with the logo skipped.
func (f *fixture) toPreview(t *testing.T, credential string, quantity int) *View {
	t.Helper()
	ctx := context.Background()
	v, err := f.svc.Open(ctx, credential)
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, quantity)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
	require.NoError(t, err)
	v, err = f.svc.SkipLogo(ctx, v.ID)
	require.NoError(t, err)
	return v
}

func TestSubmitBudget_AllTiersReachProducts(t *testing.T) {
	for _, tier := range []models.BudgetTier{500, 800, 1200, 1500} {
		f := newFixture(t)
		ctx := context.Background()
		v, err := f.svc.Open(ctx, "")
		require.NoError(t, err)

		v, err = f.svc.SubmitBudget(ctx, v.ID, tier, 20)
		require.NoError(t, err)
		assert.Equal(t, models.StepProducts, v.Step)
		assert.Equal(t, tier, v.Budget)
		require.NotNil(t, v.Box)
		assert.Equal(t, "bx1", v.Box.ID)
		names := make([]string, 0, len(v.Categories))
		for _, c := range v.Categories {
			names = append(names, c.Name)
		}
		assert.Equal(t, []string{"Bottle", "Diary", "Keychain", "Pen"}, names)
	}
}

func TestSubmitBudget_QuantityBelowMinimum(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 19)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.Zero(t, f.backend.suggestCalls)

	v, err = f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepBudget, v.Step)
}

func TestSubmitBudget_UnknownTier(t *testing.T) {
	f := newFixture(t)
	v, err := f.svc.Open(context.Background(), "")
	require.NoError(t, err)

	_, err = f.svc.SubmitBudget(context.Background(), v.ID, 999, 40)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "budget", verr.Field)
	assert.Zero(t, f.backend.suggestCalls)
}

func TestSubmitBudget_BackendFailureKeepsStep(t *testing.T) {
	f := newFixture(t)
	f.backend.suggestErr = &backend.Error{Op: "suggestions", Status: 503}
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)

	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.ErrorIs(t, err, ErrBackend)
	var berr *backend.Error
	require.ErrorAs(t, err, &berr)
	assert.Equal(t, 503, berr.Status)

	v, err = f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepBudget, v.Step)
}

func TestMissingCategories_PartialSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.NoError(t, err)

	missing, err := f.svc.MissingCategories(ctx, v.ID, map[string]string{"Diary": "d1", "Pen": "p1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bottle", "Keychain"}, missing)

	_, err = f.svc.SelectProducts(ctx, v.ID, map[string]string{"Diary": "d1", "Pen": "p1"})
	var merr *MissingCategoriesError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"Bottle", "Keychain"}, merr.Categories)
}

func TestSkipLogo_PricesOnceWithSelection(t *testing.T) {
	f := newFixture(t)
	v := f.toPreview(t, "", 50)

	assert.Equal(t, models.StepPreview, v.Step)
	assert.Equal(t, models.LogoSkipped, v.Logo.Status)
	require.Len(t, f.backend.priceCalls, 1)
	req := f.backend.priceCalls[0]
	assert.Equal(t, 50, req.Quantity)
	assert.Equal(t, []backend.PriceItem{
		{ProductID: "b1", BrandingType: backend.BrandingNone},
		{ProductID: "d1", BrandingType: backend.BrandingNone},
		{ProductID: "k1", BrandingType: backend.BrandingNone},
		{ProductID: "p1", BrandingType: backend.BrandingNone},
	}, req.Items)
	require.NotNil(t, v.Quote)
	assert.Equal(t, 32000.0, v.Quote.TotalPrice)
}

func TestUploadLogo_BrandsPriceItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
	require.NoError(t, err)

	v, err = f.svc.UploadLogo(ctx, v.ID, LogoUpload{FileName: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")})
	require.NoError(t, err)
	assert.Equal(t, models.StepPreview, v.Step)
	assert.Equal(t, models.LogoUploaded, v.Logo.Status)
	assert.Empty(t, v.Logo.Data)
	require.Len(t, f.backend.priceCalls, 1)
	for _, item := range f.backend.priceCalls[0].Items {
		assert.Equal(t, backend.BrandingLogo, item.BrandingType)
	}
}

func TestUploadLogo_Validation(t *testing.T) {
	cases := []struct {
		name   string
		upload LogoUpload
	}{
		{"wrong type", LogoUpload{FileName: "logo.gif", ContentType: "image/gif", Data: []byte("x")}},
		{"empty", LogoUpload{FileName: "logo.png", ContentType: "image/png"}},
		{"too large", LogoUpload{FileName: "logo.png", ContentType: "image/png", Data: make([]byte, 2048)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			v, err := f.svc.Open(ctx, "")
			require.NoError(t, err)
			_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
			require.NoError(t, err)
			_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
			require.NoError(t, err)

			_, err = f.svc.UploadLogo(ctx, v.ID, tc.upload)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Empty(t, f.backend.priceCalls)
		})
	}
}

func TestAuthenticatedCustomerSkipsDetails(t *testing.T) {
	f := newFixture(t)
	v := f.toPreview(t, "customer-token", 50)
	assert.True(t, v.Authenticated)

	v, err := f.svc.Confirm(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepSuccess, v.Step)
	require.Len(t, f.backend.submitted, 1)
	assert.Equal(t, "asha@corp.in", f.backend.submitted[0].Contact.Email)
	assert.Equal(t, 32000.0, f.backend.submitted[0].TotalPrice)
	assert.Len(t, f.backend.submitted[0].Products, 4)
	assert.Equal(t, v.ID, f.backend.submitKeys[0])
}

func TestIdentityFailureFallsBackToGuest(t *testing.T) {
	f := newFixture(t)
	f.backend.identityErr = &backend.Error{Op: "identity", Status: 401}
	ctx := context.Background()
	v := f.toPreview(t, "expired-token", 50)
	assert.False(t, v.Authenticated)

	v, err := f.svc.Confirm(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepUserDetails, v.Step)
	assert.Empty(t, f.backend.submitted)

	v, err = f.svc.SubmitDetails(ctx, v.ID, models.Contact{Name: "Ravi", Email: " Ravi@Shop.in ", Phone: "9123456780"})
	require.NoError(t, err)
	assert.Equal(t, models.StepSuccess, v.Step)
	require.Len(t, f.backend.submitted, 1)
	assert.Equal(t, "ravi@shop.in", f.backend.submitted[0].Contact.Email)
	require.Len(t, f.backend.priceCalls, 1)
}

func TestSubmitDetails_InvalidContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toPreview(t, "", 50)
	_, err := f.svc.Confirm(ctx, v.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitDetails(ctx, v.ID, models.Contact{Name: "Ravi", Email: "not-an-email", Phone: "9123456780"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
	assert.Empty(t, f.backend.submitted)
}

func TestSuccessRecordsLeadAndClosesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toPreview(t, "token", 50)

	_, err := f.svc.Confirm(ctx, v.ID)
	require.NoError(t, err)

	require.Len(t, f.leads.leads, 1)
	lead := f.leads.leads[0]
	assert.Equal(t, models.SourceWizard, lead.Source)
	assert.Equal(t, "enq-1", lead.EnquiryRef)
	assert.Equal(t, models.LogoSkipped, lead.Kit.LogoStatus)

	_, err = f.svc.Confirm(ctx, v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Len(t, f.backend.submitted, 1)
}

func TestConfirm_SubmissionInFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toPreview(t, "token", 50)

	locked, err := f.store.Lock(ctx, v.ID, time.Minute)
	require.NoError(t, err)
	require.True(t, locked)

	_, err = f.svc.Confirm(ctx, v.ID)
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Empty(t, f.backend.submitted)
}

func TestConfirm_SubmitFailureStaysOnPreview(t *testing.T) {
	f := newFixture(t)
	f.backend.submitErr = errors.New("connection reset")
	ctx := context.Background()
	v := f.toPreview(t, "token", 50)

	_, err := f.svc.Confirm(ctx, v.ID)
	require.ErrorIs(t, err, ErrBackend)

	v, err = f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPreview, v.Step)
	assert.Empty(t, f.leads.leads)
}

func TestConfirm_WithoutQuote(t *testing.T) {
	f := newFixture(t)
	f.backend.priceErr = errors.New("timeout")
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "token")
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
	require.NoError(t, err)

	_, err = f.svc.SkipLogo(ctx, v.ID)
	require.ErrorIs(t, err, ErrBackend)

	_, err = f.svc.Confirm(ctx, v.ID)
	assert.ErrorIs(t, err, ErrQuoteMissing)

	f.backend.priceErr = nil
	v, err = f.svc.RefreshPrice(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Quote)
	assert.Len(t, f.backend.priceCalls, 2)
}

func TestStalePriceIsDiscarded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
	require.NoError(t, err)

	id := v.ID
	f.backend.beforePrice = func() {
		// the customer presses back while the price is still loading
		_, err := f.svc.Back(ctx, id)
		require.NoError(t, err)
	}

	_, err = f.svc.SkipLogo(ctx, id)
	require.ErrorIs(t, err, ErrStaleResponse)

	v, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogo, v.Step)
	assert.Nil(t, v.Quote)
}

func TestBackPreservesSelections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toPreview(t, "", 50)

	for _, want := range []models.WizardStep{models.StepLogo, models.StepProducts} {
		var err error
		v, err = f.svc.Back(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, want, v.Step)
	}
	assert.Len(t, v.SelectedProducts, 4)
	assert.Empty(t, v.MissingCategories)
	assert.Equal(t, 50, v.Quantity)
}

func TestClose_RemovesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Close(ctx, v.ID))
	_, err = f.svc.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestConcurrentBackWinsOverLogoUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitBudget(ctx, v.ID, 800, 50)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, v.ID, allProducts)
	require.NoError(t, err)

	id := v.ID
	var back *View
	f.store.beforeUpdate = func() {
		// a second tab goes back while the upload is being committed
		var err error
		back, err = f.svc.Back(ctx, id)
		require.NoError(t, err)
	}

	_, err = f.svc.UploadLogo(ctx, id, LogoUpload{FileName: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")})
	require.ErrorIs(t, err, ErrStaleResponse)

	require.NotNil(t, back)
	assert.Equal(t, models.StepProducts, back.Step)

	stored, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepProducts, stored.Step)
	assert.Equal(t, back.Revision, stored.Revision)
	assert.Equal(t, models.LogoPending, stored.Logo.Status)
	assert.Empty(t, f.backend.priceCalls)
}

func TestKeepLogo_RepricesWithExistingUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)
	id := v.ID
	_, err = f.svc.SubmitBudget(ctx, id, 800, 50)
	require.NoError(t, err)
	_, err = f.svc.SelectProducts(ctx, id, allProducts)
	require.NoError(t, err)
	_, err = f.svc.UploadLogo(ctx, id, LogoUpload{FileName: "logo.png", ContentType: "image/png", Data: []byte("png-bytes")})
	require.NoError(t, err)
	v, err = f.svc.Back(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.StepLogo, v.Step)

	v, err = f.svc.KeepLogo(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StepPreview, v.Step)
	assert.Equal(t, models.LogoUploaded, v.Logo.Status)
	assert.Equal(t, "logo.png", v.Logo.FileName)
	require.Len(t, f.backend.priceCalls, 2)
	for _, item := range f.backend.priceCalls[1].Items {
		assert.Equal(t, backend.BrandingLogo, item.BrandingType)
	}
}

func TestKeepLogo_WithoutUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.toPreview(t, "", 50)
	_, err := f.svc.Back(ctx, v.ID)
	require.NoError(t, err)

	_, err = f.svc.KeepLogo(ctx, v.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "logo", verr.Field)

	v, err = f.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepLogo, v.Step)
}

func TestMissingCategories_BeforeProductsStep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.svc.Open(ctx, "")
	require.NoError(t, err)

	_, err = f.svc.MissingCategories(ctx, v.ID, nil)
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, models.StepBudget, terr.Step)
	assert.Zero(t, f.backend.suggestCalls)
}
