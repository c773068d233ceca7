package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"giftkit/models"
	"giftkit/services/backend"
	"giftkit/services/wizard"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubWizard answers only the calls a test sets up; anything else panics through
// the nil embedded interface.
type stubWizard struct {
	wizard.Service

	credential string
	selection  map[string]string
	upload     wizard.LogoUpload
	contact    models.Contact
	err        error
}

func (s *stubWizard) view(id string, step models.WizardStep) (*wizard.View, error) {
	if s.err != nil {
		return nil, s.err
	}
	return wizard.NewView(&models.WizardSession{ID: id, Step: step, Revision: 1}), nil
}

func (s *stubWizard) Options() wizard.Options {
	return wizard.Options{Tiers: []models.BudgetTier{500, 800}, MinQuantity: 20, MaxLogoBytes: 16}
}

func (s *stubWizard) Open(_ context.Context, credential string) (*wizard.View, error) {
	s.credential = credential
	return s.view("w1", models.StepBudget)
}

func (s *stubWizard) SubmitBudget(_ context.Context, id string, _ models.BudgetTier, _ int) (*wizard.View, error) {
	return s.view(id, models.StepProducts)
}

func (s *stubWizard) MissingCategories(_ context.Context, _ string, selection map[string]string) ([]string, error) {
	s.selection = selection
	return []string{"Bottle"}, s.err
}

func (s *stubWizard) UploadLogo(_ context.Context, id string, upload wizard.LogoUpload) (*wizard.View, error) {
	s.upload = upload
	return s.view(id, models.StepPreview)
}

func (s *stubWizard) KeepLogo(_ context.Context, id string) (*wizard.View, error) {
	return s.view(id, models.StepPreview)
}

func (s *stubWizard) SubmitDetails(_ context.Context, id string, contact models.Contact) (*wizard.View, error) {
	s.contact = contact
	return s.view(id, models.StepSuccess)
}

func (s *stubWizard) Confirm(_ context.Context, id string) (*wizard.View, error) {
	return s.view(id, models.StepSuccess)
}

func wizardRouter(svc wizard.Service) *gin.Engine {
	h := NewWizardHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/api/catalog/tiers", h.TiersHandler)
	r.POST("/api/wizard", h.OpenHandler)
	r.POST("/api/wizard/:id/budget", h.BudgetHandler)
	r.GET("/api/wizard/:id/products/missing", h.MissingCategoriesHandler)
	r.POST("/api/wizard/:id/logo", h.LogoHandler)
	r.POST("/api/wizard/:id/logo/keep", h.KeepLogoHandler)
	r.POST("/api/wizard/:id/details", h.DetailsHandler)
	r.POST("/api/wizard/:id/confirm", h.ConfirmHandler)
	return r
}

func do(r http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestTiersHandler(t *testing.T) {
	w := do(wizardRouter(&stubWizard{}), http.MethodGet, "/api/catalog/tiers", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{500.0, 800.0}, decode(t, w)["tiers"])
}

func TestOpenHandlerForwardsCredential(t *testing.T) {
	svc := &stubWizard{}
	r := wizardRouter(svc)

	w := do(r, http.MethodPost, "/api/wizard", "", map[string]string{"Authorization": "Bearer abc"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "abc", svc.credential)
	assert.Equal(t, "budget", decode(t, w)["stepName"])

	do(r, http.MethodPost, "/api/wizard", "", nil)
	assert.Empty(t, svc.credential)
}

func TestWizardErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", wizard.ErrSessionNotFound, http.StatusNotFound},
		{"validation", &wizard.ValidationError{Field: "quantity", Message: "minimum order is 20 kits"}, http.StatusUnprocessableEntity},
		{"missing categories", &wizard.MissingCategoriesError{Categories: []string{"Diary"}}, http.StatusUnprocessableEntity},
		{"wrong step", &wizard.TransitionError{Step: models.StepLogo, Event: "BudgetCommitted"}, http.StatusConflict},
		{"stale", wizard.ErrStaleResponse, http.StatusConflict},
		{"in flight", wizard.ErrSubmissionInFlight, http.StatusConflict},
		{"backend", fmt.Errorf("%w: suggestions: %w", wizard.ErrBackend, &backend.Error{Op: "suggestions", Status: 500}), http.StatusBadGateway},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := wizardRouter(&stubWizard{err: tc.err})
			w := do(r, http.MethodPost, "/api/wizard/w1/budget", `{"budget":500,"quantity":50}`, nil)
			assert.Equal(t, tc.code, w.Code)
			assert.NotEmpty(t, decode(t, w)["message"])
		})
	}
}

func TestMissingCategoriesDetails(t *testing.T) {
	r := wizardRouter(&stubWizard{err: &wizard.MissingCategoriesError{Categories: []string{"Bottle", "Keychain"}}})
	w := do(r, http.MethodPost, "/api/wizard/w1/budget", `{"budget":500,"quantity":50}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details := decode(t, w)["details"].(map[string]any)
	assert.Equal(t, []any{"Bottle", "Keychain"}, details["missingCategories"])
}

func TestMissingCategoriesHandlerQuery(t *testing.T) {
	svc := &stubWizard{}
	r := wizardRouter(svc)

	w := do(r, http.MethodGet, "/api/wizard/w1/products/missing?Diary=d1&Pen=p2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"Diary": "d1", "Pen": "p2"}, svc.selection)
	assert.Equal(t, []any{"Bottle"}, decode(t, w)["missingCategories"])

	do(r, http.MethodGet, "/api/wizard/w1/products/missing", "", nil)
	assert.Nil(t, svc.selection)
}

func postLogo(t *testing.T, r http.Handler, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/wizard/w1/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogoHandler(t *testing.T) {
	svc := &stubWizard{}
	r := wizardRouter(svc)

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 40)...)
	w := postLogo(t, r, png)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "logo.png", svc.upload.FileName)
	assert.Equal(t, "image/png", svc.upload.ContentType)
	// Reading stops one byte past the configured maximum.
	assert.Len(t, svc.upload.Data, 17)

	w = do(r, http.MethodPost, "/api/wizard/w1/logo", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// unlimitedLogoWizard reports no configured logo size limit.
type unlimitedLogoWizard struct {
	*stubWizard
}

func (unlimitedLogoWizard) Options() wizard.Options {
	return wizard.Options{Tiers: []models.BudgetTier{500, 800}, MinQuantity: 20}
}

func TestLogoHandler_NoSizeLimitReadsWholeFile(t *testing.T) {
	svc := &stubWizard{}
	r := wizardRouter(unlimitedLogoWizard{svc})

	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{7}, 4088)...)
	w := postLogo(t, r, png)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, png, svc.upload.Data)
}

func TestKeepLogoHandler(t *testing.T) {
	r := wizardRouter(&stubWizard{})
	w := do(r, http.MethodPost, "/api/wizard/w1/logo/keep", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "preview", decode(t, w)["stepName"])

	r = wizardRouter(&stubWizard{err: &wizard.ValidationError{Field: "logo", Message: "no uploaded logo to keep"}})
	w = do(r, http.MethodPost, "/api/wizard/w1/logo/keep", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDetailsHandler(t *testing.T) {
	svc := &stubWizard{}
	r := wizardRouter(svc)

	w := do(r, http.MethodPost, "/api/wizard/w1/details",
		`{"name":"Asha","email":"asha@corp.in","phone":"9876543210","company":"Corp"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Asha", svc.contact.Name)
	assert.Equal(t, "success", decode(t, w)["stepName"])

	w = do(r, http.MethodPost, "/api/wizard/w1/details", `{"name":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
