package handlers

import (
	"context"
	"net/http"
	"testing"

	leadRepo "giftkit/database/repository/lead"
	"giftkit/middleware"
	"giftkit/models"
	"giftkit/services/auth"
	"giftkit/services/lead"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLeads struct {
	lead.LeadService

	actor  models.Actor
	query  lead.Query
	status string
	err    error
}

func (s *stubLeads) RequestCallback(_ context.Context, req lead.CallbackRequest) (*models.Lead, error) {
	return &models.Lead{ID: "l1", Contact: models.Contact{Name: req.Name, Phone: req.Phone}}, s.err
}

func (s *stubLeads) List(_ context.Context, actor models.Actor, q lead.Query) (*lead.Page, error) {
	s.actor, s.query = actor, q
	return &lead.Page{Items: []models.Lead{}, Page: q.Page, Limit: q.Limit}, s.err
}

func (s *stubLeads) UpdateStatus(_ context.Context, actor models.Actor, id, status string) (*models.Lead, error) {
	s.actor, s.status = actor, status
	if s.err != nil {
		return nil, s.err
	}
	return &models.Lead{ID: id, Status: models.LeadStatus(status)}, nil
}

// asActor stands in for JWTAuth.
func asActor(actor models.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, actor.UserID)
		c.Set(middleware.ContextRole, actor.Role)
		c.Next()
	}
}

func leadRouter(svc lead.LeadService, actor models.Actor) *gin.Engine {
	h := NewLeadHandler(svc, zap.NewNop())
	r := gin.New()
	r.POST("/api/leads/callback", h.CallbackHandler)
	dash := r.Group("/api/dashboard", asActor(actor))
	dash.GET("/leads", h.ListHandler)
	dash.PATCH("/leads/:id/status", h.UpdateStatusHandler)
	return r
}

func TestCallbackHandler(t *testing.T) {
	r := leadRouter(&stubLeads{}, models.Actor{})

	w := do(r, http.MethodPost, "/api/leads/callback", `{"name":"Ravi","phone":"9876543210"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "l1", decode(t, w)["id"])

	w = do(r, http.MethodPost, "/api/leads/callback", `{"name":"Ravi","phone":"12"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListHandlerBindsQuery(t *testing.T) {
	svc := &stubLeads{}
	actor := models.Actor{UserID: "a1", Role: models.RoleAssociate}
	r := leadRouter(svc, actor)

	w := do(r, http.MethodGet, "/api/dashboard/leads?page=2&limit=10&status=new&search=corp", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, actor, svc.actor)
	assert.Equal(t, lead.Query{Page: 2, Limit: 10, Status: "new", Search: "corp"}, svc.query)
}

func TestUpdateStatusHandlerErrors(t *testing.T) {
	actor := models.Actor{UserID: "a1", Role: models.RoleAssociate}
	cases := []struct {
		err  error
		code int
	}{
		{nil, http.StatusOK},
		{lead.ErrForbidden, http.StatusForbidden},
		{lead.ErrInvalidStatus, http.StatusUnprocessableEntity},
		{lead.ErrInvalidTransition, http.StatusConflict},
		{leadRepo.ErrLeadNotFound, http.StatusNotFound},
	}
	for _, tc := range cases {
		svc := &stubLeads{err: tc.err}
		w := do(leadRouter(svc, actor), http.MethodPatch, "/api/dashboard/leads/l1/status", `{"status":"contacted"}`, nil)
		assert.Equal(t, tc.code, w.Code, "err %v", tc.err)
		assert.Equal(t, "contacted", svc.status)
	}
}

type stubAuth struct {
	auth.AuthService
	user *models.User
}

func (s *stubAuth) Me(_ context.Context, userID string) (*models.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, auth.ErrInvalidCredentials
	}
	return s.user, nil
}

func TestMeHandlerReturnsContact(t *testing.T) {
	svc := &stubAuth{user: &models.User{
		ID: "u1", Name: "Asha", Email: "asha@corp.in", PhoneNumber: "9876543210", Company: "Corp", Role: models.RoleCustomer,
	}}
	h := NewAuthHandler(svc, zap.NewNop())

	r := gin.New()
	r.GET("/me", h.MeHandler)
	r.GET("/me/auth", asActor(models.Actor{UserID: "u1", Role: models.RoleCustomer}), h.MeHandler)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "", nil).Code)

	w := do(r, http.MethodGet, "/me/auth", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"id":"u1","role":"customer","name":"Asha","email":"asha@corp.in","phone":"9876543210","company":"Corp"}`,
		w.Body.String())
}
