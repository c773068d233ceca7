package handlers

import (
	"fmt"
	"io"
	"net/http"

	"giftkit/middleware"
	"giftkit/models"
	"giftkit/services/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WizardHandler exposes the gift-kit wizard. Every successful call answers with the
// session view.
type WizardHandler struct {
	Service wizard.Service
	Logger  *zap.Logger
}

func NewWizardHandler(service wizard.Service, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{Service: service, Logger: logger}
}

type budgetRequest struct {
	Budget   int `json:"budget"`
	Quantity int `json:"quantity"`
}

type productsRequest struct {
	SelectedProducts map[string]string `json:"selectedProducts" binding:"required"`
}

// TiersHandler handles GET /api/catalog/tiers.
func (h *WizardHandler) TiersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.Service.Options())
}

// OpenHandler handles POST /api/wizard. A bearer token, when present, is forwarded
// to the kit backend to prefill the customer's details.
func (h *WizardHandler) OpenHandler(c *gin.Context) {
	view, err := h.Service.Open(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetHandler handles GET /api/wizard/:id.
func (h *WizardHandler) GetHandler(c *gin.Context) {
	view, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// CloseHandler handles DELETE /api/wizard/:id.
func (h *WizardHandler) CloseHandler(c *gin.Context) {
	if err := h.Service.Close(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Wizard closed"})
}

// BudgetHandler handles POST /api/wizard/:id/budget.
func (h *WizardHandler) BudgetHandler(c *gin.Context) {
	var req budgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	view, err := h.Service.SubmitBudget(c.Request.Context(), c.Param("id"), models.BudgetTier(req.Budget), req.Quantity)
	h.respond(c, view, err)
}

// ProductsHandler handles POST /api/wizard/:id/products.
func (h *WizardHandler) ProductsHandler(c *gin.Context) {
	var req productsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	view, err := h.Service.SelectProducts(c.Request.Context(), c.Param("id"), req.SelectedProducts)
	h.respond(c, view, err)
}

// MissingCategoriesHandler handles GET /api/wizard/:id/products/missing. Query
// parameters map a category name to a product id; without any, the committed
// selection is checked.
func (h *WizardHandler) MissingCategoriesHandler(c *gin.Context) {
	var selection map[string]string
	if query := c.Request.URL.Query(); len(query) > 0 {
		selection = make(map[string]string, len(query))
		for category := range query {
			selection[category] = query.Get(category)
		}
	}
	missing, err := h.Service.MissingCategories(c.Request.Context(), c.Param("id"), selection)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"missingCategories": missing})
}

// LogoHandler handles POST /api/wizard/:id/logo with a multipart "file" field.
func (h *WizardHandler) LogoHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, h.Logger, fmt.Errorf("logo file is required: %w", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	defer file.Close()

	// One byte over the limit is enough for the service to reject the file.
	var src io.Reader = file
	if limit := h.Service.Options().MaxLogoBytes; limit > 0 {
		src = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		badRequest(c, h.Logger, err)
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	view, err := h.Service.UploadLogo(c.Request.Context(), c.Param("id"), wizard.LogoUpload{
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
	})
	h.respond(c, view, err)
}

// KeepLogoHandler handles POST /api/wizard/:id/logo/keep.
func (h *WizardHandler) KeepLogoHandler(c *gin.Context) {
	view, err := h.Service.KeepLogo(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// SkipLogoHandler handles POST /api/wizard/:id/logo/skip.
func (h *WizardHandler) SkipLogoHandler(c *gin.Context) {
	view, err := h.Service.SkipLogo(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// RemoveLogoHandler handles DELETE /api/wizard/:id/logo.
func (h *WizardHandler) RemoveLogoHandler(c *gin.Context) {
	view, err := h.Service.RemoveLogo(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// PriceHandler handles POST /api/wizard/:id/price.
func (h *WizardHandler) PriceHandler(c *gin.Context) {
	view, err := h.Service.RefreshPrice(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// ConfirmHandler handles POST /api/wizard/:id/confirm.
func (h *WizardHandler) ConfirmHandler(c *gin.Context) {
	view, err := h.Service.Confirm(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

// DetailsHandler handles POST /api/wizard/:id/details.
func (h *WizardHandler) DetailsHandler(c *gin.Context) {
	var contact models.Contact
	if err := c.ShouldBindJSON(&contact); err != nil {
		badRequest(c, h.Logger, err)
		return
	}
	view, err := h.Service.SubmitDetails(c.Request.Context(), c.Param("id"), contact)
	h.respond(c, view, err)
}

// BackHandler handles POST /api/wizard/:id/back.
func (h *WizardHandler) BackHandler(c *gin.Context) {
	view, err := h.Service.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, view, err)
}

func (h *WizardHandler) respond(c *gin.Context, view *wizard.View, err error) {
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
