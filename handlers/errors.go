package handlers

import (
	"errors"
	"net/http"

	leadRepo "giftkit/database/repository/lead"
	userRepo "giftkit/database/repository/user"
	"giftkit/services/auth"
	"giftkit/services/backend"
	"giftkit/services/lead"
	"giftkit/services/wizard"
	"giftkit/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto an HTTP status and a JSON error body.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var (
		validationErr *wizard.ValidationError
		missingErr    *wizard.MissingCategoriesError
		transitionErr *wizard.TransitionError
		backendErr    *backend.Error
	)

	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, validationErr.Error(), gin.H{
			"field":   validationErr.Field,
			"message": validationErr.Message,
		})
	case errors.As(err, &missingErr):
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, "Select one product in each category", gin.H{
			"missingCategories": missingErr.Categories,
		})
	case errors.As(err, &transitionErr):
		utils.JSONError(c, logger, http.StatusConflict, transitionErr.Error(), gin.H{"step": transitionErr.Step.String()})

	case errors.Is(err, wizard.ErrBackend):
		var details any
		if errors.As(err, &backendErr) {
			details = gin.H{"status": backendErr.Status, "message": backendErr.Message}
		}
		logger.Warn("kit backend call failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		utils.JSONError(c, logger, http.StatusBadGateway, "The gifting service is unavailable, please try again", details)

	case errors.Is(err, wizard.ErrSessionNotFound),
		errors.Is(err, leadRepo.ErrLeadNotFound),
		errors.Is(err, userRepo.ErrUserNotFound):
		utils.JSONError(c, logger, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, wizard.ErrStaleResponse),
		errors.Is(err, wizard.ErrSubmissionInFlight),
		errors.Is(err, wizard.ErrQuoteMissing),
		errors.Is(err, lead.ErrInvalidTransition),
		errors.Is(err, leadRepo.ErrStatusChanged),
		errors.Is(err, auth.ErrEmailTaken):
		utils.JSONError(c, logger, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, lead.ErrInvalidStatus),
		errors.Is(err, lead.ErrEmptyNote),
		errors.Is(err, lead.ErrNoLeads),
		errors.Is(err, lead.ErrInvalidAssignee),
		errors.Is(err, lead.ErrMissingContact),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrInvalidRole):
		utils.JSONError(c, logger, http.StatusUnprocessableEntity, err.Error(), nil)

	case errors.Is(err, lead.ErrForbidden), errors.Is(err, auth.ErrForbidden):
		utils.JSONError(c, logger, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidOTP):
		utils.JSONError(c, logger, http.StatusUnauthorized, err.Error(), nil)
	case errors.Is(err, auth.ErrSessionExpired):
		utils.JSONError(c, logger, http.StatusGone, err.Error(), nil)

	default:
		utils.JSONError(c, logger, http.StatusInternalServerError, "Internal Server Error", err.Error())
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	utils.JSONError(c, logger, http.StatusBadRequest, "Invalid request", err.Error())
}
