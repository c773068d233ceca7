package handlers

import (
	"giftkit/utils"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Wizard *WizardHandler
	Auth   *AuthHandler
	Leads  *LeadHandler
	Health *utils.HealthMonitor
}
