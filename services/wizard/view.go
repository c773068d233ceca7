package wizard

import (
	"time"

	"giftkit/models"
)

// View is what the front end renders for a session. The logo image itself is never
// echoed back.
type View struct {
	ID                string                    `json:"id"`
	Step              models.WizardStep         `json:"step"`
	StepName          string                    `json:"stepName"`
	Revision          int                       `json:"revision"`
	Authenticated     bool                      `json:"authenticated"`
	Budget            models.BudgetTier         `json:"budget,omitempty"`
	Quantity          int                       `json:"quantity,omitempty"`
	Box               *models.Box               `json:"box,omitempty"`
	Categories        []models.Category         `json:"categories"`
	SelectedProducts  map[string]models.Product `json:"selectedProducts"`
	MissingCategories []string                  `json:"missingCategories"`
	Logo              models.Logo               `json:"logo"`
	UserDetails       *models.Contact           `json:"userDetails,omitempty"`
	Quote             *models.PriceQuote        `json:"quote,omitempty"`
	Enquiry           *models.EnquiryAck        `json:"enquiry,omitempty"`
	CanGoBack         bool                      `json:"canGoBack"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

func NewView(s *models.WizardSession) *View {
	logo := s.Config.Logo
	logo.Data = ""

	categories := s.Config.Categories
	if categories == nil {
		categories = []models.Category{}
	}
	selected := s.Config.SelectedProducts
	if selected == nil {
		selected = map[string]models.Product{}
	}
	_, canGoBack := previousStep[s.Step]

	return &View{
		ID:                s.ID,
		Step:              s.Step,
		StepName:          s.Step.String(),
		Revision:          s.Revision,
		Authenticated:     s.Authenticated,
		Budget:            s.Config.Budget,
		Quantity:          s.Config.Quantity,
		Box:               s.Config.Box,
		Categories:        categories,
		SelectedProducts:  selected,
		MissingCategories: s.Config.MissingCategories(),
		Logo:              logo,
		UserDetails:       s.Config.UserDetails,
		Quote:             s.Quote,
		Enquiry:           s.Enquiry,
		CanGoBack:         canGoBack,
		UpdatedAt:         s.UpdatedAt,
	}
}
