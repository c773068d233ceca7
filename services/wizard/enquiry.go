package wizard

import (
	"giftkit/models"
	"giftkit/services/backend"
)

// PriceRequestFor lists the selected products in catalog order, branded with the
// logo when one was uploaded.
func PriceRequestFor(cfg models.KitConfiguration) backend.PriceRequest {
	branding := backend.BrandingNone
	if cfg.Logo.Branded() {
		branding = backend.BrandingLogo
	}

	items := make([]backend.PriceItem, 0, len(cfg.SelectedProducts))
	for _, cat := range cfg.Categories {
		p, ok := cfg.SelectedProducts[cat.Name]
		if !ok {
			continue
		}
		items = append(items, backend.PriceItem{ProductID: p.ID, BrandingType: branding})
	}
	return backend.PriceRequest{Quantity: cfg.Quantity, Items: items}
}

func enquiryItems(cfg models.KitConfiguration) []models.EnquiryItem {
	items := make([]models.EnquiryItem, 0, len(cfg.SelectedProducts))
	for _, cat := range cfg.Categories {
		p, ok := cfg.SelectedProducts[cat.Name]
		if !ok {
			continue
		}
		items = append(items, models.EnquiryItem{
			Category:    cat.Name,
			ProductID:   p.ID,
			ProductName: p.Name,
			Price:       p.Price,
		})
	}
	return items
}

// BuildEnquiry snapshots a session that passed ReadyToSubmit.
func BuildEnquiry(s *models.WizardSession) models.Enquiry {
	cfg := s.Config
	enquiry := models.Enquiry{
		Budget:     cfg.Budget,
		Quantity:   cfg.Quantity,
		Box:        cfg.Box,
		LogoStatus: cfg.Logo.Status,
		Products:   enquiryItems(cfg),
	}
	if cfg.UserDetails != nil {
		enquiry.Contact = *cfg.UserDetails
	}
	if cfg.Logo.Branded() {
		enquiry.Logo = &models.EnquiryLogo{
			FileName:    cfg.Logo.FileName,
			ContentType: cfg.Logo.ContentType,
			Data:        cfg.Logo.Data,
		}
	}
	if s.Quote != nil {
		enquiry.PerKitPrice = s.Quote.PerKitPrice
		enquiry.TotalPrice = s.Quote.TotalPrice
	}
	return enquiry
}

// LeadFor turns an accepted session into a CRM lead.
func LeadFor(s *models.WizardSession) *models.Lead {
	cfg := s.Config
	lead := &models.Lead{
		Source: models.SourceWizard,
		Kit: &models.LeadKit{
			Budget:     cfg.Budget,
			Quantity:   cfg.Quantity,
			Box:        cfg.Box,
			Products:   enquiryItems(cfg),
			LogoStatus: cfg.Logo.Status,
			LogoURL:    cfg.Logo.URL,
		},
		Quote: s.Quote,
	}
	if cfg.UserDetails != nil {
		lead.Contact = *cfg.UserDetails
	}
	if s.Enquiry != nil {
		lead.EnquiryRef = s.Enquiry.ID
	}
	return lead
}
