package backend

import (
	"context"

	"giftkit/models"
)

// Client is the external kit backend: identity, suggestions, pricing and enquiries.
type Client interface {
	// FetchIdentity resolves the contact record behind a bearer credential.
	FetchIdentity(ctx context.Context, credential string) (*models.Contact, error)
	// FetchSuggestions returns the box and per-category products for a budget.
	FetchSuggestions(ctx context.Context, budget models.BudgetTier) (*Suggestions, error)
	// CalculatePrice prices a quantity of kits made of the given items.
	CalculatePrice(ctx context.Context, req PriceRequest) (*models.PriceQuote, error)
	// SubmitEnquiry sends a finished configuration. idempotencyKey is forwarded so a
	// repeated submission of the same wizard is recognised.
	SubmitEnquiry(ctx context.Context, idempotencyKey string, enquiry models.Enquiry) (*models.EnquiryAck, error)
}

// Suggestions is the backend's answer for one budget.
type Suggestions struct {
	Box        models.Box                  `json:"box"`
	Categories map[string][]models.Product `json:"categories"`
}

type Branding string

const (
	BrandingLogo Branding = "logo"
	BrandingNone Branding = "none"
)

type PriceItem struct {
	ProductID    string   `json:"productId"`
	BrandingType Branding `json:"brandingType"`
}

type PriceRequest struct {
	Quantity int         `json:"quantity"`
	Items    []PriceItem `json:"items"`
}
