package wizard

import (
	"context"

	"giftkit/models"
)

// Service drives one wizard session per customer through the kit steps.
type Service interface {
	Options() Options
	Open(ctx context.Context, credential string) (*View, error)
	Get(ctx context.Context, id string) (*View, error)
	Close(ctx context.Context, id string) error
	SubmitBudget(ctx context.Context, id string, budget models.BudgetTier, quantity int) (*View, error)
	SelectProducts(ctx context.Context, id string, selection map[string]string) (*View, error)
	MissingCategories(ctx context.Context, id string, selection map[string]string) ([]string, error)
	UploadLogo(ctx context.Context, id string, upload LogoUpload) (*View, error)
	KeepLogo(ctx context.Context, id string) (*View, error)
	SkipLogo(ctx context.Context, id string) (*View, error)
	RemoveLogo(ctx context.Context, id string) (*View, error)
	RefreshPrice(ctx context.Context, id string) (*View, error)
	Confirm(ctx context.Context, id string) (*View, error)
	SubmitDetails(ctx context.Context, id string, contact models.Contact) (*View, error)
	Back(ctx context.Context, id string) (*View, error)
}

// LeadRecorder receives every enquiry the backend accepted.
type LeadRecorder interface {
	Record(ctx context.Context, lead *models.Lead) error
}

// LogoStorage mirrors uploaded logos and returns their public URL.
type LogoStorage interface {
	UploadLogo(ctx context.Context, sessionID, fileName string, data []byte) (string, error)
}

// Options are the choices offered on the budget and logo steps.
type Options struct {
	Tiers        []models.BudgetTier `json:"tiers"`
	MinQuantity  int                 `json:"minQuantity"`
	MaxLogoBytes int64               `json:"maxLogoBytes"`
	LogoTypes    []string            `json:"logoTypes"`
}

// LogoUpload is a file received on the logo step.
type LogoUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
