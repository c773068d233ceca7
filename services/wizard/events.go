package wizard

import "giftkit/models"

// Event is the input of Transition. Each concrete type belongs to one step.
type Event interface {
	eventName() string
}

type BudgetCommitted struct {
	Budget     models.BudgetTier
	Quantity   int
	Box        models.Box
	Categories []models.Category
}

type ProductsCommitted struct {
	Selected map[string]models.Product
}

type LogoCommitted struct {
	Logo models.Logo
}

// LogoKept moves on with the logo uploaded earlier, after going back to the logo step.
type LogoKept struct{}

type LogoSkipped struct{}

type LogoRemoved struct{}

type PricePreviewed struct {
	Quote models.PriceQuote
}

type DetailsRequested struct{}

type DetailsCommitted struct {
	Contact models.Contact
}

type EnquiryAccepted struct {
	Ack models.EnquiryAck
}

type Back struct{}

func (BudgetCommitted) eventName() string   { return "budget" }
func (ProductsCommitted) eventName() string { return "products" }
func (LogoCommitted) eventName() string     { return "logo" }
func (LogoKept) eventName() string          { return "keep-logo" }
func (LogoSkipped) eventName() string       { return "skip-logo" }
func (LogoRemoved) eventName() string       { return "remove-logo" }
func (PricePreviewed) eventName() string    { return "price" }
func (DetailsRequested) eventName() string  { return "request-details" }
func (DetailsCommitted) eventName() string  { return "details" }
func (EnquiryAccepted) eventName() string   { return "enquiry-accepted" }
func (Back) eventName() string              { return "back" }
