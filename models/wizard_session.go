package models

import "time"

// WizardStep is the active screen of the gift-kit wizard.
type WizardStep int

const (
	StepBudget WizardStep = iota + 1
	StepProducts
	StepLogo
	StepPreview
	StepUserDetails
	StepSuccess
)

func (s WizardStep) String() string {
	switch s {
	case StepBudget:
		return "budget"
	case StepProducts:
		return "products"
	case StepLogo:
		return "logo"
	case StepPreview:
		return "preview"
	case StepUserDetails:
		return "userDetails"
	case StepSuccess:
		return "success"
	}
	return "unknown"
}

// EnquiryAck is the backend's acknowledgement of a submitted enquiry.
type EnquiryAck struct {
	ID      string `json:"id" bson:"id"`
	Message string `json:"message,omitempty" bson:"message,omitempty"`
}

// WizardSession is the server-side state of one open wizard. Revision increases on
// every applied transition.
type WizardSession struct {
	ID            string           `json:"id"`
	Step          WizardStep       `json:"step"`
	Revision      int              `json:"revision"`
	Config        KitConfiguration `json:"config"`
	Quote         *PriceQuote      `json:"quote,omitempty"`
	Authenticated bool             `json:"authenticated"`
	Enquiry       *EnquiryAck      `json:"enquiry,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// EnquiryItem is one selected product in a submitted enquiry.
type EnquiryItem struct {
	Category    string  `json:"category"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Price       float64 `json:"price"`
}

// Enquiry is the snapshot of a finished configuration sent to the backend.
type Enquiry struct {
	Contact     Contact       `json:"contact"`
	Budget      BudgetTier    `json:"budget"`
	Quantity    int           `json:"quantity"`
	Box         *Box          `json:"box,omitempty"`
	Logo        *EnquiryLogo  `json:"logo,omitempty"`
	LogoStatus  LogoStatus    `json:"logoStatus"`
	Products    []EnquiryItem `json:"products"`
	PerKitPrice float64       `json:"perKitPrice"`
	TotalPrice  float64       `json:"totalPrice"`
}

// EnquiryLogo carries the logo inline as base64.
type EnquiryLogo struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}
