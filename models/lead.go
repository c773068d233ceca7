package models

import "time"

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadProposal  LeadStatus = "proposal"
	LeadWon       LeadStatus = "won"
	LeadLost      LeadStatus = "lost"
)

// LeadStatuses lists every status in pipeline order.
var LeadStatuses = []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadProposal, LeadWon, LeadLost}

func (s LeadStatus) Valid() bool {
	for _, st := range LeadStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type LeadSource string

const (
	SourceWizard   LeadSource = "wizard"
	SourceCallback LeadSource = "callback"
)

// LeadKit is the kit part of a lead. Logo bytes are not kept, only status and URL.
type LeadKit struct {
	Budget     BudgetTier    `json:"budget" bson:"budget"`
	Quantity   int           `json:"quantity" bson:"quantity"`
	Box        *Box          `json:"box,omitempty" bson:"box,omitempty"`
	Products   []EnquiryItem `json:"products" bson:"products"`
	LogoStatus LogoStatus    `json:"logoStatus" bson:"logoStatus"`
	LogoURL    string        `json:"logoUrl,omitempty" bson:"logoUrl,omitempty"`
}

type LeadNote struct {
	AuthorID  string    `json:"authorId" bson:"authorId"`
	Text      string    `json:"text" bson:"text"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Lead is an enquiry awaiting sales follow-up.
type Lead struct {
	ID         string      `json:"id" bson:"id"`
	Source     LeadSource  `json:"source" bson:"source"`
	Status     LeadStatus  `json:"status" bson:"status"`
	Contact    Contact     `json:"contact" bson:"contact"`
	Message    string      `json:"message,omitempty" bson:"message,omitempty"`
	Kit        *LeadKit    `json:"kit,omitempty" bson:"kit,omitempty"`
	Quote      *PriceQuote `json:"quote,omitempty" bson:"quote,omitempty"`
	EnquiryRef string      `json:"enquiryRef,omitempty" bson:"enquiryRef,omitempty"`
	AssigneeID string      `json:"assigneeId,omitempty" bson:"assigneeId,omitempty"`
	Notes      []LeadNote  `json:"notes" bson:"notes"`
	CreatedAt  time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt" bson:"updatedAt"`
}
