package lead

import "giftkit/models"

// statusTransitions lists the allowed next statuses. Won and lost are final.
var statusTransitions = map[models.LeadStatus][]models.LeadStatus{
	models.LeadNew:       {models.LeadContacted, models.LeadLost},
	models.LeadContacted: {models.LeadQualified, models.LeadLost},
	models.LeadQualified: {models.LeadProposal, models.LeadLost},
	models.LeadProposal:  {models.LeadWon, models.LeadLost},
	models.LeadWon:       {},
	models.LeadLost:      {},
}

// CanTransition reports whether a lead may move from one status to another.
func CanTransition(from, to models.LeadStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
