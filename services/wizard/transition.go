package wizard

import "giftkit/models"

// previousStep is where Back leads from each step. Budget (initial) and Success
// (terminal) have no entry.
var previousStep = map[models.WizardStep]models.WizardStep{
	models.StepProducts:    models.StepBudget,
	models.StepLogo:        models.StepProducts,
	models.StepPreview:     models.StepLogo,
	models.StepUserDetails: models.StepPreview,
}

// Transition applies ev to s and returns the next session. It never mutates s and
// returns s unchanged together with the error when ev is rejected.
//
// A field of the configuration is only written by the event of the step that owns
// it, while that step is current. Back only moves the step.
func Transition(s models.WizardSession, ev Event) (models.WizardSession, error) {
	next := s

	switch e := ev.(type) {
	case BudgetCommitted:
		if err := expectStep(s, ev, models.StepBudget); err != nil {
			return s, err
		}
		box := e.Box
		next.Config.Budget = e.Budget
		next.Config.Quantity = e.Quantity
		next.Config.Box = &box
		next.Config.Categories = e.Categories
		next.Config.SelectedProducts = pruneSelection(s.Config.SelectedProducts, e.Categories)
		next.Step = models.StepProducts

	case ProductsCommitted:
		if err := expectStep(s, ev, models.StepProducts); err != nil {
			return s, err
		}
		selected := make(map[string]models.Product, len(e.Selected))
		for name, p := range e.Selected {
			cat, ok := s.Config.Category(name)
			if !ok {
				return s, &ValidationError{Field: "selectedProducts", Message: "unknown category " + name}
			}
			if _, ok := cat.Find(p.ID); !ok {
				return s, &ValidationError{Field: "selectedProducts", Message: "product " + p.ID + " is not offered in " + name}
			}
			selected[name] = p
		}
		next.Config.SelectedProducts = selected
		if missing := next.Config.MissingCategories(); len(missing) > 0 {
			return s, &MissingCategoriesError{Categories: missing}
		}
		next.Step = models.StepLogo

	case LogoCommitted:
		if err := expectStep(s, ev, models.StepLogo); err != nil {
			return s, err
		}
		if e.Logo.Status != models.LogoUploaded || e.Logo.Data == "" {
			return s, &ValidationError{Field: "logo", Message: "an uploaded image is required"}
		}
		next.Config.Logo = e.Logo
		next.Quote = nil
		next.Step = models.StepPreview

	case LogoKept:
		if err := expectStep(s, ev, models.StepLogo); err != nil {
			return s, err
		}
		if !s.Config.Logo.Branded() || s.Config.Logo.Data == "" {
			return s, &ValidationError{Field: "logo", Message: "no uploaded logo to keep"}
		}
		next.Quote = nil
		next.Step = models.StepPreview

	case LogoSkipped:
		if err := expectStep(s, ev, models.StepLogo); err != nil {
			return s, err
		}
		next.Config.Logo = models.Logo{Status: models.LogoSkipped}
		next.Quote = nil
		next.Step = models.StepPreview

	case LogoRemoved:
		if err := expectStep(s, ev, models.StepLogo); err != nil {
			return s, err
		}
		next.Config.Logo = models.Logo{Status: models.LogoRemoved}

	case PricePreviewed:
		if err := expectStep(s, ev, models.StepPreview); err != nil {
			return s, err
		}
		quote := e.Quote
		next.Quote = &quote

	case DetailsRequested:
		if err := expectStep(s, ev, models.StepPreview); err != nil {
			return s, err
		}
		if s.Config.UserDetails != nil {
			return s, &TransitionError{Step: s.Step, Event: ev.eventName()}
		}
		next.Step = models.StepUserDetails

	case DetailsCommitted:
		if err := expectStep(s, ev, models.StepUserDetails); err != nil {
			return s, err
		}
		contact := e.Contact
		next.Config.UserDetails = &contact
		next.Step = models.StepPreview

	case EnquiryAccepted:
		if err := expectStep(s, ev, models.StepPreview); err != nil {
			return s, err
		}
		if err := ReadyToSubmit(s); err != nil {
			return s, err
		}
		ack := e.Ack
		next.Enquiry = &ack
		next.Step = models.StepSuccess

	case Back:
		prev, ok := previousStep[s.Step]
		if !ok {
			return s, &TransitionError{Step: s.Step, Event: ev.eventName()}
		}
		next.Step = prev

	default:
		return s, ErrUnknownEvent
	}

	next.Revision = s.Revision + 1
	return next, nil
}

// ReadyToSubmit checks that a Preview session holds everything an enquiry needs.
func ReadyToSubmit(s models.WizardSession) error {
	if missing := s.Config.MissingCategories(); len(missing) > 0 {
		return &MissingCategoriesError{Categories: missing}
	}
	if s.Config.UserDetails == nil {
		return &ValidationError{Field: "userDetails", Message: "contact details are required"}
	}
	if s.Quote == nil {
		return ErrQuoteMissing
	}
	return nil
}

func expectStep(s models.WizardSession, ev Event, want models.WizardStep) error {
	if s.Step != want {
		return &TransitionError{Step: s.Step, Event: ev.eventName()}
	}
	return nil
}

// pruneSelection keeps the selections that are still offered by a new catalog.
func pruneSelection(selected map[string]models.Product, categories []models.Category) map[string]models.Product {
	if len(selected) == 0 {
		return nil
	}
	kept := make(map[string]models.Product, len(selected))
	for _, cat := range categories {
		p, ok := selected[cat.Name]
		if !ok {
			continue
		}
		if fresh, ok := cat.Find(p.ID); ok {
			kept[cat.Name] = fresh
		}
	}
	return kept
}
