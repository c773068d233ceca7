package models

// BudgetTier is a per-kit price point offered on the budget step.
type BudgetTier int

// Product is one item a kit can contain.
type Product struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Category string  `json:"category,omitempty" bson:"category,omitempty"`
	Image    string  `json:"image,omitempty" bson:"image,omitempty"`
	Price    float64 `json:"price" bson:"price"`
}

// Box is the packaging suggested for a budget.
type Box struct {
	ID    string  `json:"id" bson:"id"`
	Name  string  `json:"name" bson:"name"`
	Image string  `json:"image,omitempty" bson:"image,omitempty"`
	Price float64 `json:"price" bson:"price"`
}

// Category groups the suggested products a customer picks exactly one from.
type Category struct {
	Name     string    `json:"name" bson:"name"`
	Products []Product `json:"products" bson:"products"`
}

// Find returns the product with the given id.
func (c Category) Find(productID string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == productID {
			return p, true
		}
	}
	return Product{}, false
}

type LogoStatus string

const (
	LogoPending  LogoStatus = "pending"
	LogoUploaded LogoStatus = "uploaded"
	LogoSkipped  LogoStatus = "skipped"
	LogoRemoved  LogoStatus = "removed"
)

// Logo is the branding decision of the logo step. Data holds the base64 image and is
// only set while Status is LogoUploaded.
type Logo struct {
	Status      LogoStatus `json:"status" bson:"status"`
	FileName    string     `json:"fileName,omitempty" bson:"fileName,omitempty"`
	ContentType string     `json:"contentType,omitempty" bson:"contentType,omitempty"`
	Size        int64      `json:"size,omitempty" bson:"size,omitempty"`
	URL         string     `json:"url,omitempty" bson:"url,omitempty"`
	Data        string     `json:"data,omitempty" bson:"-"`
}

// Branded reports whether the kit carries the customer's logo.
func (l Logo) Branded() bool {
	return l.Status == LogoUploaded
}

// Contact is the person a kit enquiry is followed up with.
type Contact struct {
	Name    string `json:"name" bson:"name" validate:"required,max=120"`
	Email   string `json:"email" bson:"email" validate:"required,email"`
	Phone   string `json:"phone" bson:"phone" validate:"required,min=7,max=20"`
	Company string `json:"company,omitempty" bson:"company,omitempty" validate:"max=160"`
}

// PriceQuote is the backend's price for the current selection, stored verbatim.
type PriceQuote struct {
	PerKitPrice float64 `json:"perKitPrice" bson:"perKitPrice"`
	TotalPrice  float64 `json:"totalPrice" bson:"totalPrice"`
}

// KitConfiguration accumulates what each wizard step commits.
type KitConfiguration struct {
	Budget           BudgetTier         `json:"budget,omitempty"`
	Quantity         int                `json:"quantity,omitempty"`
	Box              *Box               `json:"box,omitempty"`
	Categories       []Category         `json:"categories,omitempty"`
	SelectedProducts map[string]Product `json:"selectedProducts,omitempty"`
	Logo             Logo               `json:"logo"`
	UserDetails      *Contact           `json:"userDetails,omitempty"`
}

// Category returns the catalog category with the given name.
func (k KitConfiguration) Category(name string) (Category, bool) {
	for _, c := range k.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// MissingCategories lists, in catalog order, the categories with no selected product.
func (k KitConfiguration) MissingCategories() []string {
	missing := []string{}
	for _, c := range k.Categories {
		if _, ok := k.SelectedProducts[c.Name]; !ok {
			missing = append(missing, c.Name)
		}
	}
	return missing
}
