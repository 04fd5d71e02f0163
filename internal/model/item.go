package model

import (
	"strings"
	"time"
)

// Item is a household inventory entry owned by a single user.
type Item struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Frequency string    `json:"frequency"`
	Price     *float64  `json:"price,omitempty"`
	Note      string    `json:"note,omitempty"`
	NeedBy    *string   `json:"needBy,omitempty"`
	HasImage  bool      `json:"hasImage,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Draft is an item payload without server-assigned fields.
type Draft struct {
	Name      string   `json:"name"`
	Category  string   `json:"category,omitempty"`
	Status    string   `json:"status,omitempty"`
	Frequency string   `json:"frequency,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Note      string   `json:"note,omitempty"`
	NeedBy    *string  `json:"needBy,omitempty"`
}

// ItemPatch carries an update. Nil fields are left unchanged by a partial update.
type ItemPatch struct {
	Name      *string  `json:"name,omitempty"`
	Category  *string  `json:"category,omitempty"`
	Status    *string  `json:"status,omitempty"`
	Frequency *string  `json:"frequency,omitempty"`
	Price     *float64 `json:"price,omitempty"`
	Note      *string  `json:"note,omitempty"`
	NeedBy    *string  `json:"needBy,omitempty"`
}

// Categories.
const (
	CategoryGroceries    = "groceries"
	CategoryHousehold    = "household"
	CategoryMedicine     = "medicine"
	CategoryPersonalCare = "personal_care"
	CategoryOther        = "other"
)

// Stock statuses.
const (
	StatusInStock    = "in_stock"
	StatusLow        = "low"
	StatusOutOfStock = "out_of_stock"
)

// Purchase frequencies.
const (
	FrequencyDaily      = "daily"
	FrequencyWeekly     = "weekly"
	FrequencyMonthly    = "monthly"
	FrequencyOccasional = "occasional"
)

// DateLayout is the wire format of NeedBy.
const DateLayout = "2006-01-02"

// MaxNameLength is the longest accepted item name, in bytes.
const MaxNameLength = 200

var (
	Categories  = []string{CategoryGroceries, CategoryHousehold, CategoryMedicine, CategoryPersonalCare, CategoryOther}
	Statuses    = []string{StatusInStock, StatusLow, StatusOutOfStock}
	Frequencies = []string{FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyOccasional}
)

func ValidCategory(c string) bool  { return contains(Categories, c) }
func ValidStatus(s string) bool    { return contains(Statuses, s) }
func ValidFrequency(f string) bool { return contains(Frequencies, f) }

// Normalize trims the draft and fills enum defaults.
func (d *Draft) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Note = strings.TrimSpace(d.Note)
	if d.Category == "" {
		d.Category = CategoryOther
	}
	if d.Status == "" {
		d.Status = StatusInStock
	}
	if d.Frequency == "" {
		d.Frequency = FrequencyOccasional
	}
	if d.NeedBy != nil && strings.TrimSpace(*d.NeedBy) == "" {
		d.NeedBy = nil
	}
}

// Validate reports per-field problems. An empty result means the draft is valid.
func (d Draft) Validate() FieldErrors {
	errs := FieldErrors{}
	if d.Name == "" {
		errs.Add("name", "name is required")
	} else if len(d.Name) > MaxNameLength {
		errs.Add("name", "name is too long")
	}
	if !ValidCategory(d.Category) {
		errs.Add("category", "invalid category")
	}
	if !ValidStatus(d.Status) {
		errs.Add("status", "invalid status")
	}
	if !ValidFrequency(d.Frequency) {
		errs.Add("frequency", "invalid frequency")
	}
	if d.Price != nil && *d.Price < 0 {
		errs.Add("price", "price must not be negative")
	}
	if d.NeedBy != nil {
		if _, err := time.Parse(DateLayout, *d.NeedBy); err != nil {
			errs.Add("needBy", "needBy must be a date (YYYY-MM-DD)")
		}
	}
	return errs
}

// Draft returns the item's client-editable fields.
func (i Item) Draft() Draft {
	return Draft{
		Name:      i.Name,
		Category:  i.Category,
		Status:    i.Status,
		Frequency: i.Frequency,
		Price:     i.Price,
		Note:      i.Note,
		NeedBy:    i.NeedBy,
	}
}

// Apply returns the draft obtained by applying p on top of d.
func (p ItemPatch) Apply(d Draft) Draft {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Frequency != nil {
		d.Frequency = *p.Frequency
	}
	if p.Price != nil {
		d.Price = p.Price
	}
	if p.Note != nil {
		d.Note = *p.Note
	}
	if p.NeedBy != nil {
		d.NeedBy = p.NeedBy
	}
	return d
}

// Replace returns the draft for a full replace: fields missing from p are cleared.
func (p ItemPatch) Replace() Draft {
	return p.Apply(Draft{})
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
