package core

import (
	"errors"
	"strings"
	"time"
)

// Category is one of the fixed expense categories.
type Category string

const (
	Lodging       Category = "Hospedagem"
	Food          Category = "Alimentação"
	Transport     Category = "Transporte"
	Fuel          Category = "Combustível"
	Entertainment Category = "Entretenimento"
	Other         Category = "Outro"
)

// Categories lists every category in display order.
var Categories = []Category{Lodging, Food, Transport, Fuel, Entertainment, Other}

const (
	DateLayout           = "2006-01-02"
	MaxDescriptionLength = 200
)

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Profile struct {
		Name     string   `json:"name"`
		HomeCity string   `json:"home_city"`
		Company  string   `json:"company,omitempty"`
		Logos    []string `json:"logos,omitempty"`
	}

	Trip struct {
		ID          string    `json:"id"`
		Company     string    `json:"company"`
		StartDate   Date      `json:"start_date"`
		EndDate     Date      `json:"end_date"`
		Destination string    `json:"destination"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Expense keeps the amount exactly as it was entered; it is parsed
	// only when aggregated.
	Expense struct {
		ID          string    `json:"id"`
		Description string    `json:"description"`
		Amount      string    `json:"amount"`
		Category    Category  `json:"category"`
		Date        Date      `json:"date"`
		TripID      string    `json:"trip_id,omitempty"`
		CreatedAt   time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDestination = errors.New("empty destination")
	ErrEmptyCompany     = errors.New("empty company")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyHomeCity    = errors.New("empty home city")
)

// ParseCategory matches s against the enumeration, ignoring case and
// surrounding whitespace.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON stores dates the way the browser forms submit them.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Validate accepts zero and rejects negative or oversized amounts.
func (m Money) Validate() error {
	if m.Cents < 0 || m.Cents > MaxAmountCents {
		return ErrInvalidAmount
	}
	return nil
}

// Cents parses the stored amount text.
func (e Expense) Cents() (Money, error) {
	cents, err := ParseDecimalToCents(e.Amount)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescriptionLength {
		return ErrDescriptionLong
	}
	m, err := e.Cents()
	if err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (t Trip) Validate() error {
	if strings.TrimSpace(t.Destination) == "" {
		return ErrEmptyDestination
	}
	if strings.TrimSpace(t.Company) == "" {
		return ErrEmptyCompany
	}
	if t.StartDate.IsZero() || t.EndDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(p.HomeCity) == "" {
		return ErrEmptyHomeCity
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	if p.Logos != nil {
		p.Logos = append([]string(nil), p.Logos...)
	}
	return p
}
