// internal/domain/period.go
package domain

import "fmt"

const (
	MinYear = 2000
	MaxYear = 2100
)

// Period is the (month, year) a cashback rate is in effect for.
// A category recorded for one period never applies to another.
type Period struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
	}
	if p.Year < MinYear || p.Year > MaxYear {
		return &ValidationError{Field: "year", Reason: fmt.Sprintf("must be between %d and %d", MinYear, MaxYear)}
	}
	return nil
}

// Contains reports whether the category is active in p.
func (p Period) Contains(c CashbackCategory) bool {
	return c.Month == p.Month && c.Year == p.Year
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}
