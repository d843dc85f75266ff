// internal/storage/percent.go
package storage

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParsePercent reads a cashback percent stored in its textual form.
func ParsePercent(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse percent %q: %w", s, err)
	}
	return d, nil
}
