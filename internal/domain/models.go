// internal/domain/models.go
package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// проценты отдаём в JSON числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

type Bank struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"-"`
	Name    string `json:"name"`
}

type Card struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"-"`
	BankID   int64  `json:"bank_id"`
	Name     string `json:"name"`
	CardType string `json:"card_type,omitempty"`
}

// CashbackCategory — процент кэшбэка по категории для карты в конкретном месяце.
type CashbackCategory struct {
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"-"`
	CardID          int64           `json:"card_id"`
	CategoryName    string          `json:"category_name"`
	CashbackPercent decimal.Decimal `json:"cashback_percent"`
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	Icon            string          `json:"icon"`
}

func (c CashbackCategory) Period() Period {
	return Period{Month: c.Month, Year: c.Year}
}

type CardWithCategories struct {
	Card
	Categories []CashbackCategory `json:"cashback_categories"`
}

type BankWithCards struct {
	Bank
	Cards []CardWithCategories `json:"cards"`
}

// CategoryFilter narrows a category listing. Nil fields are not applied.
type CategoryFilter struct {
	CardID *int64
	Period *Period
}

// Offer is a category row joined with its card and bank.
type Offer struct {
	Category CashbackCategory
	CardName string
	BankID   int64
	BankName string
}

type Recommendation struct {
	BankID          int64           `json:"bank_id"`
	BankName        string          `json:"bank_name"`
	CardID          int64           `json:"card_id"`
	CardName        string          `json:"card_name"`
	CategoryID      int64           `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	CashbackPercent decimal.Decimal `json:"cashback_percent"`
	Icon            string          `json:"icon"`
}

// ExtractedCategory — одна пара категория/процент, пришедшая от OCR.
type ExtractedCategory struct {
	CategoryName    string          `json:"category_name"`
	CashbackPercent decimal.Decimal `json:"cashback_percent"`
	Icon            string          `json:"icon,omitempty"`
}

type EntryFailure struct {
	Index        int    `json:"index"`
	CategoryName string `json:"category_name"`
	Field        string `json:"field"`
	Reason       string `json:"reason"`
}

type IngestReport struct {
	Created []CashbackCategory `json:"created"`
	Failed  []EntryFailure     `json:"failed"`
}

// Partial reports whether at least one entry of the batch was rejected.
func (r IngestReport) Partial() bool {
	return len(r.Failed) > 0
}
