// internal/service/service.go
package service

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"

	val "cashback-optimizer/internal/validator"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// Service owns every mutation and query of the bank → card → category hierarchy.
// It never reads the clock: the period always comes from the caller.
type Service struct {
	store   storage.Store
	metrics *metrics.Recorder
}

func New(store storage.Store, rec *metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Service{store: store, metrics: rec}
}

// Ping checks that the underlying store answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

type BankInput struct {
	Name string `json:"name" validate:"required,notblank,max=128"`
}

type CardInput struct {
	Name     string `json:"name" validate:"required,notblank,max=128"`
	CardType string `json:"card_type" validate:"max=64"`
}

type CategoryInput struct {
	CategoryName    string          `json:"category_name" validate:"required,notblank,max=128"`
	CashbackPercent decimal.Decimal `json:"cashback_percent" validate:"percent"`
	Icon            string          `json:"icon" validate:"max=64"`
}

func (in BankInput) clean() BankInput {
	in.Name = cleanName(in.Name)
	return in
}

func (in CardInput) clean() CardInput {
	in.Name = cleanName(in.Name)
	in.CardType = strings.TrimSpace(in.CardType)
	return in
}

func (in CategoryInput) clean() CategoryInput {
	in.CategoryName = cleanName(in.CategoryName)
	in.Icon = domain.NormalizeIcon(in.Icon)
	return in
}

// cleanName trims the name and collapses inner runs of whitespace.
func cleanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// foldKey is the case-insensitive identity of a category name.
// Picker dedup and recommendation matching both go through it.
func foldKey(s string) string {
	return cases.Fold().String(cleanName(s))
}

// validate converts the first failing rule into a domain.ValidationError.
func validate(v any) error {
	err := val.Validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &domain.ValidationError{Field: verrs[0].Field(), Reason: val.Reason(verrs[0])}
	}
	return fmt.Errorf("validate: %w", err)
}
