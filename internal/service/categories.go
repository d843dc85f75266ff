// internal/service/categories.go
package service

import (
	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/storage"
	"context"
	"fmt"
	"log/slog"
	"sort"
)

// CreateCategory records a cashback rate for the card in the given period.
func (s *Service) CreateCategory(ctx context.Context, ownerID, cardID int64, period domain.Period, in CategoryInput) (domain.CashbackCategory, error) {
	if err := period.Validate(); err != nil {
		return domain.CashbackCategory{}, err
	}
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.CashbackCategory{}, err
	}

	cat, err := s.store.InsertCategory(ctx, ownerID, newCategory(cardID, period, in))
	s.metrics.Mutation("category", "create", err)
	if err != nil {
		return domain.CashbackCategory{}, fmt.Errorf("create category on card %d: %w", cardID, err)
	}

	slog.Info("Category created",
		"user_id", ownerID, "card_id", cardID, "category_id", cat.ID, "period", period.String())
	return cat, nil
}

// UpdateCategory replaces name, percent and icon. The period of a category never changes.
func (s *Service) UpdateCategory(ctx context.Context, ownerID, categoryID int64, in CategoryInput) (domain.CashbackCategory, error) {
	in = in.clean()
	if err := validate(in); err != nil {
		return domain.CashbackCategory{}, err
	}

	cat, err := s.store.UpdateCategory(ctx, ownerID, domain.CashbackCategory{
		ID:              categoryID,
		CategoryName:    in.CategoryName,
		CashbackPercent: in.CashbackPercent,
		Icon:            in.Icon,
	})
	s.metrics.Mutation("category", "update", err)
	if err != nil {
		return domain.CashbackCategory{}, fmt.Errorf("update category %d: %w", categoryID, err)
	}
	return cat, nil
}

func (s *Service) DeleteCategory(ctx context.Context, ownerID, categoryID int64) error {
	err := s.store.DeleteCategory(ctx, ownerID, categoryID)
	s.metrics.Mutation("category", "delete", err)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", categoryID, err)
	}
	slog.Info("Category deleted", "user_id", ownerID, "category_id", categoryID)
	return nil
}

// ListCategories lists the owner's categories. Filtering by a foreign card yields
// domain.ErrNotFound, not an empty list.
func (s *Service) ListCategories(ctx context.Context, ownerID int64, filter domain.CategoryFilter) ([]domain.CashbackCategory, error) {
	if filter.Period != nil {
		if err := filter.Period.Validate(); err != nil {
			return nil, err
		}
	}

	var cats []domain.CashbackCategory
	err := s.store.InTx(ctx, func(ctx context.Context, r storage.Repository) error {
		if filter.CardID != nil {
			if _, err := r.GetCard(ctx, ownerID, *filter.CardID); err != nil {
				return err
			}
		}
		var err error
		cats, err = r.ListCategories(ctx, ownerID, filter)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// CategoryNames returns the distinct category names recorded for the period.
// Names differing only in case count once, under the spelling seen first.
func (s *Service) CategoryNames(ctx context.Context, ownerID int64, period domain.Period) ([]string, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	cats, err := s.store.ListCategories(ctx, ownerID, domain.CategoryFilter{Period: &period})
	if err != nil {
		return nil, fmt.Errorf("category names for %s: %w", period, err)
	}

	seen := make(map[string]struct{}, len(cats))
	names := []string{}
	for _, c := range cats {
		key := foldKey(c.CategoryName)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, c.CategoryName)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return foldKey(names[i]) < foldKey(names[j])
	})
	return names, nil
}

func newCategory(cardID int64, period domain.Period, in CategoryInput) domain.CashbackCategory {
	return domain.CashbackCategory{
		CardID:          cardID,
		CategoryName:    in.CategoryName,
		CashbackPercent: in.CashbackPercent,
		Month:           period.Month,
		Year:            period.Year,
		Icon:            in.Icon,
	}
}
