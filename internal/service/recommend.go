// internal/service/recommend.go
package service

import (
	"cashback-optimizer/internal/domain"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Recommend ranks the owner's cards by cashback for categoryName in the period.
// Name matching is exact up to case. One entry per card, best percent first.
// No matching category is an empty result, not an error.
func (s *Service) Recommend(ctx context.Context, ownerID int64, categoryName string, period domain.Period) ([]domain.Recommendation, error) {
	query := cleanName(categoryName)
	if query == "" {
		return nil, &domain.ValidationError{Field: "category_name", Reason: "must not be blank"}
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	offers, err := s.store.ListOffers(ctx, ownerID, period)
	if err != nil {
		s.metrics.Recommendation(0, err, time.Since(start))
		return nil, fmt.Errorf("recommend %q for %s: %w", query, period, err)
	}

	recs := rank(offers, query)
	s.metrics.Recommendation(len(recs), nil, time.Since(start))
	slog.Debug("Recommendation computed",
		"user_id", ownerID, "category", query, "period", period.String(), "results", len(recs))
	return recs, nil
}

// rank keeps the best matching offer per card and orders the result by percent
// descending, then by card id.
func rank(offers []domain.Offer, query string) []domain.Recommendation {
	key := foldKey(query)
	best := make(map[int64]domain.Offer)
	for _, o := range offers {
		if foldKey(o.Category.CategoryName) != key {
			continue
		}
		cur, ok := best[o.Category.CardID]
		if !ok || better(o.Category, cur.Category) {
			best[o.Category.CardID] = o
		}
	}

	recs := make([]domain.Recommendation, 0, len(best))
	for _, o := range best {
		recs = append(recs, domain.Recommendation{
			BankID:          o.BankID,
			BankName:        o.BankName,
			CardID:          o.Category.CardID,
			CardName:        o.CardName,
			CategoryID:      o.Category.ID,
			CategoryName:    o.Category.CategoryName,
			CashbackPercent: o.Category.CashbackPercent,
			Icon:            o.Category.Icon,
		})
	}
	sort.Slice(recs, func(i, j int) bool {
		if c := recs[i].CashbackPercent.Cmp(recs[j].CashbackPercent); c != 0 {
			return c > 0
		}
		return recs[i].CardID < recs[j].CardID
	})
	return recs
}

// better reports whether a should replace b as the card's entry.
func better(a, b domain.CashbackCategory) bool {
	if c := a.CashbackPercent.Cmp(b.CashbackPercent); c != 0 {
		return c > 0
	}
	return a.ID < b.ID
}
