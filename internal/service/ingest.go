// internal/service/ingest.go
package service

import (
	"cashback-optimizer/internal/domain"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Ingest stores a batch of OCR-extracted categories for one card and period.
//
// The card and the period are checked once for the whole batch. After that every
// entry stands on its own: invalid entries are reported in the Failed list and the
// rest are inserted one row at a time. A store failure stops the batch; what was
// created before it stays and is returned together with the error.
func (s *Service) Ingest(ctx context.Context, ownerID, cardID int64, period domain.Period, entries []domain.ExtractedCategory) (domain.IngestReport, error) {
	report := domain.IngestReport{
		Created: []domain.CashbackCategory{},
		Failed:  []domain.EntryFailure{},
	}

	if err := period.Validate(); err != nil {
		return report, err
	}
	if len(entries) == 0 {
		return report, &domain.ValidationError{Field: "categories", Reason: "must not be empty"}
	}
	if _, err := s.store.GetCard(ctx, ownerID, cardID); err != nil {
		return report, fmt.Errorf("ingest into card %d: %w", cardID, err)
	}

	defer func() {
		s.metrics.Ingested(len(report.Created), len(report.Failed))
	}()

	for i, e := range entries {
		in := CategoryInput{
			CategoryName:    e.CategoryName,
			CashbackPercent: e.CashbackPercent,
			Icon:            e.Icon,
		}.clean()

		if err := validate(in); err != nil {
			report.Failed = append(report.Failed, failure(i, e.CategoryName, err))
			continue
		}

		cat, err := s.store.InsertCategory(ctx, ownerID, newCategory(cardID, period, in))
		if err != nil {
			if errors.Is(err, domain.ErrValidation) {
				report.Failed = append(report.Failed, failure(i, e.CategoryName, err))
				continue
			}
			slog.Error("Ingest interrupted",
				"error", err, "user_id", ownerID, "card_id", cardID, "index", i, "created", len(report.Created))
			return report, fmt.Errorf("ingest entry %d into card %d: %w", i, cardID, err)
		}
		report.Created = append(report.Created, cat)
	}

	slog.Info("Ingest finished",
		"user_id", ownerID, "card_id", cardID, "period", period.String(),
		"created", len(report.Created), "failed", len(report.Failed))
	return report, nil
}

func failure(index int, name string, err error) domain.EntryFailure {
	f := domain.EntryFailure{Index: index, CategoryName: name, Reason: err.Error()}
	if ve, ok := domain.AsValidation(err); ok {
		f.Field = ve.Field
		f.Reason = ve.Reason
	}
	return f
}
