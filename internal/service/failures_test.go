package service

import (
	"context"
	"errors"
	"fmt"

	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/storage"

	"golang.org/x/sync/errgroup"
)

var errConnLost = errors.New("connection lost")

// brokenStore wraps a working store and fails selected calls.
type brokenStore struct {
	storage.Store
	offersErr error
	// insertsLeft successful category inserts are allowed before insertErr is returned.
	insertsLeft int
	insertErr   error
}

func (b *brokenStore) ListOffers(ctx context.Context, ownerID int64, period domain.Period) ([]domain.Offer, error) {
	if b.offersErr != nil {
		return nil, b.offersErr
	}
	return b.Store.ListOffers(ctx, ownerID, period)
}

func (b *brokenStore) InsertCategory(ctx context.Context, ownerID int64, cat domain.CashbackCategory) (domain.CashbackCategory, error) {
	if b.insertErr != nil {
		if b.insertsLeft == 0 {
			return domain.CashbackCategory{}, b.insertErr
		}
		b.insertsLeft--
	}
	return b.Store.InsertCategory(ctx, ownerID, cat)
}

func unavailable(op string) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, errConnLost)
}

func (s *ServiceTestSuite) TestRecommend_StoreFailureIsNotEmpty() {
	b := s.bank(ownerA, "Alfa")
	c := s.card(ownerA, b.ID, "Alfa Card")
	s.category(ownerA, c.ID, "Taxi", "5")

	svc := New(&brokenStore{Store: s.store, offersErr: unavailable("list offers")}, metrics.Nop())
	recs, err := svc.Recommend(s.ctx, ownerA, "Taxi", june2024)
	s.ErrorIs(err, domain.ErrUnavailable)
	s.ErrorIs(err, errConnLost)
	s.Nil(recs)

	// same data, healthy store: a miss is an empty list with no error
	recs, err = s.svc.Recommend(s.ctx, ownerA, "Cinema", june2024)
	s.NoError(err)
	s.NotNil(recs)
	s.Empty(recs)
}

func (s *ServiceTestSuite) TestIngest_StoreFailureMidBatch() {
	b := s.bank(ownerA, "Alfa")
	c := s.card(ownerA, b.ID, "Alfa Card")

	svc := New(&brokenStore{Store: s.store, insertsLeft: 2, insertErr: unavailable("insert category")}, metrics.Nop())
	report, err := svc.Ingest(s.ctx, ownerA, c.ID, june2024, []domain.ExtractedCategory{
		{CategoryName: "Taxi", CashbackPercent: pct("5")},
		{CategoryName: "Cinema", CashbackPercent: pct("150")},
		{CategoryName: "Pharmacy", CashbackPercent: pct("3")},
		{CategoryName: "Books", CashbackPercent: pct("2")},
		{CategoryName: "Fuel", CashbackPercent: pct("1")},
	})
	s.ErrorIs(err, domain.ErrUnavailable)
	s.Require().Len(report.Created, 2)
	s.Equal("Taxi", report.Created[0].CategoryName)
	s.Equal("Pharmacy", report.Created[1].CategoryName)
	s.Require().Len(report.Failed, 1)
	s.Equal(1, report.Failed[0].Index)

	cats, err := s.svc.ListCategories(s.ctx, ownerA, domain.CategoryFilter{CardID: &c.ID})
	s.Require().NoError(err)
	s.Len(cats, 2)
}

func (s *ServiceTestSuite) TestDeleteBank_ReadersSeeWholeTreeOrNothing() {
	b := s.bank(ownerA, "Tinkoff")
	for _, name := range []string{"Black", "Platinum"} {
		c := s.card(ownerA, b.ID, name)
		s.category(ownerA, c.ID, "Taxi", "5")
		s.category(ownerA, c.ID, "Cafe", "3")
	}

	done := make(chan struct{})
	var g errgroup.Group
	for range 4 {
		g.Go(func() error {
			for {
				if err := s.checkTreeWholeOrGone(b.ID); err != nil {
					return err
				}
				select {
				case <-done:
					return nil
				default:
				}
			}
		})
	}

	s.Require().NoError(s.svc.DeleteBank(s.ctx, ownerA, b.ID))
	close(done)
	s.Require().NoError(g.Wait())
	s.NoError(s.checkTreeWholeOrGone(b.ID))

	_, err := s.svc.GetBank(s.ctx, ownerA, b.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

// checkTreeWholeOrGone runs outside the test goroutine and reports through its error.
func (s *ServiceTestSuite) checkTreeWholeOrGone(bankID int64) error {
	banks, err := s.svc.ListBanks(s.ctx, ownerA, nil)
	if err != nil {
		return err
	}
	switch len(banks) {
	case 0:
	case 1:
		if banks[0].ID != bankID || len(banks[0].Cards) != 2 {
			return fmt.Errorf("partial tree: %d cards", len(banks[0].Cards))
		}
		for _, c := range banks[0].Cards {
			if len(c.Categories) != 2 {
				return fmt.Errorf("partial tree: card %d has %d categories", c.ID, len(c.Categories))
			}
		}
	default:
		return fmt.Errorf("unexpected banks: %d", len(banks))
	}

	recs, err := s.svc.Recommend(s.ctx, ownerA, "Taxi", june2024)
	if err != nil {
		return err
	}
	if n := len(recs); n != 0 && n != 2 {
		return fmt.Errorf("partial offers: %d", n)
	}
	return nil
}
