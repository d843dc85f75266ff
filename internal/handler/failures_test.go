package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cashback-optimizer/internal/domain"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/service"
	"cashback-optimizer/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// brokenStore wraps a working store and fails selected calls.
type brokenStore struct {
	storage.Store
	offersErr   error
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

func storeDown(op string) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, errors.New("connection lost"))
}

// serveWith swaps the router for one backed by store.
func (s *HandlerTestSuite) serveWith(store storage.Store) {
	reg := prometheus.NewRegistry()
	s.router = NewRouter(RouterDeps{
		Service:        service.New(store, metrics.New(reg)),
		Tokens:         s.tokens,
		RequestTimeout: 5 * time.Second,
		Gatherer:       reg,
	})
}

func (s *HandlerTestSuite) TestRecommendations_StoreDown() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Tinkoff"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Black"})
	s.createID(fmt.Sprintf("/api/v1/cards/%d/categories", cardID), map[string]any{
		"category_name": "Taxi", "cashback_percent": 5, "month": 6, "year": 2024,
	})

	s.serveWith(&brokenStore{Store: s.store, offersErr: storeDown("list offers")})

	rec := s.call(http.MethodGet, "/api/v1/recommendations?category=Taxi&month=6&year=2024", nil)
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	s.decode(rec, &body)
	s.Contains(body, "error")
	s.NotEqual("[]", rec.Body.String())
}

func (s *HandlerTestSuite) TestIngest_StoreDownMidBatch() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Alfa"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Alfa Card"})

	s.serveWith(&brokenStore{Store: s.store, insertsLeft: 1, insertErr: storeDown("insert category")})

	rec := s.call(http.MethodPost, fmt.Sprintf("/api/v1/cards/%d/ingest", cardID), map[string]any{
		"month": 6, "year": 2024,
		"categories": []map[string]any{
			{"category_name": "Taxi", "cashback_percent": 5},
			{"category_name": "Cinema", "cashback_percent": 4},
			{"category_name": "Books", "cashback_percent": 2},
		},
	})
	s.Require().Equal(http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	var body struct {
		Error  string `json:"error"`
		Report struct {
			Created []struct {
				CategoryName string `json:"category_name"`
			} `json:"created"`
			Failed []json.RawMessage `json:"failed"`
		} `json:"report"`
	}
	s.decode(rec, &body)
	s.NotEmpty(body.Error)
	s.Require().Len(body.Report.Created, 1)
	s.Equal("Taxi", body.Report.Created[0].CategoryName)
	s.Empty(body.Report.Failed)
}

func (s *HandlerTestSuite) TestIngest_StoreDownBeforeFirstRow() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Alfa"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Alfa Card"})

	s.serveWith(&brokenStore{Store: s.store, insertErr: storeDown("insert category")})

	rec := s.call(http.MethodPost, fmt.Sprintf("/api/v1/cards/%d/ingest", cardID), map[string]any{
		"month": 6, "year": 2024,
		"categories": []map[string]any{{"category_name": "Taxi", "cashback_percent": 5}},
	})
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.NotContains(rec.Body.String(), `"report"`)
}

func (s *HandlerTestSuite) TestCreateCategory_PercentAboveHundredByFraction() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Alfa"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Alfa Card"})

	rec := s.call(http.MethodPost, fmt.Sprintf("/api/v1/cards/%d/categories", cardID), map[string]any{
		"category_name": "Taxi", "cashback_percent": json.Number("100.00000000000000001"), "month": 6, "year": 2024,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), `"field":"cashback_percent"`)
}
