package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cashback-optimizer/internal/auth"
	"cashback-optimizer/internal/metrics"
	"cashback-optimizer/internal/service"
	"cashback-optimizer/internal/storage/sqlite"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

type HandlerTestSuite struct {
	suite.Suite
	store  *sqlite.Storage
	router *gin.Engine
	tokens *auth.TokenService
	token  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	store, err := sqlite.Open(filepath.Join(s.T().TempDir(), "api.db"))
	s.Require().NoError(err)
	s.store = store

	reg := prometheus.NewRegistry()
	s.tokens = auth.NewTokenService("test-secret", time.Hour)
	s.router = NewRouter(RouterDeps{
		Service:        service.New(store, metrics.New(reg)),
		Tokens:         s.tokens,
		RequestTimeout: 5 * time.Second,
		Gatherer:       reg,
	})
	s.token = s.login(1)
}

func (s *HandlerTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *HandlerTestSuite) login(userID int64) string {
	rec := s.raw(http.MethodPost, "/api/v1/login", "", map[string]any{"user_id": userID})
	s.Require().Equal(http.StatusOK, rec.Code)
	var out struct {
		Token string `json:"token"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func (s *HandlerTestSuite) raw(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerTestSuite) call(method, path string, body any) *httptest.ResponseRecorder {
	return s.raw(method, path, s.token, body)
}

func (s *HandlerTestSuite) decode(rec *httptest.ResponseRecorder, dst any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (s *HandlerTestSuite) createID(path string, body any) int64 {
	rec := s.call(http.MethodPost, path, body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		ID int64 `json:"id"`
	}
	s.decode(rec, &out)
	return out.ID
}

func (s *HandlerTestSuite) TestUnauthorized() {
	rec := s.raw(http.MethodGet, "/api/v1/banks", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *HandlerTestSuite) TestHealthAndMetrics() {
	s.Equal(http.StatusOK, s.raw(http.MethodGet, "/health", "", nil).Code)

	s.createID("/api/v1/banks", map[string]any{"name": "Alfa"})
	rec := s.raw(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `cashback_mutations_total{entity="bank",op="create",status="ok"} 1`)
}

func (s *HandlerTestSuite) TestHierarchyFlow() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Tinkoff"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Black"})
	s.createID(fmt.Sprintf("/api/v1/cards/%d/categories", cardID), map[string]any{
		"category_name": "Groceries", "cashback_percent": 5.5, "month": 6, "year": 2024,
	})

	rec := s.call(http.MethodGet, fmt.Sprintf("/api/v1/banks/%d", bankID), nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"cashback_percent":5.5`)
	s.Contains(rec.Body.String(), `"icon":"shopping_cart"`)

	rec = s.call(http.MethodGet, "/api/v1/banks?month=7&year=2024", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"cashback_categories":[]`)

	rec = s.call(http.MethodDelete, fmt.Sprintf("/api/v1/banks/%d", bankID), nil)
	s.Equal(http.StatusOK, rec.Code)
	rec = s.call(http.MethodDelete, fmt.Sprintf("/api/v1/banks/%d", bankID), nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerTestSuite) TestRecommendations() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Tinkoff"})
	five := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Five"})
	seven := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Seven"})
	for cardID, pct := range map[int64]float64{five: 5.0, seven: 7.0} {
		s.createID(fmt.Sprintf("/api/v1/cards/%d/categories", cardID), map[string]any{
			"category_name": "Groceries", "cashback_percent": pct, "month": 6, "year": 2024,
		})
	}

	rec := s.call(http.MethodGet, "/api/v1/recommendations?category=groceries&month=6&year=2024", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var recs []struct {
		CardID int64 `json:"card_id"`
	}
	s.decode(rec, &recs)
	s.Require().Len(recs, 2)
	s.Equal(seven, recs[0].CardID)
	s.Equal(five, recs[1].CardID)

	rec = s.call(http.MethodGet, "/api/v1/recommendations?category=Taxi&month=6&year=2024", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	rec = s.call(http.MethodGet, "/api/v1/categories/names?month=6&year=2024", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`["Groceries"]`, rec.Body.String())
}

func (s *HandlerTestSuite) TestValidationErrors() {
	rec := s.call(http.MethodPost, "/api/v1/banks", map[string]any{"name": "  "})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), `"field":"name"`)

	rec = s.call(http.MethodGet, "/api/v1/recommendations?category=Taxi&month=13&year=2024", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), `"field":"month"`)

	rec = s.call(http.MethodGet, "/api/v1/recommendations?month=6&year=2024", nil)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), `"field":"category_name"`)

	rec = s.call(http.MethodGet, "/api/v1/banks/abc", nil)
	s.Equal(http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/banks", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+s.token)
	out := httptest.NewRecorder()
	s.router.ServeHTTP(out, req)
	s.Equal(http.StatusBadRequest, out.Code)
}

func (s *HandlerTestSuite) TestIngestStatuses() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Alfa"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Alfa Card"})
	path := fmt.Sprintf("/api/v1/cards/%d/ingest", cardID)

	rec := s.call(http.MethodPost, path, map[string]any{
		"month": 6, "year": 2024,
		"categories": []map[string]any{
			{"category_name": "Taxi", "cashback_percent": 5},
			{"category_name": "Cinema", "cashback_percent": 150},
			{"category_name": "Аптеки", "cashback_percent": 3, "icon": "local_pharmacy"},
		},
	})
	s.Require().Equal(http.StatusMultiStatus, rec.Code, rec.Body.String())
	var report struct {
		Created []json.RawMessage `json:"created"`
		Failed  []struct {
			Index int    `json:"index"`
			Field string `json:"field"`
		} `json:"failed"`
	}
	s.decode(rec, &report)
	s.Len(report.Created, 2)
	s.Require().Len(report.Failed, 1)
	s.Equal(1, report.Failed[0].Index)
	s.Equal("cashback_percent", report.Failed[0].Field)

	rec = s.call(http.MethodPost, path, map[string]any{
		"month": 6, "year": 2024,
		"categories": []map[string]any{{"category_name": "", "cashback_percent": 5}},
	})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	rec = s.call(http.MethodPost, path, map[string]any{
		"month": 6, "year": 2024,
		"categories": []map[string]any{{"category_name": "Cafe", "cashback_percent": 1}},
	})
	s.Equal(http.StatusCreated, rec.Code)

	rec = s.call(http.MethodPost, path, map[string]any{"month": 6, "year": 2024, "categories": []any{}})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), `"field":"categories"`)
}

func (s *HandlerTestSuite) TestForeignOwner() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Mine"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Mine"})

	other := s.login(2)
	s.Equal(http.StatusNotFound, s.raw(http.MethodGet, fmt.Sprintf("/api/v1/banks/%d", bankID), other, nil).Code)
	s.Equal(http.StatusNotFound, s.raw(http.MethodPut, fmt.Sprintf("/api/v1/cards/%d", cardID), other,
		map[string]any{"name": "Stolen"}).Code)
	s.Equal(http.StatusNotFound, s.raw(http.MethodGet, fmt.Sprintf("/api/v1/categories?card_id=%d", cardID), other, nil).Code)

	rec := s.raw(http.MethodGet, "/api/v1/banks", other, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *HandlerTestSuite) TestUpdateAndDelete() {
	bankID := s.createID("/api/v1/banks", map[string]any{"name": "Sber"})
	cardID := s.createID(fmt.Sprintf("/api/v1/banks/%d/cards", bankID), map[string]any{"name": "Prime"})
	catID := s.createID(fmt.Sprintf("/api/v1/cards/%d/categories", cardID), map[string]any{
		"category_name": "Cafe", "cashback_percent": 3, "month": 6, "year": 2024,
	})

	rec := s.call(http.MethodPut, fmt.Sprintf("/api/v1/banks/%d", bankID), map[string]any{"name": "SberBank"})
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"name":"SberBank"`)

	rec = s.call(http.MethodPut, fmt.Sprintf("/api/v1/categories/%d", catID), map[string]any{
		"category_name": "Restaurants", "cashback_percent": 4.5, "icon": "Restaurant",
	})
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"icon":"restaurant"`)
	s.Contains(rec.Body.String(), `"month":6`)

	rec = s.call(http.MethodGet, fmt.Sprintf("/api/v1/banks/%d/cards", bankID), nil)
	s.Equal(http.StatusOK, rec.Code)

	s.Equal(http.StatusOK, s.call(http.MethodDelete, fmt.Sprintf("/api/v1/categories/%d", catID), nil).Code)
	s.Equal(http.StatusOK, s.call(http.MethodDelete, fmt.Sprintf("/api/v1/cards/%d", cardID), nil).Code)
	s.Equal(http.StatusNotFound, s.call(http.MethodDelete, fmt.Sprintf("/api/v1/cards/%d", cardID), nil).Code)
}
