package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

func TestQueryFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/listings?q=+oak+beam+&category_id=All&location=leeds&min_price=10&max_price=50&sort=price_asc", nil)
	q := queryFromRequest(req)

	assert.Equal(t, "oak beam", q.Term)
	assert.Empty(t, q.Category.ID) // the "All" sentinel means no filter
	assert.Equal(t, "leeds", q.Location)
	assert.Equal(t, 10.0, q.MinPrice)
	assert.Equal(t, 50.0, q.MaxPrice)
	assert.Equal(t, domain.SortPriceAsc, q.Sort)
}

func TestQueryFromRequestDefaults(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	q := queryFromRequest(req)

	assert.Equal(t, domain.SortRecency, q.Sort)
	assert.Zero(t, q.MinPrice)
	assert.Zero(t, q.MaxPrice)
	assert.Equal(t, domain.ScopeAll, q.Scope.Kind)
}

func TestQueryFromRequestBadPriceIgnored(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/listings?min_price=cheap", nil)
	q := queryFromRequest(req)
	assert.Zero(t, q.MinPrice)
}

func TestWriteErrorMapping(t *testing.T) {
	h := &Handler{logger: logger.NewNop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantField  string
	}{
		{"validation", &domain.ValidationError{Field: "title", Reason: "please enter a title for your listing"}, http.StatusBadRequest, "title"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, ""},
		{"listing not found", domain.ErrListingNotFound, http.StatusNotFound, ""},
		{"favorite not found", domain.ErrFavoriteNotFound, http.StatusNotFound, ""},
		{"conflict", domain.ErrConflict, http.StatusConflict, ""},
		{"transient", domain.ErrRemoteTransient, http.StatusServiceUnavailable, ""},
		{"wrapped transient", errors.Join(domain.ErrRemoteTransient, errors.New("i/o timeout")), http.StatusServiceUnavailable, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.writeError(rec, tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}

func TestListingResponseContactGating(t *testing.T) {
	l := &domain.Listing{
		ID:      "lst-1",
		OwnerID: "owner-1",
		Title:   "Oak beam",
		Contact: "07000 000000",
		Status:  domain.StatusAvailable,
	}

	gated := toListingResponse(l, false)
	assert.Empty(t, gated.Contact)

	open := toListingResponse(l, true)
	assert.Equal(t, "07000 000000", open.Contact)

	// Photos always serialize as an array, never null.
	assert.NotNil(t, gated.Photos)
	raw, err := json.Marshal(gated)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"photos":[]`)
	assert.NotContains(t, string(raw), `"contact"`)
}
