package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/poundtrades/catalog-service/internal/adapter/rest/middleware"
	"github.com/poundtrades/catalog-service/internal/listing/domain"
	"github.com/poundtrades/catalog-service/internal/listing/usecase"
	"github.com/poundtrades/catalog-service/internal/platform/logger"
)

const maxPhotoBytes = 10 << 20

type Handler struct {
	catalog   *usecase.CatalogUsecase
	listings  *usecase.ListingUsecase
	photos    *usecase.PhotoUsecase
	favorites *usecase.FavoriteUsecase
	unlocks   *usecase.UnlockUsecase
	logger    *logger.Logger
}

func NewHandler(
	catalog *usecase.CatalogUsecase,
	listings *usecase.ListingUsecase,
	photos *usecase.PhotoUsecase,
	favorites *usecase.FavoriteUsecase,
	unlocks *usecase.UnlockUsecase,
	log *logger.Logger,
) *Handler {
	return &Handler{
		catalog:   catalog,
		listings:  listings,
		photos:    photos,
		favorites: favorites,
		unlocks:   unlocks,
		logger:    log,
	}
}

type listingResponse struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Location     string    `json:"location,omitempty"`
	Contact      string    `json:"contact,omitempty"`
	Photos       []string  `json:"photos"`
	Status       string    `json:"status"`
	Boosted      bool      `json:"boosted,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// toListingResponse renders a listing. Contact information is access-gated:
// it is included only when withContact is true (owner, admin, or a paid
// unlock).
func toListingResponse(l *domain.Listing, withContact bool) *listingResponse {
	resp := &listingResponse{
		ID:           l.ID,
		OwnerID:      l.OwnerID,
		CategoryID:   l.CategoryID,
		CategoryName: l.CategoryName,
		Title:        l.Title,
		Description:  l.Description,
		Price:        l.Price,
		Location:     l.Location,
		Photos:       l.Photos,
		Status:       string(l.Status),
		Boosted:      l.Boosted,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
	if resp.Photos == nil {
		resp.Photos = []string{}
	}
	if withContact {
		resp.Contact = l.Contact
	}
	return resp
}

func toListingResponses(listings []*domain.Listing, withContact bool) []*listingResponse {
	out := make([]*listingResponse, 0, len(listings))
	for _, l := range listings {
		out = append(out, toListingResponse(l, withContact))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps the domain error taxonomy onto HTTP statuses. Validation
// names the offending field; transient failures come back 503 so clients
// know a retry is reasonable.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "you can't complete this action"})
	case errors.Is(err, domain.ErrListingNotFound), errors.Is(err, domain.ErrFavoriteNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "the item changed while you were editing; refresh and retry"})
	case errors.Is(err, domain.ErrRemoteTransient):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "temporarily unavailable, please retry"})
	default:
		h.logger.Error("rest: unhandled error", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// queryFromRequest builds a catalog query from the request's URL parameters.
func queryFromRequest(r *http.Request) domain.Query {
	params := r.URL.Query()
	q := domain.Query{
		Term:     params.Get("q"),
		Location: params.Get("location"),
		Category: domain.CategoryRef{
			ID:   params.Get("category_id"),
			Name: params.Get("category"),
		},
		Sort: domain.SortOrder(params.Get("sort")),
	}
	if v, err := strconv.ParseFloat(params.Get("min_price"), 64); err == nil {
		q.MinPrice = v
	}
	if v, err := strconv.ParseFloat(params.Get("max_price"), 64); err == nil {
		q.MaxPrice = v
	}
	return q.Normalize()
}

// ---- Public reads ----

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := queryFromRequest(r)
	listings, err := h.catalog.Fetch(r.Context(), q)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings, false))
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	listing, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	withContact := false
	if userID, ok := middleware.UserID(r.Context()); ok {
		if userID == listing.OwnerID || middleware.IsAdmin(r.Context()) {
			withContact = true
		} else if unlocked, err := h.unlocks.CheckUnlocked(r.Context(), userID, id); err == nil && unlocked {
			withContact = true
		}
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, withContact))
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	type categoryResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	out := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- Owner operations ----

type createListingRequest struct {
	CategoryID  string  `json:"category_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Location    string  `json:"location"`
	Contact     string  `json:"contact"`
	// Photos are pre-uploaded blob URLs; Images carry inline base64 bytes.
	Photos []string `json:"photos"`
	Images []struct {
		Name string `json:"name"`
		Data []byte `json:"data"`
	} `json:"images"`
	Boosted bool `json:"boosted"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	images := make([]usecase.ImageUpload, 0, len(req.Images))
	for _, img := range req.Images {
		images = append(images, usecase.ImageUpload{Name: img.Name, Data: img.Data})
	}

	listing, err := h.listings.CreateListing(r.Context(), domain.NewListingData{
		OwnerID:     userID,
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Contact:     req.Contact,
		Photos:      req.Photos,
		Boosted:     req.Boosted,
	}, images)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListingResponse(listing, true))
}

type updateListingRequest struct {
	CategoryID  *string  `json:"category_id"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Location    *string  `json:"location"`
	Contact     *string  `json:"contact"`
	Boosted     *bool    `json:"boosted"`
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	listing, err := h.listings.UpdateListing(r.Context(), id, userID, domain.ListingPatch{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Location:    req.Location,
		Contact:     req.Contact,
		Boosted:     req.Boosted,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, true))
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	if err := h.listings.DeleteListing(r.Context(), id, userID, middleware.IsAdmin(r.Context())); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart form"})
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing photo file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read photo"})
		return
	}

	url, err := h.photos.UploadPhoto(r.Context(), id, userID, header.Filename, data)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// ---- Favorites ----

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "listingID")
	userID, _ := middleware.UserID(r.Context())

	favorited, err := h.favorites.ToggleFavorite(r.Context(), userID, listingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}

func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	listings, err := h.catalog.Fetch(r.Context(), domain.Query{
		Scope: domain.Scope{Kind: domain.ScopeFavoritesOf, UserID: userID},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings, false))
}

func (h *Handler) GetMyListings(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	listings, err := h.catalog.Fetch(r.Context(), domain.Query{
		Scope: domain.Scope{Kind: domain.ScopeByOwner, UserID: userID},
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponses(listings, true))
}

// ---- Unlocks ----

func (h *Handler) CheckUnlock(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	unlocked, err := h.unlocks.CheckUnlocked(r.Context(), userID, listingID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"unlocked": unlocked})
}

type recordUnlockRequest struct {
	Amount float64 `json:"amount"`
}

func (h *Handler) RecordUnlock(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	var req recordUnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	unlock, err := h.unlocks.RecordUnlock(r.Context(), userID, listingID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         unlock.ID,
		"listing_id": unlock.ListingID,
		"amount":     unlock.Amount,
		"created_at": unlock.CreatedAt,
	})
}

// ---- Admin ----

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID, _ := middleware.UserID(r.Context())

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	listing, err := h.listings.SetStatus(r.Context(), id, userID, middleware.IsAdmin(r.Context()), domain.ListingStatus(req.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListingResponse(listing, false))
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{
		"total_listings":     stats.TotalListings,
		"available_listings": stats.AvailableListings,
		"pending_listings":   stats.PendingListings,
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
