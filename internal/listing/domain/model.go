package domain

import "time"

type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusPending   ListingStatus = "pending"
	StatusSuspended ListingStatus = "suspended"
)

// ParseStatus collapses the status vocabulary of older data sources onto the
// canonical tri-state enum. Unknown literals come back as pending so a bad row
// never leaks into public views.
func ParseStatus(raw string) ListingStatus {
	switch raw {
	case "available", "active":
		return StatusAvailable
	case "pending":
		return StatusPending
	case "suspended", "removed", "inactive":
		return StatusSuspended
	default:
		return StatusPending
	}
}

type Listing struct {
	ID           string
	OwnerID      string
	CategoryID   string
	CategoryName string
	Title        string
	Description  string
	Price        float64
	Location     string
	Contact      string
	Photos       []string
	Status       ListingStatus
	Boosted      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewListingData is the owner-supplied portion of a listing. ID, status and
// timestamps are assigned by the repository on insert.
type NewListingData struct {
	OwnerID     string
	CategoryID  string
	Title       string
	Description string
	Price       float64
	Location    string
	Contact     string
	Photos      []string
	Boosted     bool
}

// ListingPatch carries the fields an owner may edit. Nil means "leave as is".
type ListingPatch struct {
	CategoryID  *string
	Title       *string
	Description *string
	Price       *float64
	Location    *string
	Contact     *string
	Boosted     *bool
}

type Category struct {
	ID          string
	Name        string
	Description string
}

type Favorite struct {
	ID        string
	UserID    string
	ListingID string
	CreatedAt time.Time
}

type Unlock struct {
	ID        string
	UserID    string
	ListingID string
	Amount    float64
	CreatedAt time.Time
}

// Stats is the admin dashboard roll-up.
type Stats struct {
	TotalListings     int64
	AvailableListings int64
	PendingListings   int64
}

// ChangeEvent is one entry of the change-notification feed. Origin identifies
// the process that performed the write so a node can skip its own echoes.
type ChangeEvent struct {
	Table   string    `json:"table"`
	Op      string    `json:"op"`
	ID      string    `json:"id"`
	OwnerID string    `json:"owner_id,omitempty"`
	Origin  string    `json:"origin,omitempty"`
	At      time.Time `json:"at"`
}

const (
	TableListings  = "listings"
	TableFavorites = "favorites"
	TableUnlocks   = "unlocks"

	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)
