package domain

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SortMode selects the total order of a listing feed page.
type SortMode string

const (
	SortNewest     SortMode = "newest"
	SortRatingDesc SortMode = "rating_desc"
	SortRatingAsc  SortMode = "rating_asc"
	SortLikesDesc  SortMode = "likes_desc"
	SortLikesAsc   SortMode = "likes_asc"
	SortDistance   SortMode = "distance"
)

// ParseSortMode maps a wire value onto a SortMode.
func ParseSortMode(s string) (SortMode, bool) {
	switch SortMode(s) {
	case SortNewest, SortRatingDesc, SortRatingAsc, SortLikesDesc, SortLikesAsc, SortDistance:
		return SortMode(s), true
	}
	return "", false
}

const (
	// DefaultFeedLimit is the page size applied when the client sends none.
	DefaultFeedLimit = 20
	// MaxFeedLimit caps the page size a client may request.
	MaxFeedLimit = 100
	// MaxDistanceKm caps the distance filter radius.
	MaxDistanceKm = 250
	// DefaultGeoBoundKm bounds a geo-nearest stage that has no distance filter.
	DefaultGeoBoundKm = 10000
)

// FeedFilter is a validated filter/sort specification for one feed page.
// Lat/Lng are pointers because zero is a meaningful coordinate.
type FeedFilter struct {
	Categories   []string
	Tags         []string
	MinRating    float64
	Difficulty   Difficulty
	VerifiedOnly bool
	Lat          *float64
	Lng          *float64
	DistanceKm   float64
	Sort         SortMode
	Limit        int64
	Cursor       string
}

// HasGeoPoint reports whether both coordinates were supplied.
func (f *FeedFilter) HasGeoPoint() bool {
	return f.Lat != nil && f.Lng != nil
}

// GeoActive reports whether the feed pipeline needs a geo-nearest stage.
func (f *FeedFilter) GeoActive() bool {
	return (f.HasGeoPoint() && f.DistanceKm > 0) || f.Sort == SortDistance
}

// Validate rejects malformed filter combinations before any store access.
func (f *FeedFilter) Validate() error {
	if f.Limit < 1 || f.Limit > MaxFeedLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, MaxFeedLimit)
	}
	if f.MinRating < 0 || f.MinRating > 5 {
		return fmt.Errorf("%w: minRating must be between 0 and 5", ErrInvalidInput)
	}
	if f.DistanceKm < 0 || f.DistanceKm > MaxDistanceKm {
		return fmt.Errorf("%w: distanceKm must be between 0 and %d", ErrInvalidInput, MaxDistanceKm)
	}
	if f.Difficulty != "" && !f.Difficulty.IsValid() {
		return fmt.Errorf("%w: difficulty must be one of Easy, Moderate, Challenging, Extreme", ErrInvalidInput)
	}
	if f.Lat != nil && (*f.Lat < -90 || *f.Lat > 90) {
		return fmt.Errorf("%w: lat must be between -90 and 90", ErrInvalidInput)
	}
	if f.Lng != nil && (*f.Lng < -180 || *f.Lng > 180) {
		return fmt.Errorf("%w: lng must be between -180 and 180", ErrInvalidInput)
	}
	if f.Sort == SortDistance && !f.HasGeoPoint() {
		return fmt.Errorf("%w: sort=distance requires lat and lng", ErrInvalidInput)
	}
	return nil
}

// FeedItem is the projected shape of one feed row. DistanceMeters is set only
// when the geo-nearest stage ran.
type FeedItem struct {
	ID              primitive.ObjectID `json:"id" bson:"_id"`
	Name            string             `json:"name" bson:"name"`
	Description     string             `json:"description" bson:"description"`
	Categories      []string           `json:"categories" bson:"categories"`
	Tags            []string           `json:"tags" bson:"tags"`
	Images          []Image            `json:"images" bson:"images"`
	AverageRating   float64            `json:"averageRating" bson:"average_rating"`
	RatingsCount    int64              `json:"ratingsCount" bson:"ratings_count"`
	LikesCount      int64              `json:"likesCount" bson:"likes_count"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
	PhysicalAddress string             `json:"physicalAddress,omitempty" bson:"physical_address,omitempty"`
	Location        GeoPoint           `json:"location" bson:"location"`
	DistanceMeters  *float64           `json:"distanceMeters,omitempty" bson:"distance_meters,omitempty"`
}

// FeedPage is one page of feed results plus the keyset continuation state.
type FeedPage struct {
	Data        []FeedItem `json:"data"`
	NextCursor  *string    `json:"nextCursor"`
	HasNextPage bool       `json:"hasNextPage"`
}
