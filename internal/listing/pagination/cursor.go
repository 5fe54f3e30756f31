package pagination

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trailpoint/listing-service/internal/listing/domain"
)

// Cursor carries the sort-key values of the last-seen row. Which fields are
// populated depends on the sort mode the token was issued under; the codec
// itself only guarantees structural round-tripping.
type Cursor struct {
	ID             string     `json:"id"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
	AverageRating  *float64   `json:"averageRating,omitempty"`
	LikesCount     *int64     `json:"likesCount,omitempty"`
	DistanceMeters *float64   `json:"distanceMeters,omitempty"`
}

// Encode serializes the cursor into a URL-safe opaque token.
func Encode(c *Cursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decode parses a token back into a cursor. Undecodable input and payloads
// that are not a JSON object are rejected with domain.ErrInvalidCursor; no
// semantic validation of the fields happens here.
func Decode(token string) (*Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: not base64url", domain.ErrInvalidCursor)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", domain.ErrInvalidCursor)
	}
	var c Cursor
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}
	return &c, nil
}

// FromFeedItem derives the cursor for the row that closed a page, carrying
// exactly the fields the given sort mode orders by. Absent numeric sort keys
// default to zero.
func FromFeedItem(item *domain.FeedItem, sort domain.SortMode) *Cursor {
	c := &Cursor{ID: item.ID.Hex()}
	createdAt := item.CreatedAt
	c.CreatedAt = &createdAt

	switch sort {
	case domain.SortRatingDesc, domain.SortRatingAsc:
		rating := item.AverageRating
		c.AverageRating = &rating
	case domain.SortLikesDesc, domain.SortLikesAsc:
		likes := item.LikesCount
		c.LikesCount = &likes
	case domain.SortDistance:
		var dist float64
		if item.DistanceMeters != nil {
			dist = *item.DistanceMeters
		}
		c.DistanceMeters = &dist
		rating := item.AverageRating
		c.AverageRating = &rating
	}
	return c
}

func (c *Cursor) createdAtOrZero() time.Time {
	if c.CreatedAt == nil {
		return time.Time{}
	}
	return *c.CreatedAt
}

func (c *Cursor) averageRatingOrZero() float64 {
	if c.AverageRating == nil {
		return 0
	}
	return *c.AverageRating
}

func (c *Cursor) likesCountOrZero() int64 {
	if c.LikesCount == nil {
		return 0
	}
	return *c.LikesCount
}

func (c *Cursor) distanceMetersOrZero() float64 {
	if c.DistanceMeters == nil {
		return 0
	}
	return *c.DistanceMeters
}
