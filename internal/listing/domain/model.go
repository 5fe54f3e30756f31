package domain

import "time"

// Difficulty grades how demanding a trip to the listed place is.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "Easy"
	DifficultyModerate    Difficulty = "Moderate"
	DifficultyChallenging Difficulty = "Challenging"
	DifficultyExtreme     Difficulty = "Extreme"
)

// IsValid checks if the Difficulty is one of the defined constants.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyModerate, DifficultyChallenging, DifficultyExtreme:
		return true
	}
	return false
}

// Categories is the closed set of listing categories.
var Categories = []string{
	"Nature", "Adventure", "Culture", "Spiritual", "Wildlife", "Relaxation", "Lifestyle", "Themes",
}

// Tags is the closed set of listing tags.
var Tags = []string{
	"Mountains", "Hills", "Lakes", "Rivers", "Waterfalls", "Forests", "National Parks", "Caves",
	"Viewpoints", "Sunrise Spots", "Trekking", "Hiking", "Rafting", "Kayaking", "Paragliding",
	"Bungee Jumping", "Zipline", "Rock Climbing", "Mountain Biking", "Camping", "Canyoning",
	"Heli Tour", "Temples", "Monasteries", "Stupas", "Heritage Sites", "Museums", "Palaces",
	"Festivals", "Local Villages", "Traditions", "Crafts", "Architecture", "Food & Cuisine",
	"Cultural Shows", "Meditation", "Yoga Retreats", "Pilgrimage", "Spiritual Centers",
	"Holy Sites", "Peace Pagodas", "Monastic Life", "Safari", "Bird Watching", "Nature Walks",
	"Conservation Areas", "Eco Tours", "Jungle Walk", "Tiger Spotting", "Elephant Breeding Center",
	"Resorts", "Spa & Wellness", "Hot Springs", "Lakeside Leisure", "Luxury Lodges",
	"Countryside Retreats", "Riverside Camping", "Sunset Views", "Homestays", "Cooking Classes",
	"Tea Gardens", "Local Markets", "Shopping", "Nightlife", "Community Tourism", "Volunteering",
	"Family Travel", "Solo Travel", "Honeymoon", "Luxury Travel", "Budget Travel",
	"Offbeat Experiences", "Photography", "Festival Travel", "Eco Tourism", "Adventure Seekers",
	"Wellness Travel",
}

// IsKnownCategory reports whether c is part of the closed category set.
func IsKnownCategory(c string) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// IsKnownTag reports whether t is part of the closed tag set.
func IsKnownTag(t string) bool {
	for _, known := range Tags {
		if known == t {
			return true
		}
	}
	return false
}

// GeoPoint is a GeoJSON point, coordinates ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// NewGeoPoint builds a GeoJSON point from a longitude/latitude pair.
func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Image is an opaque descriptor handed over by the image-storage collaborator.
type Image struct {
	URL        string `json:"url" bson:"url"`
	ExternalID string `json:"externalId" bson:"external_id"`
	Format     string `json:"format" bson:"format"`
}

// Listing is a point of interest with denormalized rating and like aggregates.
// AverageRating and RatingsCount are owned by the review usecase and must only
// be mutated through it; LikesCount and LikedBy only through the like operations.
type Listing struct {
	ID                 string     `json:"id"`
	Author             string     `json:"author"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Categories         []string   `json:"categories"`
	Tags               []string   `json:"tags"`
	Location           GeoPoint   `json:"location"`
	PhysicalAddress    string     `json:"physicalAddress,omitempty"`
	Images             []Image    `json:"images"`
	PermitsRequired    bool       `json:"permitsRequired"`
	PermitsDescription string     `json:"permitsDescription,omitempty"`
	BestSeason         string     `json:"bestSeason,omitempty"`
	Difficulty         Difficulty `json:"difficulty,omitempty"`
	ExtraAdvice        string     `json:"extraAdvice,omitempty"`
	IsVerified         bool       `json:"isVerified"`
	AverageRating      float64    `json:"averageRating"`
	RatingsCount       int64      `json:"ratingsCount"`
	LikesCount         int64      `json:"likesCount"`
	LikedBy            []string   `json:"-"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// LikedByUser reports whether userID is present in the listing's liker set.
func (l *Listing) LikedByUser(userID string) bool {
	if userID == "" {
		return false
	}
	for _, id := range l.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// TripTips is the optional trip metadata block updatable as a unit.
type TripTips struct {
	PermitsRequired    *bool       `json:"permitsRequired,omitempty"`
	PermitsDescription *string     `json:"permitsDescription,omitempty"`
	BestSeason         *string     `json:"bestSeason,omitempty"`
	Difficulty         *Difficulty `json:"difficulty,omitempty"`
	ExtraAdvice        *string     `json:"extraAdvice,omitempty"`
}

// ImageRemovalError records a best-effort external cleanup failure during
// listing deletion. It is diagnostic metadata, never a reason to fail the delete.
type ImageRemovalError struct {
	ExternalID string `json:"externalId"`
	Reason     string `json:"reason"`
}

// DeleteResult is the outcome of a listing delete, including any non-fatal
// image removal diagnostics.
type DeleteResult struct {
	Listing       *Listing            `json:"listing"`
	RemovalErrors []ImageRemovalError `json:"imageRemovalErrors,omitempty"`
}

// LikeOutcome describes what a like/unlike call actually did.
type LikeOutcome struct {
	Listing            *Listing
	AlreadyLiked       bool // like was a no-op: identity already in the liker set
	NotPreviouslyLiked bool // unlike was a no-op: identity was never in the liker set
	CountWasZero       bool // identity was present but the counter had already hit the floor
}
