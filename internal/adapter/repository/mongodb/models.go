package mongodb

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	listingdomain "github.com/trailpoint/listing-service/internal/listing/domain"
	reviewdomain "github.com/trailpoint/listing-service/internal/review/domain"
)

// listingDocument is the MongoDB shape of a listing. Field names here are
// what the feed pipeline, indexes and cursor boundaries reference.
type listingDocument struct {
	ID                 primitive.ObjectID     `bson:"_id,omitempty"`
	Author             string                 `bson:"author"`
	Name               string                 `bson:"name"`
	Description        string                 `bson:"description"`
	Categories         []string               `bson:"categories"`
	Tags               []string               `bson:"tags"`
	Location           listingdomain.GeoPoint `bson:"location"`
	PhysicalAddress    string                 `bson:"physical_address,omitempty"`
	Images             []listingdomain.Image  `bson:"images"`
	PermitsRequired    bool                   `bson:"permits_required"`
	PermitsDescription string                 `bson:"permits_description,omitempty"`
	BestSeason         string                 `bson:"best_season,omitempty"`
	Difficulty         string                 `bson:"difficulty,omitempty"`
	ExtraAdvice        string                 `bson:"extra_advice,omitempty"`
	IsVerified         bool                   `bson:"is_verified"`
	AverageRating      float64                `bson:"average_rating"`
	RatingsCount       int64                  `bson:"ratings_count"`
	LikesCount         int64                  `bson:"likes_count"`
	LikedBy            []string               `bson:"liked_by"`
	CreatedAt          time.Time              `bson:"created_at"`
	UpdatedAt          time.Time              `bson:"updated_at"`
}

func (d *listingDocument) toDomain() *listingdomain.Listing {
	return &listingdomain.Listing{
		ID:                 d.ID.Hex(),
		Author:             d.Author,
		Name:               d.Name,
		Description:        d.Description,
		Categories:         d.Categories,
		Tags:               d.Tags,
		Location:           d.Location,
		PhysicalAddress:    d.PhysicalAddress,
		Images:             d.Images,
		PermitsRequired:    d.PermitsRequired,
		PermitsDescription: d.PermitsDescription,
		BestSeason:         d.BestSeason,
		Difficulty:         listingdomain.Difficulty(d.Difficulty),
		ExtraAdvice:        d.ExtraAdvice,
		IsVerified:         d.IsVerified,
		AverageRating:      d.AverageRating,
		RatingsCount:       d.RatingsCount,
		LikesCount:         d.LikesCount,
		LikedBy:            d.LikedBy,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func fromDomainListing(l *listingdomain.Listing) (*listingDocument, error) {
	doc := &listingDocument{
		Author:             l.Author,
		Name:               l.Name,
		Description:        l.Description,
		Categories:         l.Categories,
		Tags:               l.Tags,
		Location:           l.Location,
		PhysicalAddress:    l.PhysicalAddress,
		Images:             l.Images,
		PermitsRequired:    l.PermitsRequired,
		PermitsDescription: l.PermitsDescription,
		BestSeason:         l.BestSeason,
		Difficulty:         string(l.Difficulty),
		ExtraAdvice:        l.ExtraAdvice,
		IsVerified:         l.IsVerified,
		AverageRating:      l.AverageRating,
		RatingsCount:       l.RatingsCount,
		LikesCount:         l.LikesCount,
		LikedBy:            l.LikedBy,
		CreatedAt:          l.CreatedAt,
		UpdatedAt:          l.UpdatedAt,
	}
	if doc.Images == nil {
		doc.Images = []listingdomain.Image{}
	}
	if doc.LikedBy == nil {
		doc.LikedBy = []string{}
	}
	if l.ID != "" {
		oid, err := primitive.ObjectIDFromHex(l.ID)
		if err != nil {
			return nil, err
		}
		doc.ID = oid
	}
	return doc, nil
}

// reviewDocument is the MongoDB shape of a review.
type reviewDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ListingID    primitive.ObjectID `bson:"listing_id"`
	ReviewerName string             `bson:"reviewer_name"`
	ReviewerID   string             `bson:"reviewer_id,omitempty"`
	Rating       int32              `bson:"rating"`
	Message      string             `bson:"message,omitempty"`
	IsPublic     bool               `bson:"is_public"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (d *reviewDocument) toDomain() *reviewdomain.Review {
	return &reviewdomain.Review{
		ID:           d.ID,
		ListingID:    d.ListingID,
		ReviewerName: d.ReviewerName,
		ReviewerID:   d.ReviewerID,
		Rating:       d.Rating,
		Message:      d.Message,
		IsPublic:     d.IsPublic,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func fromDomainReview(r *reviewdomain.Review) *reviewDocument {
	return &reviewDocument{
		ID:           r.ID,
		ListingID:    r.ListingID,
		ReviewerName: r.ReviewerName,
		ReviewerID:   r.ReviewerID,
		Rating:       r.Rating,
		Message:      r.Message,
		IsPublic:     r.IsPublic,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
