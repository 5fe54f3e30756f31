package usecase

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/listing/domain"
	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// EventPublisher publishes domain events; failures are logged and never
// escalate to failing the parent operation.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Mailer sends the outbound notifications this service produces.
type Mailer interface {
	SendListingCreated(toEmail, listingName string) error
	SendSuggestion(listingID, listingName, field, suggestion, reporterName, reporterEmail string) error
}

// ListingUsecase implements the listing CRUD paths, including the best-effort
// external image cleanup on delete.
type ListingUsecase struct {
	repo    domain.ListingRepository
	cache   domain.ListingCache
	storage domain.ImageStorage
	events  EventPublisher
	mailer  Mailer
	logger  *logger.Logger
}

// NewListingUsecase creates a new ListingUsecase.
func NewListingUsecase(repo domain.ListingRepository, cache domain.ListingCache, storage domain.ImageStorage, events EventPublisher, mailer Mailer, log *logger.Logger) *ListingUsecase {
	return &ListingUsecase{
		repo:    repo,
		cache:   cache,
		storage: storage,
		events:  events,
		mailer:  mailer,
		logger:  log.Named("ListingUsecase"),
	}
}

// ImageUpload is one inbound image file prior to external storage.
type ImageUpload struct {
	FileName string
	Data     []byte
}

// CreateListingInput holds the validated-by-construction create parameters.
type CreateListingInput struct {
	Author             string
	AuthorEmail        string
	Name               string
	Description        string
	Categories         []string
	Tags               []string
	Latitude           float64
	Longitude          float64
	PermitsRequired    bool
	PermitsDescription string
	BestSeason         string
	Difficulty         domain.Difficulty
	ExtraAdvice        string
	PhysicalAddress    string
	Images             []ImageUpload
}

func (in *CreateListingInput) validate() error {
	if in.Author == "" {
		return fmt.Errorf("%w: author is required", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(in.Name); n < 3 || n > 100 {
		return fmt.Errorf("%w: name must be between 3 and 100 characters", domain.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(in.Description); n < 10 || n > 5000 {
		return fmt.Errorf("%w: description must be between 10 and 5000 characters", domain.ErrInvalidInput)
	}
	if len(in.Categories) == 0 {
		return fmt.Errorf("%w: at least one category is required", domain.ErrInvalidInput)
	}
	for _, c := range in.Categories {
		if !domain.IsKnownCategory(c) {
			return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, c)
		}
	}
	for _, t := range in.Tags {
		if !domain.IsKnownTag(t) {
			return fmt.Errorf("%w: unknown tag %q", domain.ErrInvalidInput, t)
		}
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrInvalidInput)
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrInvalidInput)
	}
	if in.Difficulty != "" && !in.Difficulty.IsValid() {
		return fmt.Errorf("%w: difficulty must be one of Easy, Moderate, Challenging, Extreme", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.PermitsDescription) > 1000 {
		return fmt.Errorf("%w: permitsDescription must be at most 1000 characters", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.BestSeason) > 100 {
		return fmt.Errorf("%w: bestSeason must be at most 100 characters", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.ExtraAdvice) > 2000 {
		return fmt.Errorf("%w: extraAdvice must be at most 2000 characters", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(in.PhysicalAddress) > 200 {
		return fmt.Errorf("%w: physicalAddress must be at most 200 characters", domain.ErrInvalidInput)
	}
	return nil
}

// CreateListing validates the input, pushes any images to external storage,
// persists the listing and fires the created event and email best-effort.
func (uc *ListingUsecase) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	uc.logger.Info("Creating listing", zap.String("author", in.Author), zap.String("name", in.Name))
	if err := in.validate(); err != nil {
		uc.logger.Warn("Rejected listing input", zap.Error(err))
		return nil, err
	}

	images := make([]domain.Image, 0, len(in.Images))
	for _, upload := range in.Images {
		img, err := uc.storage.Upload(ctx, upload.FileName, upload.Data)
		if err != nil {
			uc.logger.Error("Image upload failed", zap.String("file", upload.FileName), zap.Error(err))
			return nil, fmt.Errorf("image upload failed for %s: %w", upload.FileName, err)
		}
		images = append(images, *img)
	}

	now := time.Now().UTC()
	listing := &domain.Listing{
		Author:             in.Author,
		Name:               in.Name,
		Description:        in.Description,
		Categories:         in.Categories,
		Tags:               in.Tags,
		Location:           domain.NewGeoPoint(in.Longitude, in.Latitude),
		PhysicalAddress:    in.PhysicalAddress,
		Images:             images,
		PermitsRequired:    in.PermitsRequired,
		PermitsDescription: in.PermitsDescription,
		BestSeason:         in.BestSeason,
		Difficulty:         in.Difficulty,
		ExtraAdvice:        in.ExtraAdvice,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := uc.repo.Create(ctx, listing); err != nil {
		uc.logger.Error("Failed to persist listing", zap.Error(err))
		return nil, err
	}

	if err := uc.events.Publish(ctx, "listing.created", map[string]interface{}{
		"listing_id": listing.ID,
		"author":     listing.Author,
		"name":       listing.Name,
		"created_at": listing.CreatedAt.Format(time.RFC3339Nano),
	}); err != nil {
		uc.logger.Warn("Failed to publish listing.created event", zap.Error(err))
	}
	if in.AuthorEmail != "" {
		if err := uc.mailer.SendListingCreated(in.AuthorEmail, listing.Name); err != nil {
			uc.logger.Warn("Failed to send listing-created email", zap.Error(err))
		}
	}

	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID))
	return listing, nil
}

// GetListing fetches one listing, cache-aside, and reports whether the
// calling identity already liked it.
func (uc *ListingUsecase) GetListing(ctx context.Context, id, userID string) (*domain.Listing, bool, error) {
	if cached, err := uc.cache.GetListing(ctx, id); err != nil {
		uc.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
	} else if cached != nil {
		return cached, cached.LikedByUser(userID), nil
	}

	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := uc.cache.SetListing(ctx, listing); err != nil {
		uc.logger.Warn("Listing cache write failed", zap.String("listing_id", id), zap.Error(err))
	}
	return listing, listing.LikedByUser(userID), nil
}

// DeleteListing removes the listing and then tries to remove each stored
// image from external storage. Removal failures are collected as diagnostics
// on the result; they never fail the delete.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, id string) (*domain.DeleteResult, error) {
	uc.logger.Info("Deleting listing", zap.String("listing_id", id))
	deleted, err := uc.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)

	result := &domain.DeleteResult{Listing: deleted}
	for _, img := range deleted.Images {
		if img.ExternalID == "" {
			continue
		}
		if err := uc.storage.Remove(ctx, img.ExternalID); err != nil {
			uc.logger.Warn("Image removal failed during listing delete",
				zap.String("listing_id", id), zap.String("external_id", img.ExternalID), zap.Error(err))
			result.RemovalErrors = append(result.RemovalErrors, domain.ImageRemovalError{
				ExternalID: img.ExternalID,
				Reason:     err.Error(),
			})
		}
	}

	if err := uc.events.Publish(ctx, "listing.deleted", map[string]interface{}{"listing_id": id}); err != nil {
		uc.logger.Warn("Failed to publish listing.deleted event", zap.Error(err))
	}
	return result, nil
}

// authorize lets the owner or an admin through and rejects everyone else.
func (uc *ListingUsecase) authorize(ctx context.Context, id, actorID string, isAdmin bool) error {
	if isAdmin {
		return nil
	}
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.Author != actorID {
		uc.logger.Warn("Forbidden listing mutation",
			zap.String("listing_id", id), zap.String("owner", listing.Author), zap.String("actor", actorID))
		return domain.ErrForbidden
	}
	return nil
}

// UpdateTitle renames a listing.
func (uc *ListingUsecase) UpdateTitle(ctx context.Context, id, actorID string, isAdmin bool, title string) (*domain.Listing, error) {
	if n := utf8.RuneCountInString(title); n < 3 || n > 100 {
		return nil, fmt.Errorf("%w: title must be between 3 and 100 characters", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	return uc.applyFields(ctx, id, map[string]interface{}{"name": title})
}

// UpdateDescription replaces the description text.
func (uc *ListingUsecase) UpdateDescription(ctx context.Context, id, actorID string, isAdmin bool, description string) (*domain.Listing, error) {
	if n := utf8.RuneCountInString(description); n < 10 || n > 5000 {
		return nil, fmt.Errorf("%w: description must be between 10 and 5000 characters", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	return uc.applyFields(ctx, id, map[string]interface{}{"description": description})
}

// UpdateTips patches the trip metadata block; nil fields stay untouched.
func (uc *ListingUsecase) UpdateTips(ctx context.Context, id, actorID string, isAdmin bool, tips domain.TripTips) (*domain.Listing, error) {
	fields := map[string]interface{}{}
	if tips.PermitsRequired != nil {
		fields["permits_required"] = *tips.PermitsRequired
	}
	if tips.PermitsDescription != nil {
		if utf8.RuneCountInString(*tips.PermitsDescription) > 1000 {
			return nil, fmt.Errorf("%w: permitsDescription must be at most 1000 characters", domain.ErrInvalidInput)
		}
		fields["permits_description"] = *tips.PermitsDescription
	}
	if tips.BestSeason != nil {
		if utf8.RuneCountInString(*tips.BestSeason) > 100 {
			return nil, fmt.Errorf("%w: bestSeason must be at most 100 characters", domain.ErrInvalidInput)
		}
		fields["best_season"] = *tips.BestSeason
	}
	if tips.Difficulty != nil {
		if !tips.Difficulty.IsValid() {
			return nil, fmt.Errorf("%w: difficulty must be one of Easy, Moderate, Challenging, Extreme", domain.ErrInvalidInput)
		}
		fields["difficulty"] = string(*tips.Difficulty)
	}
	if tips.ExtraAdvice != nil {
		if utf8.RuneCountInString(*tips.ExtraAdvice) > 2000 {
			return nil, fmt.Errorf("%w: extraAdvice must be at most 2000 characters", domain.ErrInvalidInput)
		}
		fields["extra_advice"] = *tips.ExtraAdvice
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no tip fields supplied", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	return uc.applyFields(ctx, id, fields)
}

// UpdateLocation moves the listing's geographic point.
func (uc *ListingUsecase) UpdateLocation(ctx context.Context, id, actorID string, isAdmin bool, latitude, longitude float64) (*domain.Listing, error) {
	if latitude < -90 || latitude > 90 {
		return nil, fmt.Errorf("%w: latitude must be between -90 and 90", domain.ErrInvalidInput)
	}
	if longitude < -180 || longitude > 180 {
		return nil, fmt.Errorf("%w: longitude must be between -180 and 180", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	return uc.applyFields(ctx, id, map[string]interface{}{"location": domain.NewGeoPoint(longitude, latitude)})
}

// UpdateTagsAndCategories replaces the tag and/or category sets.
func (uc *ListingUsecase) UpdateTagsAndCategories(ctx context.Context, id, actorID string, isAdmin bool, categories, tags []string) (*domain.Listing, error) {
	fields := map[string]interface{}{}
	if categories != nil {
		if len(categories) == 0 {
			return nil, fmt.Errorf("%w: at least one category is required", domain.ErrInvalidInput)
		}
		for _, c := range categories {
			if !domain.IsKnownCategory(c) {
				return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidInput, c)
			}
		}
		fields["categories"] = categories
	}
	if tags != nil {
		for _, t := range tags {
			if !domain.IsKnownTag(t) {
				return nil, fmt.Errorf("%w: unknown tag %q", domain.ErrInvalidInput, t)
			}
		}
		fields["tags"] = tags
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: categories or tags must be supplied", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	return uc.applyFields(ctx, id, fields)
}

// AddImages uploads the files and appends their descriptors to the listing.
func (uc *ListingUsecase) AddImages(ctx context.Context, id, actorID string, isAdmin bool, uploads []ImageUpload) (*domain.Listing, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: at least one image is required", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	images := make([]domain.Image, 0, len(uploads))
	for _, upload := range uploads {
		img, err := uc.storage.Upload(ctx, upload.FileName, upload.Data)
		if err != nil {
			uc.logger.Error("Image upload failed", zap.String("file", upload.FileName), zap.Error(err))
			return nil, fmt.Errorf("image upload failed for %s: %w", upload.FileName, err)
		}
		images = append(images, *img)
	}
	listing, err := uc.repo.AddImages(ctx, id, images)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	return listing, nil
}

// RemoveImage detaches the descriptor and then removes the external object.
func (uc *ListingUsecase) RemoveImage(ctx context.Context, id, actorID string, isAdmin bool, externalID string) (*domain.Listing, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: externalId is required", domain.ErrInvalidInput)
	}
	if err := uc.authorize(ctx, id, actorID, isAdmin); err != nil {
		return nil, err
	}
	listing, err := uc.repo.RemoveImage(ctx, id, externalID)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	if err := uc.storage.Remove(ctx, externalID); err != nil {
		uc.logger.Warn("External image removal failed", zap.String("external_id", externalID), zap.Error(err))
	}
	return listing, nil
}

// SuggestEdit emails a field-level suggestion about a listing to the
// configured inbox. The listing must exist.
func (uc *ListingUsecase) SuggestEdit(ctx context.Context, id, field, suggestion, reporterName, reporterEmail string) error {
	if field == "" || suggestion == "" {
		return fmt.Errorf("%w: field and suggestion are required", domain.ErrInvalidInput)
	}
	listing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.mailer.SendSuggestion(listing.ID, listing.Name, field, suggestion, reporterName, reporterEmail); err != nil {
		uc.logger.Error("Failed to send suggestion email", zap.String("listing_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (uc *ListingUsecase) applyFields(ctx context.Context, id string, fields map[string]interface{}) (*domain.Listing, error) {
	listing, err := uc.repo.UpdateFields(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, id)
	return listing, nil
}

func (uc *ListingUsecase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.DeleteListing(ctx, id); err != nil {
		uc.logger.Warn("Listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}
