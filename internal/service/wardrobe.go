// This file implements the wardrobe service: CRUD over a user's clothing
// items, the cumulative wardrobe_items quota gate on create, and photo
// upload with thumbnail generation.
package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebsouthern/attire/internal/domain"
	"github.com/calebsouthern/attire/internal/metrics"
	"github.com/calebsouthern/attire/internal/repository"
	"github.com/calebsouthern/attire/internal/storage"
)

// MaxPhotoSize is the maximum accepted wardrobe photo upload (10MB).
const MaxPhotoSize = 10 * 1024 * 1024

// PhotoURLTTL is how long presigned photo URLs stay valid.
const PhotoURLTTL = 1 * time.Hour

// WardrobeService manages a user's wardrobe items.
type WardrobeService interface {
	Create(ctx context.Context, user *domain.User, params domain.CreateWardrobeItemParams) (*domain.WardrobeItem, error)
	Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.WardrobeItem, error)
	List(ctx context.Context, user *domain.User, category domain.ItemCategory) ([]*domain.WardrobeItem, error)
	Update(ctx context.Context, user *domain.User, params domain.UpdateWardrobeItemParams) (*domain.WardrobeItem, error)
	Delete(ctx context.Context, user *domain.User, id uuid.UUID) error

	// UploadPhoto stores a photo for an item, replaces any previous one,
	// and generates a thumbnail.
	UploadPhoto(ctx context.Context, user *domain.User, itemID uuid.UUID, filename string, data io.Reader) (*domain.WardrobeItem, error)

	// PhotoURL resolves an item's stored photo key into an accessible URL.
	PhotoURL(ctx context.Context, key string) (string, error)

	// SummarizeForPrompt builds a short wardrobe description for the
	// stylist prompt.
	SummarizeForPrompt(ctx context.Context, user *domain.User) (string, error)
}

type wardrobeService struct {
	repo        *repository.WardrobeRepo
	entitlement EntitlementService
	store       storage.Storage
	thumbnails  ThumbnailProcessor
	logger      *slog.Logger
}

// NewWardrobeService creates a WardrobeService.
func NewWardrobeService(repo *repository.WardrobeRepo, entitlement EntitlementService, store storage.Storage, thumbnails ThumbnailProcessor, logger *slog.Logger) WardrobeService {
	return &wardrobeService{
		repo:        repo,
		entitlement: entitlement,
		store:       store,
		thumbnails:  thumbnails,
		logger:      logger,
	}
}

func (s *wardrobeService) Create(ctx context.Context, user *domain.User, params domain.CreateWardrobeItemParams) (*domain.WardrobeItem, error) {
	const op = "WardrobeService.Create"

	params.UserID = user.ID
	params.Name = strings.TrimSpace(params.Name)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	if err := s.entitlement.CheckCumulative(ctx, user, domain.ActionWardrobeItems); err != nil {
		return nil, err
	}

	item, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create wardrobe item")
	}

	metrics.WardrobeItemsCreated.Inc()
	s.logger.Info("wardrobe item created", "user_id", user.ID, "item_id", item.ID, "category", item.Category)
	return item, nil
}

func (s *wardrobeService) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.WardrobeItem, error) {
	const op = "WardrobeService.Get"

	item, err := s.repo.GetByID(ctx, user.ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "wardrobe item", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve wardrobe item")
	}
	return item, nil
}

func (s *wardrobeService) List(ctx context.Context, user *domain.User, category domain.ItemCategory) ([]*domain.WardrobeItem, error) {
	const op = "WardrobeService.List"

	if category != "" && !domain.ValidItemCategory(category) {
		return nil, domain.Invalid(op, "Unknown category")
	}

	items, err := s.repo.ListByUser(ctx, user.ID, category)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list wardrobe items")
	}
	return items, nil
}

func (s *wardrobeService) Update(ctx context.Context, user *domain.User, params domain.UpdateWardrobeItemParams) (*domain.WardrobeItem, error) {
	const op = "WardrobeService.Update"

	params.UserID = user.ID
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return nil, domain.NewValidationError(op, "name", "Name is required")
	}
	if !domain.ValidItemCategory(params.Category) {
		return nil, domain.NewValidationError(op, "category", "Choose a valid category")
	}
	if params.Season != "" && !domain.ValidSeason(params.Season) {
		return nil, domain.NewValidationError(op, "season", "Choose a valid season")
	}

	item, err := s.repo.Update(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "wardrobe item", params.ID.String())
		}
		return nil, domain.Internal(err, op, "Failed to update wardrobe item")
	}
	return item, nil
}

func (s *wardrobeService) Delete(ctx context.Context, user *domain.User, id uuid.UUID) error {
	const op = "WardrobeService.Delete"

	item, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "wardrobe item", id.String())
		}
		return domain.Internal(err, op, "Failed to delete wardrobe item")
	}

	// Deleting an item frees its cumulative quota immediately; the photo
	// cleanup is best-effort.
	for _, key := range []string{item.PhotoKey, item.ThumbKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete photo object", "key", key, "error", err)
		}
	}

	s.logger.Info("wardrobe item deleted", "user_id", user.ID, "item_id", id)
	return nil
}

func (s *wardrobeService) UploadPhoto(ctx context.Context, user *domain.User, itemID uuid.UUID, filename string, data io.Reader) (*domain.WardrobeItem, error) {
	const op = "WardrobeService.UploadPhoto"

	item, err := s.Get(ctx, user, itemID)
	if err != nil {
		return nil, err
	}

	// Buffer the upload so we can validate it and read it twice (original
	// plus thumbnail source).
	raw, err := io.ReadAll(io.LimitReader(data, MaxPhotoSize+1))
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to read upload")
	}
	if len(raw) == 0 {
		return nil, domain.Invalid(op, "Photo is empty")
	}
	if len(raw) > MaxPhotoSize {
		return nil, domain.Errorf(domain.ETOOLARGE, op, "Photo exceeds the %dMB limit", MaxPhotoSize/(1024*1024))
	}

	contentType := storage.DetectContentType("", filename, bytes.NewReader(raw))
	if !storage.IsAllowedImageType(contentType) {
		return nil, domain.Invalid(op, "Photo must be a JPEG, PNG, GIF, or WebP image")
	}

	thumb, _, _, err := s.thumbnails.GenerateThumbnail(bytes.NewReader(raw), ThumbnailMaxWidth, ThumbnailMaxHeight)
	if err != nil {
		metrics.PhotosUploaded.WithLabelValues("error").Inc()
		return nil, domain.Wrap(err, domain.EINVALID, op, "Could not process the photo")
	}

	photoKey := storage.WardrobePhotoKey(user.ID, filename)
	thumbKey := storage.WardrobeThumbKey(user.ID)

	if err := s.store.Put(ctx, photoKey, bytes.NewReader(raw), storage.PutOptions{
		ContentType: contentType,
		MaxSize:     MaxPhotoSize,
	}); err != nil {
		metrics.PhotosUploaded.WithLabelValues("error").Inc()
		return nil, domain.Internal(err, op, "Failed to store photo")
	}
	if err := s.store.Put(ctx, thumbKey, bytes.NewReader(thumb), storage.PutOptions{
		ContentType: "image/jpeg",
	}); err != nil {
		metrics.PhotosUploaded.WithLabelValues("error").Inc()
		// Don't leave the original orphaned.
		if delErr := s.store.Delete(ctx, photoKey); delErr != nil {
			s.logger.Warn("failed to clean up photo after thumbnail error", "key", photoKey, "error", delErr)
		}
		return nil, domain.Internal(err, op, "Failed to store thumbnail")
	}

	oldPhotoKey, oldThumbKey := item.PhotoKey, item.ThumbKey

	if err := s.repo.SetPhotoKeys(ctx, user.ID, itemID, photoKey, thumbKey); err != nil {
		return nil, domain.Internal(err, op, "Failed to save photo reference")
	}

	for _, key := range []string{oldPhotoKey, oldThumbKey} {
		if key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to delete replaced photo object", "key", key, "error", err)
		}
	}

	metrics.PhotosUploaded.WithLabelValues("ok").Inc()
	s.logger.Info("wardrobe photo uploaded", "user_id", user.ID, "item_id", itemID, "size", len(raw))

	item.PhotoKey = photoKey
	item.ThumbKey = thumbKey
	return item, nil
}

func (s *wardrobeService) PhotoURL(ctx context.Context, key string) (string, error) {
	const op = "WardrobeService.PhotoURL"

	if key == "" {
		return "", nil
	}
	url, err := s.store.URL(ctx, key, PhotoURLTTL)
	if err != nil {
		return "", domain.Internal(err, op, "Failed to resolve photo URL")
	}
	return url, nil
}

// SummarizeForPrompt lists the user's items as "name (color category)"
// pairs, capped so prompts stay small.
func (s *wardrobeService) SummarizeForPrompt(ctx context.Context, user *domain.User) (string, error) {
	const maxItems = 30

	items, err := s.repo.ListByUser(ctx, user.ID, "")
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "", nil
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	parts := make([]string, 0, len(items))
	for _, item := range items {
		desc := item.Name
		if item.Color != "" {
			desc = fmt.Sprintf("%s (%s %s)", item.Name, item.Color, item.Category)
		} else {
			desc = fmt.Sprintf("%s (%s)", item.Name, item.Category)
		}
		parts = append(parts, desc)
	}
	return strings.Join(parts, ", "), nil
}
