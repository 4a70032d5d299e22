package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"lendshare/internal/database"
	"lendshare/internal/domain"
	"lendshare/internal/events"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	cache    domain.ViewCache
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, cache domain.ViewCache, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, cache: cache, eventBus: eventBus, logger: logger}
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, in models.ItemCreate) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	// An unknown request reference is dropped rather than rejected.
	if in.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *in.RequestID); errors.Is(err, database.ErrNotFound) {
			in.RequestID = nil
		} else if err != nil {
			return nil, err
		}
	}

	item := &models.Item{
		Name:        in.Name,
		Description: in.Description,
		Available:   *in.Available,
		OwnerID:     ownerID,
		RequestID:   in.RequestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to create item")
		return nil, err
	}

	s.publishItemEvent(events.EventItemCreated, item)
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// Update applies only the fields present in the patch. Only the owner may edit.
func (s *ItemService) Update(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("item %d is not owned by user %d: %w", itemID, ownerID, ErrPermissionDenied)
	}

	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("failed to update item")
		return nil, err
	}

	s.publishItemEvent(events.EventItemUpdated, item)
	return item, nil
}

// Get returns the item with its comments. Booking slots are only disclosed
// to the owner.
func (s *ItemService) Get(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	view := newItemView(item)

	comments, err := s.repo.GetItemComments(ctx, itemID)
	if err != nil {
		return nil, err
	}
	view.Comments, err = s.commentViews(ctx, comments)
	if err != nil {
		return nil, err
	}

	if viewerID == item.OwnerID {
		bookings, err := s.repo.GetItemBookings(ctx, itemID)
		if err != nil {
			return nil, err
		}
		view.LastBooking, view.NextBooking = splitLastNext(bookings, time.Now())
	}
	return view, nil
}

// GetUserItems returns the owner's items with booking slots and comments.
// The default page is served from the cache when possible.
func (s *ItemService) GetUserItems(ctx context.Context, ownerID int64, from, size int) ([]models.ItemView, error) {
	cacheable := from == models.DefaultPageFrom && size == models.DefaultPageSize
	if cacheable {
		views, ok, err := s.cache.GetOwnerItems(ctx, ownerID)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Int64("owner_id", ownerID).Msg("item view cache read failed")
		case ok && slotsCurrent(views, time.Now()):
			return views, nil
		}
	}

	items, err := s.repo.GetOwnerItems(ctx, ownerID, from, size)
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetOwnerItemsBookings(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	byItem := make(map[int64][]*models.Booking)
	for _, b := range bookings {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}

	itemIDs := make([]int64, len(items))
	for i, item := range items {
		itemIDs[i] = item.ID
	}
	comments, err := s.repo.GetCommentsByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]*models.Comment)
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], c)
	}

	now := time.Now()
	views := make([]models.ItemView, 0, len(items))
	for _, item := range items {
		view := newItemView(item)
		view.LastBooking, view.NextBooking = splitLastNext(byItem[item.ID], now)
		view.Comments, err = s.commentViews(ctx, commentsByItem[item.ID])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	if cacheable {
		if err := s.cache.SetOwnerItems(ctx, ownerID, views); err != nil {
			s.logger.Warn().Err(err).Int64("owner_id", ownerID).Msg("item view cache write failed")
		}
	}
	return views, nil
}

// Search returns available items matching text. Blank text yields an empty
// result without touching the store.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []*models.Item{}, nil
	}
	items, err := s.repo.SearchItems(ctx, text, from, size)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*models.Item{}
	}
	return items, nil
}

// AddComment publishes a review. The author must have held a booking of the
// item that is not rejected and has already ended.
func (s *ItemService) AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrBlankText
	}

	author, err := s.repo.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.GetCompletedBooking(ctx, authorID, itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("user %d never booked item %d: %w", authorID, itemID, ErrNotRented)
	}
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !booking.End.Time.Before(now) {
		return nil, fmt.Errorf("booking %d ends at %s: %w", booking.ID, booking.End.Format(models.DateTimeLayout), ErrRentalNotFinished)
	}

	comment := &models.Comment{
		Text:     text,
		ItemID:   itemID,
		AuthorID: authorID,
		Created:  models.NewDateTime(now),
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		s.logger.Error().Err(err).Int64("item_id", itemID).Msg("failed to create comment")
		return nil, err
	}

	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventCommentAdded, events.CommentEventPayload{
			CommentID: comment.ID,
			ItemID:    itemID,
			OwnerID:   item.OwnerID,
			AuthorID:  authorID,
		})
	}

	return &models.CommentView{
		ID:         comment.ID,
		Text:       comment.Text,
		ItemID:     comment.ItemID,
		AuthorName: author.Name,
		Created:    comment.Created,
	}, nil
}

func (s *ItemService) publishItemEvent(eventType string, item *models.Item) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.PublishJSON(eventType, events.ItemEventPayload{
		ItemID:   item.ID,
		ItemName: item.Name,
		OwnerID:  item.OwnerID,
	})
}

func (s *ItemService) commentViews(ctx context.Context, comments []*models.Comment) ([]models.CommentView, error) {
	views := make([]models.CommentView, 0, len(comments))
	names := make(map[int64]string)
	for _, c := range comments {
		name, ok := names[c.AuthorID]
		if !ok {
			author, err := s.repo.GetUserByID(ctx, c.AuthorID)
			if err != nil {
				return nil, err
			}
			name = author.Name
			names[c.AuthorID] = name
		}
		views = append(views, models.CommentView{
			ID:         c.ID,
			Text:       c.Text,
			ItemID:     c.ItemID,
			AuthorName: name,
			Created:    c.Created,
		})
	}
	return views, nil
}

func newItemView(item *models.Item) *models.ItemView {
	return &models.ItemView{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		RequestID:   item.RequestID,
		Comments:    []models.CommentView{},
	}
}

// slotsCurrent reports whether no cached next-booking slot has started yet.
// No event marks the moment a booking start passes, so a slot that crossed
// into the past forces a rebuild.
func slotsCurrent(views []models.ItemView, now time.Time) bool {
	for i := range views {
		if next := views[i].NextBooking; next != nil && !next.Start.Time.After(now) {
			return false
		}
	}
	return true
}

// splitLastNext picks the latest started booking not in the future and the
// earliest upcoming one, skipping rejected bookings.
func splitLastNext(bookings []*models.Booking, now time.Time) (last, next *models.Booking) {
	for _, b := range bookings {
		if b.Status == models.StatusRejected {
			continue
		}
		switch {
		case b.Start.Time.After(now):
			if next == nil || b.Start.Time.Before(next.Start.Time) {
				next = b
			}
		case b.Start.Time.Before(now):
			if last == nil || b.Start.Time.After(last.Start.Time) {
				last = b
			}
		}
	}
	return last, next
}
