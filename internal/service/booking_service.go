package service

import (
	"context"
	"fmt"
	"time"

	"lendshare/internal/database"
	"lendshare/internal/domain"
	"lendshare/internal/events"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{repo: repo, eventBus: eventBus, logger: logger}
}

// Create places a booking in the waiting state. Owners cannot book their
// own items.
func (s *BookingService) Create(ctx context.Context, bookerID int64, in models.BookingCreate) (*models.BookingView, error) {
	if !in.End.Time.After(in.Start.Time) {
		return nil, fmt.Errorf("end %s is not after start %s: %w",
			in.End.Format(models.DateTimeLayout), in.Start.Format(models.DateTimeLayout), ErrInvalidInterval)
	}

	booker, err := s.repo.GetUserByID(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == bookerID {
		// The owner gets the same answer as for a missing item, so the
		// ownership relation is not disclosed.
		return nil, fmt.Errorf("item %d is owned by booker %d: %w", in.ItemID, bookerID, database.ErrNotFound)
	}
	if !item.Available {
		return nil, fmt.Errorf("item %d: %w", in.ItemID, ErrItemUnavailable)
	}

	booking := &models.Booking{
		Start:    in.Start,
		End:      in.End,
		ItemID:   in.ItemID,
		BookerID: bookerID,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		s.logger.Error().Err(err).Int64("item_id", in.ItemID).Msg("failed to create booking")
		return nil, err
	}

	s.publishBookingEvent(events.EventBookingCreated, booking, item)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", item.ID).Msg("booking created")

	return bookingView(booking, item, booker), nil
}

// Decide approves or rejects a waiting booking. Only the item's owner may
// decide, and a settled booking cannot be decided again.
func (s *BookingService) Decide(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("booking %d is not on an item of user %d: %w", bookingID, ownerID, ErrPermissionDenied)
	}
	if booking.Status != models.StatusWaiting {
		return nil, fmt.Errorf("booking %d is %s: %w", bookingID, booking.Status, ErrAlreadyDecided)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}
	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("failed to update booking status")
		return nil, err
	}
	booking.Status = status

	booker, err := s.repo.GetUserByID(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}

	s.publishBookingEvent(eventType, booking, item)
	s.logger.Info().Int64("booking_id", bookingID).Str("status", status).Msg("booking decided")

	return bookingView(booking, item, booker), nil
}

// Get returns the booking to its booker or the item's owner. Anyone else
// gets the same answer as for a missing booking.
func (s *BookingService) Get(ctx context.Context, callerID, bookingID int64) (*models.BookingView, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if callerID != booking.BookerID && callerID != item.OwnerID {
		return nil, fmt.Errorf("booking %d is not visible to user %d: %w", bookingID, callerID, database.ErrNotFound)
	}

	booker, err := s.repo.GetUserByID(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}
	return bookingView(booking, item, booker), nil
}

// GetUserBookings lists the caller's own bookings, newest start first.
func (s *BookingService) GetUserBookings(ctx context.Context, bookerID int64, filter string, from, size int) ([]*models.BookingView, error) {
	if !models.KnownFilter(filter) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, filter)
	}
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetBookerBookings(ctx, bookerID, filter, time.Now(), from, size)
	if err != nil {
		return nil, err
	}
	return s.bookingViews(ctx, bookings)
}

// GetOwnerBookings lists bookings on any of the owner's items, newest start
// first.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID int64, filter string, from, size int) ([]*models.BookingView, error) {
	if !models.KnownFilter(filter) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, filter)
	}
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.GetOwnerBookings(ctx, ownerID, filter, time.Now(), from, size)
	if err != nil {
		return nil, err
	}
	return s.bookingViews(ctx, bookings)
}

func (s *BookingService) bookingViews(ctx context.Context, bookings []*models.Booking) ([]*models.BookingView, error) {
	items := make(map[int64]*models.Item)
	users := make(map[int64]*models.User)

	views := make([]*models.BookingView, 0, len(bookings))
	for _, b := range bookings {
		item, ok := items[b.ItemID]
		if !ok {
			var err error
			item, err = s.repo.GetItemByID(ctx, b.ItemID)
			if err != nil {
				return nil, err
			}
			items[b.ItemID] = item
		}
		booker, ok := users[b.BookerID]
		if !ok {
			var err error
			booker, err = s.repo.GetUserByID(ctx, b.BookerID)
			if err != nil {
				return nil, err
			}
			users[b.BookerID] = booker
		}
		views = append(views, bookingView(b, item, booker))
	}
	return views, nil
}

func (s *BookingService) publishBookingEvent(eventType string, booking *models.Booking, item *models.Item) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    item.ID,
		ItemName:  item.Name,
		OwnerID:   item.OwnerID,
		BookerID:  booking.BookerID,
		Status:    booking.Status,
	})
}

func bookingView(booking *models.Booking, item *models.Item, booker *models.User) *models.BookingView {
	return &models.BookingView{
		ID:     booking.ID,
		Start:  booking.Start,
		End:    booking.End,
		Item:   *item,
		Booker: *booker,
		Status: booking.Status,
	}
}
