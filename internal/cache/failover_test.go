package cache

import (
	"context"
	"errors"
	"io"
	"testing"

	"lendshare/internal/events"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, bool, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]models.ItemView), args.Bool(1), args.Error(2)
}

func (m *mockCache) SetOwnerItems(ctx context.Context, ownerID int64, views []models.ItemView) error {
	args := m.Called(ctx, ownerID, views)
	return args.Error(0)
}

func (m *mockCache) Invalidate(ctx context.Context, ownerID int64) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func TestFailoverViewCache(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.New(io.Discard)

	t.Run("PrimaryHealthy", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		cache := NewFailoverViewCache(primary, fallback, &logger)

		views := []models.ItemView{{ID: 1}}
		primary.On("GetOwnerItems", ctx, int64(5)).Return(views, true, nil)

		got, ok, err := cache.GetOwnerItems(ctx, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, views, got)
		fallback.AssertNotCalled(t, "GetOwnerItems", mock.Anything, mock.Anything)
	})

	t.Run("PrimaryDownFallsBack", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		cache := NewFailoverViewCache(primary, fallback, &logger)

		primary.On("GetOwnerItems", ctx, int64(5)).Return(nil, false, errors.New("connection refused"))
		fallback.On("GetOwnerItems", ctx, int64(5)).Return([]models.ItemView{{ID: 2}}, true, nil)

		got, ok, err := cache.GetOwnerItems(ctx, 5)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(2), got[0].ID)

		// Subsequent writes skip the primary until it recovers.
		fallback.On("SetOwnerItems", ctx, int64(5), mock.Anything).Return(nil)
		require.NoError(t, cache.SetOwnerItems(ctx, 5, []models.ItemView{{ID: 3}}))
		primary.AssertNotCalled(t, "SetOwnerItems", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("InvalidateClearsBoth", func(t *testing.T) {
		primary := new(mockCache)
		fallback := new(mockCache)
		cache := NewFailoverViewCache(primary, fallback, &logger)

		primary.On("Invalidate", ctx, int64(5)).Return(nil)
		fallback.On("Invalidate", ctx, int64(5)).Return(nil)

		require.NoError(t, cache.Invalidate(ctx, 5))
		primary.AssertCalled(t, "Invalidate", ctx, int64(5))
		fallback.AssertCalled(t, "Invalidate", ctx, int64(5))
	})
}

func TestInvalidator(t *testing.T) {
	logger := zerolog.New(io.Discard)
	memory := NewMemoryViewCache(0)
	ctx := context.Background()

	require.NoError(t, memory.SetOwnerItems(ctx, 7, []models.ItemView{{ID: 1}}))

	bus := events.NewEventBus()
	NewInvalidator(memory, &logger).Register(bus)

	err := bus.PublishJSON(events.EventBookingApproved, events.BookingEventPayload{
		BookingID: 1, ItemID: 1, OwnerID: 7, BookerID: 2, Status: models.StatusApproved,
	})
	require.NoError(t, err)

	_, ok, err := memory.GetOwnerItems(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
}
