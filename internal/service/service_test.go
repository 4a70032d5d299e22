package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"lendshare/internal/cache"
	"lendshare/internal/database"
	"lendshare/internal/events"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testEnv wires the services against a real sqlite store, the in-memory
// view cache and the event bus, mirroring the production wiring.
type testEnv struct {
	db       *database.DB
	users    *UserService
	items    *ItemService
	bookings *BookingService
	requests *RequestService
	cache    *cache.MemoryViewCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	memCache := cache.NewMemoryViewCache(time.Minute)
	bus := events.NewEventBus()
	cache.NewInvalidator(memCache, &logger).Register(bus)

	return &testEnv{
		db:       db,
		users:    NewUserService(db, &logger),
		items:    NewItemService(db, memCache, bus, &logger),
		bookings: NewBookingService(db, bus, &logger),
		requests: NewRequestService(db, &logger),
		cache:    memCache,
	}
}

func (e *testEnv) user(t *testing.T, name, email string) *models.User {
	t.Helper()
	user, err := e.users.Create(context.Background(), &models.User{Name: name, Email: email})
	require.NoError(t, err)
	return user
}

func (e *testEnv) item(t *testing.T, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item, err := e.items.Create(context.Background(), ownerID, models.ItemCreate{
		Name:        name,
		Description: name + " description",
		Available:   &available,
	})
	require.NoError(t, err)
	return item
}

// booking seeds a booking directly, bypassing the service rules, so tests
// can build past intervals.
func (e *testEnv) booking(t *testing.T, itemID, bookerID int64, start, end time.Time, status string) *models.Booking {
	t.Helper()
	b := &models.Booking{
		Start:    models.NewDateTime(start),
		End:      models.NewDateTime(end),
		ItemID:   itemID,
		BookerID: bookerID,
		Status:   status,
	}
	require.NoError(t, e.db.CreateBooking(context.Background(), b))
	return b
}
