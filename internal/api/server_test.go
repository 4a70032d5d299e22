package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"lendshare/internal/cache"
	"lendshare/internal/config"
	"lendshare/internal/database"
	"lendshare/internal/events"
	"lendshare/internal/export"
	"lendshare/internal/models"
	"lendshare/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	ts *httptest.Server
	db *database.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	memCache := cache.NewMemoryViewCache(time.Minute)
	bus := events.NewEventBus()
	cache.NewInvalidator(memCache, &logger).Register(bus)

	server := NewServer(config.ServerConfig{Port: 0},
		service.NewUserService(db, &logger),
		service.NewItemService(db, memCache, bus, &logger),
		service.NewBookingService(db, bus, &logger),
		service.NewRequestService(db, &logger),
		export.NewExporter(&logger),
		&logger,
	)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &testServer{ts: ts, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.ts.URL+path, reader)
	require.NoError(t, err)
	if userID != 0 {
		req.Header.Set(HeaderUserID, strconv.FormatInt(userID, 10))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func (s *testServer) createUser(t *testing.T, name, email string) models.User {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var user models.User
	require.NoError(t, json.Unmarshal(body, &user))
	return user
}

func (s *testServer) createItem(t *testing.T, ownerID int64, name string, available bool) models.Item {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/items", ownerID, map[string]any{
		"name": name, "description": name + " description", "available": available,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var item models.Item
	require.NoError(t, json.Unmarshal(body, &item))
	return item
}

func errorBody(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, false, payload["success"])
	assert.NotEmpty(t, payload["error"])
	return payload
}

func TestUserEndpoints(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	assert.NotZero(t, alice.ID)

	// Duplicate email conflicts.
	resp, body := s.do(t, http.MethodPost, "/users", 0, map[string]string{"name": "Mallory", "email": "alice@example.com"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	errorBody(t, body)

	resp, body = s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", alice.ID), 0, map[string]string{"name": "Alice B"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.User
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "alice@example.com", updated.Email)

	resp, _ = s.do(t, http.MethodGet, "/users", 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = s.do(t, http.MethodGet, "/users/404", 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", alice.ID), 0, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, fmt.Sprintf("/users/%d", alice.ID), 0, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestItemEndpoints(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	bob := s.createUser(t, "Bob", "bob@example.com")

	// Caller header is required.
	resp, body := s.do(t, http.MethodPost, "/items", 0, map[string]any{"name": "Drill", "description": "x", "available": true})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errorBody(t, body)

	item := s.createItem(t, alice.ID, "Drill", true)
	assert.Equal(t, alice.ID, item.OwnerID)

	// Only the owner can patch.
	resp, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), bob.ID, map[string]any{"name": "Mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, http.MethodPatch, fmt.Sprintf("/items/%d", item.ID), alice.ID, map[string]any{"available": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var patched models.Item
	require.NoError(t, json.Unmarshal(body, &patched))
	assert.False(t, patched.Available)

	resp, body = s.do(t, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.ItemView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "Drill", view.Name)
	assert.NotNil(t, view.Comments)

	resp, body = s.do(t, http.MethodGet, "/items", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var views []models.ItemView
	require.NoError(t, json.Unmarshal(body, &views))
	assert.Len(t, views, 1)
}

func TestSearchEndpoint(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	s.createItem(t, alice.ID, "Power Drill", true)

	// Search requires the caller header like every other item endpoint.
	resp, body := s.do(t, http.MethodGet, "/items/search?text=drill", 0, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errorBody(t, body)

	// Blank search returns an empty list, not an error.
	resp, body = s.do(t, http.MethodGet, "/items/search?text=", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	resp, body = s.do(t, http.MethodGet, "/items/search?text=drill", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []models.Item
	require.NoError(t, json.Unmarshal(body, &items))
	assert.Len(t, items, 1)

	resp, _ = s.do(t, http.MethodGet, "/items/search?text=drill&from=-1", alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBookingLifecycle(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	bob := s.createUser(t, "Bob", "bob@example.com")
	carol := s.createUser(t, "Carol", "carol@example.com")
	item := s.createItem(t, alice.ID, "Drill", true)

	start := models.NewDateTime(time.Now().Add(24 * time.Hour))
	end := models.NewDateTime(time.Now().Add(48 * time.Hour))

	resp, body := s.do(t, http.MethodPost, "/bookings", bob.ID, models.BookingCreate{ItemID: item.ID, Start: start, End: end})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var booking models.BookingView
	require.NoError(t, json.Unmarshal(body, &booking))
	assert.Equal(t, models.StatusWaiting, booking.Status)
	assert.Equal(t, item.ID, booking.Item.ID)
	assert.Equal(t, bob.ID, booking.Booker.ID)

	// Owner booking their own item looks like a missing item.
	resp, _ = s.do(t, http.MethodPost, "/bookings", alice.ID, models.BookingCreate{ItemID: item.ID, Start: start, End: end})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Only the owner decides.
	resp, _ = s.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), bob.ID, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = s.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &booking))
	assert.Equal(t, models.StatusApproved, booking.Status)

	// Settled bookings reject any further decision.
	resp, body = s.do(t, http.MethodPatch, fmt.Sprintf("/bookings/%d?approved=true", booking.ID), alice.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errorBody(t, body)

	// Visible to booker and owner only.
	for _, caller := range []int64{bob.ID, alice.ID} {
		resp, _ = s.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), caller, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ = s.do(t, http.MethodGet, fmt.Sprintf("/bookings/%d", booking.ID), carol.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Listings.
	resp, body = s.do(t, http.MethodGet, "/bookings?state=APPROVED", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.BookingView
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, body = s.do(t, http.MethodGet, "/bookings/owner", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, body = s.do(t, http.MethodGet, "/bookings?state=BOGUS", bob.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	payload := errorBody(t, body)
	assert.Equal(t, "Unknown state: BOGUS", payload["error"])
}

func TestCommentEndpoint(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	bob := s.createUser(t, "Bob", "bob@example.com")
	item := s.createItem(t, alice.ID, "Drill", true)

	// No completed rental yet.
	resp, body := s.do(t, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), bob.ID, map[string]string{"text": "nice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errorBody(t, body)

	now := time.Now()
	seedBooking(t, s.db, item.ID, bob.ID, now.Add(-48*time.Hour), now.Add(-24*time.Hour), models.StatusApproved)

	resp, body = s.do(t, http.MethodPost, fmt.Sprintf("/items/%d/comment", item.ID), bob.ID, map[string]string{"text": "works great"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var comment models.CommentView
	require.NoError(t, json.Unmarshal(body, &comment))
	assert.Equal(t, "works great", comment.Text)
	assert.Equal(t, "Bob", comment.AuthorName)

	// The comment shows up in the owner's item view together with the slot.
	resp, body = s.do(t, http.MethodGet, fmt.Sprintf("/items/%d", item.ID), alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view models.ItemView
	require.NoError(t, json.Unmarshal(body, &view))
	require.Len(t, view.Comments, 1)
	require.NotNil(t, view.LastBooking)
	assert.Nil(t, view.NextBooking)
}

func TestRequestEndpoints(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	bob := s.createUser(t, "Bob", "bob@example.com")

	resp, body := s.do(t, http.MethodPost, "/requests", bob.ID, map[string]string{"description": "need a drill"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var request models.RequestView
	require.NoError(t, json.Unmarshal(body, &request))
	assert.NotZero(t, request.ID)
	assert.NotNil(t, request.Items)

	resp, body = s.do(t, http.MethodGet, "/requests", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.RequestView
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	// /requests/all excludes the caller's own requests.
	resp, body = s.do(t, http.MethodGet, "/requests/all", bob.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Empty(t, list)

	resp, body = s.do(t, http.MethodGet, "/requests/all", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	resp, _ = s.do(t, http.MethodGet, fmt.Sprintf("/requests/%d", request.ID), alice.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = s.do(t, http.MethodGet, "/requests/404", alice.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExportEndpoint(t *testing.T) {
	s := newTestServer(t)

	alice := s.createUser(t, "Alice", "alice@example.com")
	bob := s.createUser(t, "Bob", "bob@example.com")
	item := s.createItem(t, alice.ID, "Drill", true)

	now := time.Now()
	seedBooking(t, s.db, item.ID, bob.ID, now.Add(24*time.Hour), now.Add(48*time.Hour), models.StatusWaiting)

	resp, body := s.do(t, http.MethodGet, "/bookings/owner/export", alice.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, body)
}

func seedBooking(t *testing.T, db *database.DB, itemID, bookerID int64, start, end time.Time, status string) {
	t.Helper()
	booking := &models.Booking{
		Start:    models.NewDateTime(start),
		End:      models.NewDateTime(end),
		ItemID:   itemID,
		BookerID: bookerID,
		Status:   status,
	}
	require.NoError(t, db.CreateBooking(t.Context(), booking))
}
