package database

import (
	"context"
	"testing"
	"time"

	"lendshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRequest(t *testing.T, db *DB, requestorID int64, description string, created time.Time) *models.ItemRequest {
	t.Helper()
	request := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     models.NewDateTime(created),
	}
	require.NoError(t, db.CreateRequest(context.Background(), request))
	return request
}

func TestRequestCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	requestor := seedUser(t, db, "Bob", "bob@example.com")

	request := seedRequest(t, db, requestor.ID, "need a drill", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	assert.NotZero(t, request.ID)

	found, err := db.GetRequestByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, "need a drill", found.Description)
	assert.Equal(t, requestor.ID, found.RequestorID)

	_, err = db.GetRequestByID(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRequestListing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	bob := seedUser(t, db, "Bob", "bob@example.com")
	carol := seedUser(t, db, "Carol", "carol@example.com")

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	older := seedRequest(t, db, bob.ID, "older", base)
	newer := seedRequest(t, db, bob.ID, "newer", base.Add(time.Hour))
	carols := seedRequest(t, db, carol.ID, "from carol", base.Add(2*time.Hour))

	// Own requests, newest first.
	own, err := db.GetUserRequests(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.Equal(t, newer.ID, own[0].ID)
	assert.Equal(t, older.ID, own[1].ID)

	// Others' requests exclude the caller's own.
	others, err := db.GetOtherRequests(ctx, bob.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, carols.ID, others[0].ID)

	paged, err := db.GetOtherRequests(ctx, carol.ID, 1, 1)
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, older.ID, paged[0].ID)
}
