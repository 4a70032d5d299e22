package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"lendshare/internal/models"
)

// HeaderUserID identifies the caller. There is no session mechanism, the
// header is trusted as-is.
const HeaderUserID = "X-Sharer-User-Id"

func callerID(r *http.Request) (int64, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return 0, fmt.Errorf("%s header is required", HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s header must be a positive integer", HeaderUserID)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

func pageParams(r *http.Request) (from, size int, err error) {
	from = models.DefaultPageFrom
	size = models.DefaultPageSize

	if raw := r.URL.Query().Get("from"); raw != "" {
		from, err = strconv.Atoi(raw)
		if err != nil || from < 0 {
			return 0, 0, fmt.Errorf("from must be a non-negative integer")
		}
	}
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, err = strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return 0, 0, fmt.Errorf("size must be a positive integer")
		}
	}
	return from, size, nil
}

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func stateParam(r *http.Request) string {
	state := r.URL.Query().Get("state")
	if state == "" {
		return models.FilterAll
	}
	return state
}

// Users

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := decodeBody(r, &user); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user.ID = 0

	created, err := s.users.Create(r.Context(), &user)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch models.UserPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.users.Update(r.Context(), userID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.users.Delete(r.Context(), userID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Items

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in models.ItemCreate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Name == "" || in.Description == "" || in.Available == nil {
		writeError(w, http.StatusBadRequest, "name, description and available are required")
		return
	}

	item, err := s.items.Create(r.Context(), ownerID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch models.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := s.items.Update(r.Context(), ownerID, itemID, patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	viewerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.items.Get(r.Context(), viewerID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetUserItems(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.items.GetUserItems(r.Context(), ownerID, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleSearchItems(w http.ResponseWriter, r *http.Request) {
	if _, err := callerID(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := s.items.Search(r.Context(), r.URL.Query().Get("text"), from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	authorID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in models.CommentCreate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.items.AddComment(r.Context(), authorID, itemID, in.Text)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Bookings

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	bookerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in models.BookingCreate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.ItemID == 0 || in.Start.IsZero() || in.End.IsZero() {
		writeError(w, http.StatusBadRequest, "itemId, start and end are required")
		return
	}

	view, err := s.bookings.Create(r.Context(), bookerID, in)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDecideBooking(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "approved must be true or false")
		return
	}

	view, err := s.bookings.Decide(r.Context(), ownerID, bookingID, approved)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.bookings.Get(r.Context(), userID, bookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetUserBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state := stateParam(r)
	if !models.KnownFilter(state) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown state: %s", state))
		return
	}

	views, err := s.bookings.GetUserBookings(r.Context(), userID, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*models.BookingView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetOwnerBookings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	state := stateParam(r)
	if !models.KnownFilter(state) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown state: %s", state))
		return
	}

	views, err := s.bookings.GetOwnerBookings(r.Context(), ownerID, state, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*models.BookingView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	ownerID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.bookings.GetOwnerBookings(r.Context(), ownerID, models.FilterAll,
		models.DefaultPageFrom, maxExportRows)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if err := s.exporter.WriteOwnerBookings(w, views); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to export bookings")
	}
}

const maxExportRows = 10000

// Requests

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	requestorID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var in models.RequestCreate
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.requests.Create(r.Context(), requestorID, in.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGetUserRequests(w http.ResponseWriter, r *http.Request) {
	requestorID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.requests.GetUserRequests(r.Context(), requestorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*models.RequestView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetAllRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, size, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := s.requests.GetAllRequests(r.Context(), userID, from, size)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if views == nil {
		views = []*models.RequestView{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	requestID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := s.requests.Get(r.Context(), userID, requestID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
