package models

// Persisted booking statuses.
const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Query-time booking filters. WAITING/APPROVED/REJECTED double as filters.
const (
	FilterAll     = "ALL"
	FilterCurrent = "CURRENT"
	FilterPast    = "PAST"
	FilterFuture  = "FUTURE"
)

const (
	DefaultPageSize = 10
	DefaultPageFrom = 0
)

// KnownFilter reports whether state names a valid booking filter.
func KnownFilter(state string) bool {
	switch state {
	case FilterAll, FilterCurrent, FilterPast, FilterFuture,
		StatusWaiting, StatusApproved, StatusRejected:
		return true
	}
	return false
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

type ItemRequest struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	RequestorID int64    `json:"requestorId"`
	Created     DateTime `json:"created"`
}

type Booking struct {
	ID       int64    `json:"id"`
	Start    DateTime `json:"start"`
	End      DateTime `json:"end"`
	ItemID   int64    `json:"itemId"`
	BookerID int64    `json:"bookerId"`
	Status   string   `json:"status"`
}

type Comment struct {
	ID       int64    `json:"id"`
	Text     string   `json:"text"`
	ItemID   int64    `json:"itemId"`
	AuthorID int64    `json:"authorId"`
	Created  DateTime `json:"created"`
}
