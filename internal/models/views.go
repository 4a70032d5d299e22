package models

// Request bodies. Pointer fields distinguish "absent" from zero values on
// partial updates.

type UserPatch struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type ItemCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   *bool  `json:"available"`
	RequestID   *int64 `json:"requestId"`
}

type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type BookingCreate struct {
	ItemID int64    `json:"itemId"`
	Start  DateTime `json:"start"`
	End    DateTime `json:"end"`
}

type CommentCreate struct {
	Text string `json:"text"`
}

type RequestCreate struct {
	Description string `json:"description"`
}

// Response views.

// BookingView is the full booking representation with the item and booker
// expanded.
type BookingView struct {
	ID     int64    `json:"id"`
	Start  DateTime `json:"start"`
	End    DateTime `json:"end"`
	Item   Item     `json:"item"`
	Booker User     `json:"booker"`
	Status string   `json:"status"`
}

type CommentView struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	ItemID     int64    `json:"itemId"`
	AuthorName string   `json:"authorName"`
	Created    DateTime `json:"created"`
}

// ItemView is an item together with its nearest bookings and comments.
// LastBooking and NextBooking are filled only for the item's owner.
type ItemView struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Available   bool          `json:"available"`
	RequestID   *int64        `json:"requestId,omitempty"`
	LastBooking *Booking      `json:"lastBooking"`
	NextBooking *Booking      `json:"nextBooking"`
	Comments    []CommentView `json:"comments"`
}

// RequestView is an item request together with the items offered against it.
type RequestView struct {
	ID          int64    `json:"id"`
	Description string   `json:"description"`
	RequestorID int64    `json:"requestorId"`
	Created     DateTime `json:"created"`
	Items       []Item   `json:"items"`
}
