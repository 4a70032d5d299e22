package domain

import (
	"context"
	"time"

	"lendshare/internal/models"
)

type Repository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateItem(ctx context.Context, item *models.Item) error
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	GetOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	GetItemsByRequestID(ctx context.Context, requestID int64) ([]*models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error)

	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id int64, status string) error
	GetBookerBookings(ctx context.Context, bookerID int64, filter string, now time.Time, from, size int) ([]*models.Booking, error)
	GetOwnerBookings(ctx context.Context, ownerID int64, filter string, now time.Time, from, size int) ([]*models.Booking, error)
	GetItemBookings(ctx context.Context, itemID int64) ([]*models.Booking, error)
	GetOwnerItemsBookings(ctx context.Context, ownerID int64) ([]*models.Booking, error)
	GetCompletedBooking(ctx context.Context, bookerID, itemID int64) (*models.Booking, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	GetItemComments(ctx context.Context, itemID int64) ([]*models.Comment, error)
	GetCommentsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)

	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetUserRequests(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, userID int64, from, size int) ([]*models.ItemRequest, error)
}

// ViewCache caches assembled owner item views between mutations.
type ViewCache interface {
	GetOwnerItems(ctx context.Context, ownerID int64) ([]models.ItemView, bool, error)
	SetOwnerItems(ctx context.Context, ownerID int64, views []models.ItemView) error
	Invalidate(ctx context.Context, ownerID int64) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type UserService interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error)
	Get(ctx context.Context, userID int64) (*models.User, error)
	GetAll(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, userID int64) error
}

type ItemService interface {
	Create(ctx context.Context, ownerID int64, in models.ItemCreate) (*models.Item, error)
	Update(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	Get(ctx context.Context, viewerID, itemID int64) (*models.ItemView, error)
	GetUserItems(ctx context.Context, ownerID int64, from, size int) ([]models.ItemView, error)
	Search(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	AddComment(ctx context.Context, authorID, itemID int64, text string) (*models.CommentView, error)
}

type BookingService interface {
	Create(ctx context.Context, bookerID int64, in models.BookingCreate) (*models.BookingView, error)
	Decide(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingView, error)
	Get(ctx context.Context, callerID, bookingID int64) (*models.BookingView, error)
	GetUserBookings(ctx context.Context, bookerID int64, filter string, from, size int) ([]*models.BookingView, error)
	GetOwnerBookings(ctx context.Context, ownerID int64, filter string, from, size int) ([]*models.BookingView, error)
}

type RequestService interface {
	Create(ctx context.Context, requestorID int64, description string) (*models.RequestView, error)
	GetUserRequests(ctx context.Context, requestorID int64) ([]*models.RequestView, error)
	GetAllRequests(ctx context.Context, userID int64, from, size int) ([]*models.RequestView, error)
	Get(ctx context.Context, userID, requestID int64) (*models.RequestView, error)
}
