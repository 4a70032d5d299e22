package service

import (
	"context"
	"strings"
	"time"

	"lendshare/internal/domain"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger}
}

func (s *RequestService) Create(ctx context.Context, requestorID int64, description string) (*models.RequestView, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrBlankText
	}
	if _, err := s.repo.GetUserByID(ctx, requestorID); err != nil {
		return nil, err
	}

	request := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     models.NewDateTime(time.Now()),
	}
	if err := s.repo.CreateRequest(ctx, request); err != nil {
		s.logger.Error().Err(err).Int64("requestor_id", requestorID).Msg("failed to create request")
		return nil, err
	}

	s.logger.Info().Int64("request_id", request.ID).Msg("item request created")
	return requestView(request, nil), nil
}

// GetUserRequests lists the caller's own requests with offered items,
// newest first.
func (s *RequestService) GetUserRequests(ctx context.Context, requestorID int64) ([]*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, requestorID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetUserRequests(ctx, requestorID)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, requests)
}

// GetAllRequests lists requests made by other users, newest first.
func (s *RequestService) GetAllRequests(ctx context.Context, userID int64, from, size int) ([]*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetOtherRequests(ctx, userID, from, size)
	if err != nil {
		return nil, err
	}
	return s.requestViews(ctx, requests)
}

func (s *RequestService) Get(ctx context.Context, userID, requestID int64) (*models.RequestView, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	request, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return requestView(request, items), nil
}

func (s *RequestService) requestViews(ctx context.Context, requests []*models.ItemRequest) ([]*models.RequestView, error) {
	ids := make([]int64, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}
	items, err := s.repo.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byRequest := make(map[int64][]*models.Item)
	for _, item := range items {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
		}
	}

	views := make([]*models.RequestView, 0, len(requests))
	for _, r := range requests {
		views = append(views, requestView(r, byRequest[r.ID]))
	}
	return views, nil
}

func requestView(request *models.ItemRequest, items []*models.Item) *models.RequestView {
	view := &models.RequestView{
		ID:          request.ID,
		Description: request.Description,
		RequestorID: request.RequestorID,
		Created:     request.Created,
		Items:       make([]models.Item, 0, len(items)),
	}
	for _, item := range items {
		view.Items = append(view.Items, *item)
	}
	return view
}
