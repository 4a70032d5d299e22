package service

import (
	"context"

	"lendshare/internal/domain"
	"lendshare/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewUserService(repo domain.Repository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

func (s *UserService) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Str("email", user.Email).Msg("failed to create user")
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	return user, nil
}

// Update applies only the fields present in the patch.
func (s *UserService) Update(ctx context.Context, userID int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to update user")
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) GetAll(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info().Int64("user_id", userID).Msg("user deleted")
	return nil
}
