package users

import (
	"context"
	"errors"
	"strings"
)

// ErrNotAuthorized indicates the requesting identity may not act on the target user.
var ErrNotAuthorized = errors.New("not authorized")

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists the user identity from OAuth to stabilize ownership of
// preferences and profile images.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Username) == "" {
		return errors.New("user id and username are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(username) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByUsername(ctx, username)
}

// Resolve looks up the target user and enforces the owner-or-staff rule.
// Staff access is only honored when allowStaff is set; a lookup miss is
// ErrNotFound and a privilege miss is ErrNotAuthorized, so callers can keep
// the 404/403 split consistent.
func (s *Service) Resolve(ctx context.Context, requestingUsername string, requestingStaff bool, targetUsername string, allowStaff bool) (User, error) {
	target, err := s.GetByUsername(ctx, targetUsername)
	if err != nil {
		return User{}, err
	}
	if requestingUsername != targetUsername {
		if !requestingStaff || !allowStaff {
			return User{}, ErrNotAuthorized
		}
	}
	return target, nil
}
