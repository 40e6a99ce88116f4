package service

import (
	"context"

	"petopia/apperror"
	"petopia/models"
	"petopia/pipeline"
)

// UserService backs the admin Users screen.
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) List(ctx context.Context, q pipeline.ListQuery) (pipeline.PageResult[models.User], error) {
	return s.users.List(ctx, q)
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateEmail)
	}
	return u, nil
}

// SetBlocked blocks or unblocks a customer. Admins cannot block themselves
// or other admins.
func (s *UserService) SetBlocked(ctx context.Context, actorID, id string, blocked bool) (*models.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID.Hex() == actorID || u.Role == models.RoleAdmin {
		return nil, apperror.Newf(apperror.CodeForbidden, "Admin accounts cannot be blocked")
	}
	updated, err := s.users.SetBlocked(ctx, u.ID, blocked)
	if err != nil {
		return nil, storeErr(err, apperror.CodeDuplicateEmail)
	}
	return updated, nil
}
