package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "trackr/internal/errors"
	"trackr/internal/model"
)

func TestUserService_GetUser(t *testing.T) {
	repo := new(MockUserRepository)
	ctx := context.Background()
	repo.On("FindByID", ctx, uint(7)).Return(&model.User{ID: 7, Username: "alice"}, nil)
	repo.On("FindByID", ctx, uint(8)).Return(nil, gorm.ErrRecordNotFound)

	svc := NewUserService(repo, nil)

	user, err := svc.GetUser(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = svc.GetUser(ctx, 8)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
