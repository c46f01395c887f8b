package service

import (
	"context"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v7"

	"relay-back/internal/apperrors"
	"relay-back/internal/repository"
)

func TestUserService_Register(t *testing.T) {
	svc := NewUserService(repository.NewUserRepository())
	ctx := context.Background()

	userID := gofakeit.Username()
	password := gofakeit.Password(true, true, true, false, false, 12)

	user, err := svc.Register(ctx, userID, password)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != userID || len(user.HashedPassword) == 0 {
		t.Errorf("Register() = %+v", user)
	}

	if _, err := svc.Register(ctx, userID, password); !errors.Is(err, apperrors.ErrUserAlreadyExists) {
		t.Errorf("duplicate Register() error = %v, want %v", err, apperrors.ErrUserAlreadyExists)
	}

	if _, err := svc.Register(ctx, "", password); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Errorf("Register(\"\") error = %v, want %v", err, apperrors.ErrInvalidInput)
	}

	ok, err := svc.CheckPassword(ctx, userID, password)
	if err != nil || !ok {
		t.Errorf("CheckPassword(correct) = (%v, %v), want (true, nil)", ok, err)
	}

	ok, err = svc.CheckPassword(ctx, userID, password+"x")
	if err != nil || ok {
		t.Errorf("CheckPassword(wrong) = (%v, %v), want (false, nil)", ok, err)
	}

	users, _ := svc.ListUsers(ctx)
	if len(users) != 1 || users[0] != userID || svc.Count() != 1 {
		t.Errorf("ListUsers() = %v, Count() = %d", users, svc.Count())
	}
}

func TestUserService_GetUnknown(t *testing.T) {
	svc := NewUserService(repository.NewUserRepository())

	if _, err := svc.GetUser(context.Background(), "nobody"); !errors.Is(err, apperrors.ErrUserDoesNotExist) {
		t.Errorf("GetUser() error = %v, want %v", err, apperrors.ErrUserDoesNotExist)
	}
}
