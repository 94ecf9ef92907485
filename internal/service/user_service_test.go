package service

import (
	"context"
	"testing"

	"backoffice/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserTestService(t *testing.T) (UserService, *fakeUserRepo, *fakeBusinessRepo) {
	t.Helper()
	userRepo := newFakeUserRepo()
	businessRepo := newFakeBusinessRepo()
	return NewUserService(userRepo, businessRepo, fakeTxManager{}), userRepo, businessRepo
}

func registerReq() RegisterBusinessRequest {
	return RegisterBusinessRequest{
		BusinessName: "Cafe Krume",
		CountryCode:  "DE",
		Currency:     "EUR",
		OwnerName:    "Mira",
		Email:        "mira@krume.example",
		Password:     "correct horse battery",
	}
}

func TestRegisterBusiness(t *testing.T) {
	t.Run("creates business and owner together", func(t *testing.T) {
		svc, userRepo, businessRepo := newUserTestService(t)

		resp, err := svc.RegisterBusiness(context.Background(), registerReq())
		require.NoError(t, err)
		assert.Equal(t, model.RoleOwner, resp.Role)
		assert.Equal(t, "mira@krume.example", resp.Email)

		require.Len(t, businessRepo.businesses, 1)
		require.Len(t, userRepo.users, 1)
		for _, u := range userRepo.users {
			assert.NotEqual(t, "correct horse battery", u.Password, "password must be stored hashed")
			for _, b := range businessRepo.businesses {
				assert.Equal(t, b.ID, u.BusinessID)
			}
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc, _, _ := newUserTestService(t)
		_, err := svc.RegisterBusiness(context.Background(), registerReq())
		require.NoError(t, err)

		_, err = svc.RegisterBusiness(context.Background(), registerReq())
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestLogin(t *testing.T) {
	svc, _, _ := newUserTestService(t)
	registered, err := svc.RegisterBusiness(context.Background(), registerReq())
	require.NoError(t, err)

	t.Run("valid credentials yield a signed token", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "unit-test-secret")

		resp, err := svc.Login(context.Background(), LoginRequest{
			Email: "mira@krume.example", Password: "correct horse battery",
		})
		require.NoError(t, err)
		require.NotEmpty(t, resp.Token)

		token, parseErr := jwt.Parse(resp.Token, func(*jwt.Token) (interface{}, error) {
			return []byte("unit-test-secret"), nil
		})
		require.NoError(t, parseErr)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, registered.ID, claims["sub"])
		assert.Equal(t, registered.BusinessID, claims["business_id"])
		assert.Equal(t, model.RoleOwner, claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "mira@krume.example", Password: "nope",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), LoginRequest{
			Email: "ghost@krume.example", Password: "whatever",
		})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestCreateUser(t *testing.T) {
	owner := testActor(model.RoleOwner)

	t.Run("owner creates staff", func(t *testing.T) {
		svc, _, _ := newUserTestService(t)
		resp, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
			Name: "Jo", Email: "jo@krume.example", Password: "longenough", Role: model.RoleStaff,
		})
		require.NoError(t, err)
		assert.Equal(t, model.RoleStaff, resp.Role)
		assert.Equal(t, owner.BusinessID.String(), resp.BusinessID)
	})

	t.Run("manager may not create accounts", func(t *testing.T) {
		svc, _, _ := newUserTestService(t)
		_, err := svc.CreateUser(context.Background(), testActor(model.RoleManager), CreateUserRequest{
			Name: "Jo", Email: "jo@krume.example", Password: "longenough", Role: model.RoleStaff,
		})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		svc, _, _ := newUserTestService(t)
		_, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
			Name: "Jo", Email: "jo@krume.example", Password: "longenough", Role: model.RoleStaff,
		})
		require.NoError(t, err)
		_, err = svc.CreateUser(context.Background(), owner, CreateUserRequest{
			Name: "Jo2", Email: "jo@krume.example", Password: "longenough", Role: model.RoleManager,
		})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestListUsersScopedToBusiness(t *testing.T) {
	svc, _, _ := newUserTestService(t)
	owner := testActor(model.RoleOwner)
	other := testActor(model.RoleOwner)

	_, err := svc.CreateUser(context.Background(), owner, CreateUserRequest{
		Name: "Jo", Email: "jo@krume.example", Password: "longenough", Role: model.RoleStaff,
	})
	require.NoError(t, err)

	mine, err := svc.ListUsers(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListUsers(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
