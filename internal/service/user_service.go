package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// --- DTOs ---

type RegisterBusinessRequest struct {
	BusinessName string `json:"business_name" binding:"required"`
	CountryCode  string `json:"country_code" binding:"required,len=2"`
	Currency     string `json:"currency" binding:"required,len=3"`
	OwnerName    string `json:"owner_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=8"`
}

type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=manager staff"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type UserResponse struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// --- Interface ---

type UserService interface {
	// RegisterBusiness creates a business and its owner account as one
	// atomic unit: a business without an owner is never observable.
	RegisterBusiness(ctx context.Context, req RegisterBusinessRequest) (UserResponse, error)
	CreateUser(ctx context.Context, actor model.Actor, req CreateUserRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	ListUsers(ctx context.Context, actor model.Actor) ([]UserResponse, error)
}

type userService struct {
	userRepo     repository.UserRepository
	businessRepo repository.BusinessRepository
	txManager    repository.TxManager
}

func NewUserService(userRepo repository.UserRepository, businessRepo repository.BusinessRepository, txManager repository.TxManager) UserService {
	return &userService{userRepo: userRepo, businessRepo: businessRepo, txManager: txManager}
}

// --- Implementation ---

func (s *userService) RegisterBusiness(ctx context.Context, req RegisterBusinessRequest) (UserResponse, error) {
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return UserResponse{}, fmt.Errorf("email %q already registered: %w", req.Email, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return UserResponse{}, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	business := model.Business{
		Name:        req.BusinessName,
		CountryCode: req.CountryCode,
		Currency:    req.Currency,
	}
	owner := model.User{
		Name:     req.OwnerName,
		Email:    req.Email,
		Password: string(hashed),
		Role:     model.RoleOwner,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if txErr := s.businessRepo.Create(txCtx, &business); txErr != nil {
			return fmt.Errorf("failed to create business: %w", txErr)
		}
		owner.BusinessID = business.ID
		if txErr := s.userRepo.Create(txCtx, &owner); txErr != nil {
			return fmt.Errorf("failed to create owner account: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return UserResponse{}, err
	}

	return toUserResponse(owner), nil
}

func (s *userService) CreateUser(ctx context.Context, actor model.Actor, req CreateUserRequest) (UserResponse, error) {
	if actor.Role != model.RoleOwner {
		return UserResponse{}, fmt.Errorf("only the owner may create accounts: %w", ErrValidation)
	}

	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return UserResponse{}, fmt.Errorf("email %q already registered: %w", req.Email, ErrConflict)
	} else if !IsRecordNotFound(err) {
		return UserResponse{}, fmt.Errorf("failed to check email: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		BusinessID: actor.BusinessID,
		Name:       req.Name,
		Email:      req.Email,
		Password:   string(hashed),
		Role:       req.Role,
	}
	if err = s.userRepo.Create(ctx, &user); err != nil {
		return UserResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("invalid email or password: %w", ErrValidation)
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, fmt.Errorf("invalid email or password: %w", ErrValidation)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         user.ID.String(),
		"business_id": user.BusinessID.String(),
		"role":        user.Role,
		"exp":         time.Now().Add(24 * time.Hour).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key" // development fallback only
	}
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return TokenResponse{Token: signed}, nil
}

func (s *userService) ListUsers(ctx context.Context, actor model.Actor) ([]UserResponse, error) {
	users, err := s.userRepo.ListByBusiness(ctx, actor.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u))
	}
	return res, nil
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:         u.ID.String(),
		BusinessID: u.BusinessID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
	}
}
