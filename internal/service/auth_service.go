package service

import (
	"context"
	"strings"
	"time"

	"ai-chatbot-be/internal/dto"
	"ai-chatbot-be/internal/entity"
	"ai-chatbot-be/internal/pkg/apperror"
	"ai-chatbot-be/internal/pkg/jwtauth"
	"ai-chatbot-be/internal/pkg/logger"
	"ai-chatbot-be/internal/repository/implementation"
	"ai-chatbot-be/internal/repository/specification"
	"ai-chatbot-be/internal/repository/unitofwork"

	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, claims *jwtauth.Claims) error
	Me(ctx context.Context, userId uint) (*dto.UserResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	issuer     jwtauth.Issuer
	revoker    jwtauth.Revoker
	logger     logger.ILogger
	hashCost   int
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	issuer jwtauth.Issuer,
	revoker jwtauth.Revoker,
	logger logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		issuer:     issuer,
		revoker:    revoker,
		logger:     logger,
		hashCost:   bcrypt.DefaultCost,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	// 1. Check for existing user
	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("email already registered")
	}
	existing, err = uow.UserRepository().FindOne(ctx, specification.ByUsername{Username: username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.Conflict("username already taken")
	}

	// 2. Hash password
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	// 3. Save
	user := &entity.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	if err := uow.UserRepository().Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		if implementation.IsDuplicateError(err) {
			return nil, apperror.Conflict("email already registered")
		}
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id})
	return toUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: strings.ToLower(strings.TrimSpace(req.Email))})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}
	if !user.IsActive {
		return nil, apperror.Unauthorized("user account is disabled")
	}

	token, expiresAt, err := s.issuer.Issue(user.Id)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, claims *jwtauth.Claims) error {
	if err := s.revoker.Revoke(ctx, claims); err != nil {
		return apperror.Internal("failed to revoke token", err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userId uint) (*dto.UserResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId}, specification.ActiveUsers{})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("user not found")
	}
	return toUserResponse(user), nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		Id:        u.Id,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
