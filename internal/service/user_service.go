package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chahe-dridi/prelevements-backend/internal/model"
	"github.com/chahe-dridi/prelevements-backend/internal/repository"
	"github.com/chahe-dridi/prelevements-backend/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
	minPasswordLen  = 6
)

// --- DTOs ---

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"omitempty,email"`
}

type UpdatePasswordRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

type AdminUpdateUserRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email" binding:"omitempty,email"`
	Role            string `json:"role"`
	Favored         *bool  `json:"favored"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ChangeRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

// UserResponse is the public shape of a User, without the password hash
type UserResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	Favored   bool   `json:"favored"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	ListFavoredUsers(ctx context.Context) ([]UserResponse, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*UserResponse, error)
	UpdatePassword(ctx context.Context, id string, req UpdatePasswordRequest) error
	AdminUpdateUser(ctx context.Context, adminID, id string, req AdminUpdateUserRequest) (*UserResponse, error)
	ChangeRole(ctx context.Context, adminID string, req ChangeRoleRequest) error
	DeleteUser(ctx context.Context, adminID, id string) error
}

type userService struct {
	repo        repository.UserRepository
	requestRepo repository.RequestRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	requestRepo repository.RequestRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) UserService {
	return &userService{
		repo:        repo,
		requestRepo: requestRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *userService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperr.InvalidInput("email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Self-registration always lands on the base role
	user := &model.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  string(hashed),
		Role:      model.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) RefreshToken(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	stored, err := s.repo.GetRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}
	if time.Now().After(stored.ExpiresAt) {
		_ = s.repo.DeleteRefreshToken(ctx, stored.Token)
		return nil, apperr.Unauthorized("refresh token expired")
	}

	user, err := s.repo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token")
	}

	// Rotate: the old token is gone once a new pair is issued
	if err := s.repo.DeleteRefreshToken(ctx, stored.Token); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokens(ctx, user)
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	})

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "default_super_secret_key"
	}

	accessToken, err := token.SignedString([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	refresh := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(refreshTokenTTL),
	}
	if err := s.repo.StoreRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{Token: accessToken, RefreshToken: refresh.Token}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}
	return mapToUserResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) ListFavoredUsers(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.ListFavored(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favored users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}
	return responses, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid user id")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperr.NotFound("user not found")
	}

	if req.Email != "" && req.Email != user.Email {
		taken, checkErr := s.repo.EmailTaken(ctx, req.Email, userID)
		if checkErr != nil {
			return nil, fmt.Errorf("failed to check email: %w", checkErr)
		}
		if taken {
			return nil, apperr.InvalidInput("email already in use")
		}
		user.Email = req.Email
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return mapToUserResponse(user), nil
}

func (s *userService) UpdatePassword(ctx context.Context, id string, req UpdatePasswordRequest) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}

	if err := validateNewPassword(req.Password, req.ConfirmPassword); err != nil {
		return err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return apperr.NotFound("user not found")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.repo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *userService) AdminUpdateUser(ctx context.Context, adminID, id string, req AdminUpdateUserRequest) (*UserResponse, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.InvalidInput("invalid user id")
	}

	if req.Role != "" && !model.ValidRole(req.Role) {
		return nil, apperr.InvalidInput("invalid role: %s", req.Role)
	}
	if req.Password != "" {
		if err := validateNewPassword(req.Password, req.ConfirmPassword); err != nil {
			return nil, err
		}
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loaded, findErr := s.repo.GetByID(txCtx, userID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return fmt.Errorf("failed to load user: %w", findErr)
		}

		if req.Email != "" && req.Email != loaded.Email {
			taken, checkErr := s.repo.EmailTaken(txCtx, req.Email, userID)
			if checkErr != nil {
				return fmt.Errorf("failed to check email: %w", checkErr)
			}
			if taken {
				return apperr.InvalidInput("email already in use")
			}
			loaded.Email = req.Email
		}
		if req.FirstName != "" {
			loaded.FirstName = req.FirstName
		}
		if req.LastName != "" {
			loaded.LastName = req.LastName
		}
		if req.Role != "" {
			loaded.Role = req.Role
		}
		if req.Favored != nil {
			loaded.Favored = *req.Favored
		}
		if req.Password != "" {
			hashed, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if hashErr != nil {
				return fmt.Errorf("failed to hash password: %w", hashErr)
			}
			loaded.Password = string(hashed)
		}

		if saveErr := s.repo.Update(txCtx, loaded); saveErr != nil {
			return fmt.Errorf("failed to update user: %w", saveErr)
		}
		user = loaded

		entry := &model.AuditLog{
			UserID:     parseOptionalUUID(adminID),
			Action:     model.ActionUpdateUser,
			EntityID:   loaded.ID.String(),
			EntityName: loaded.Email,
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return mapToUserResponse(user), nil
}

func (s *userService) ChangeRole(ctx context.Context, adminID string, req ChangeRoleRequest) error {
	if !model.ValidRole(req.Role) {
		return apperr.InvalidInput("invalid role: %s", req.Role)
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, findErr := s.repo.GetByID(txCtx, userID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return fmt.Errorf("failed to load user: %w", findErr)
		}

		user.Role = req.Role
		if saveErr := s.repo.Update(txCtx, user); saveErr != nil {
			return fmt.Errorf("failed to update user: %w", saveErr)
		}

		entry := &model.AuditLog{
			UserID:     parseOptionalUUID(adminID),
			Action:     model.ActionChangeUserRole,
			EntityID:   user.ID.String(),
			EntityName: user.Email,
			Details:    fmt.Sprintf(`{"role":%q}`, req.Role),
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

func (s *userService) DeleteUser(ctx context.Context, adminID, id string) error {
	userID, err := uuid.Parse(id)
	if err != nil {
		return apperr.InvalidInput("invalid user id")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		user, findErr := s.repo.GetByID(txCtx, userID)
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return apperr.NotFound("user not found")
			}
			return fmt.Errorf("failed to load user: %w", findErr)
		}

		// A user with requests on file cannot be removed
		count, countErr := s.requestRepo.CountByRequester(txCtx, userID)
		if countErr != nil {
			return fmt.Errorf("failed to count user requests: %w", countErr)
		}
		if count > 0 {
			return apperr.InvalidState("user has existing requests and cannot be deleted")
		}

		if delErr := s.repo.Delete(txCtx, userID); delErr != nil {
			return fmt.Errorf("failed to delete user: %w", delErr)
		}

		entry := &model.AuditLog{
			UserID:     parseOptionalUUID(adminID),
			Action:     model.ActionDeleteUser,
			EntityID:   user.ID.String(),
			EntityName: user.Email,
		}
		if auditErr := s.auditRepo.Log(txCtx, entry); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}
		return nil
	})
}

// --- Helpers ---

func validateNewPassword(password, confirm string) error {
	if password != confirm {
		return apperr.InvalidInput("passwords do not match")
	}
	if len(password) < minPasswordLen {
		return apperr.InvalidInput("password must be at least %d characters", minPasswordLen)
	}
	return nil
}

func mapToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID.String(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      user.Role,
		Favored:   user.Favored,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}
