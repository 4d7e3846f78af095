package service

import (
	"context"
	"encoding/json"
	"time"

	"fieldexpense/internal/model"
	"fieldexpense/internal/repository"
	"fieldexpense/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username     string `json:"username" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Role         string `json:"role" binding:"required,oneof=admin finance supervisor employee"`
	SupervisorID string `json:"supervisor_id"`
	BaseLocation string `json:"base_location"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AssignSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	SupervisorID string    `json:"supervisor_id,omitempty"`
	BaseLocation string    `json:"base_location,omitempty"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	AssignSupervisor(ctx context.Context, userID, supervisorID uuid.UUID) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	jwtSecret []byte
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	jwtSecret string,
) UserService {
	return &userService{repo: repo, auditRepo: auditRepo, txManager: txManager, jwtSecret: []byte(jwtSecret)}
}

// Helper: parse model to standard json API response
func mapToUserResponse(user *model.User) *UserResponse {
	resp := &UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         user.Role,
		BaseLocation: user.BaseLocation,
		CreatedAt:    user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    user.UpdatedAt.Format(time.RFC3339),
	}
	if user.SupervisorID != nil {
		resp.SupervisorID = user.SupervisorID.String()
	}
	return resp
}

func (s *userService) CreateUser(ctx context.Context, actorID uuid.UUID, req CreateUserRequest) (*UserResponse, error) {
	if !model.ValidRole(req.Role) {
		return nil, apperror.Validation("invalid role: must be admin, finance, supervisor, or employee")
	}

	// Double check username/email uniqueness via repo directly
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, apperror.Conflict("username %s already exists", req.Username)
	}
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, apperror.Conflict("email %s already exists", req.Email)
	}

	var supervisorID *uuid.UUID
	if req.SupervisorID != "" {
		parsed, err := uuid.Parse(req.SupervisorID)
		if err != nil {
			return nil, apperror.Validation("invalid supervisor_id: %q", req.SupervisorID)
		}
		supervisor, err := s.repo.GetByID(ctx, parsed)
		if err != nil {
			return nil, err
		}
		if supervisor.Role != model.RoleSupervisor {
			return nil, apperror.Validation("user %s is not a supervisor", parsed)
		}
		supervisorID = &parsed
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		Password:     string(hashedPassword),
		Role:         req.Role,
		SupervisorID: supervisorID,
		BaseLocation: req.BaseLocation,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, user); createErr != nil {
			return createErr
		}
		details, _ := json.Marshal(map[string]string{"email": user.Email, "role": user.Role})
		return s.auditRepo.Log(txCtx, &model.AuditLog{
			UserID:     &actorID,
			Action:     model.ActionCreateUser,
			EntityID:   user.ID.String(),
			EntityName: user.Username,
			Details:    string(details),
		})
	})
	if err != nil {
		return nil, err
	}

	return mapToUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Validation("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.Validation("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &TokenResponse{Token: tokenString}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
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
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToUserResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) AssignSupervisor(ctx context.Context, userID, supervisorID uuid.UUID) (*UserResponse, error) {
	if userID == supervisorID {
		return nil, apperror.Validation("a user cannot supervise themselves")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	supervisor, err := s.repo.GetByID(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if supervisor.Role != model.RoleSupervisor {
		return nil, apperror.Validation("user %s is not a supervisor", supervisorID)
	}

	user.SupervisorID = &supervisorID
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return mapToUserResponse(user), nil
}
