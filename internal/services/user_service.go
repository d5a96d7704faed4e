package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"depot-backend/internal/auth"
	"depot-backend/internal/cache"
	"depot-backend/internal/models"
	"depot-backend/internal/repositories"
)

type UserService struct {
	Repo       *repositories.UserRepository
	LogRepo    *repositories.RequestLogRepository
	JWTManager *auth.JWTManager
	Issuer     string // shown in authenticator apps
}

func NewUserService(repo *repositories.UserRepository, logRepo *repositories.RequestLogRepository,
	jwtManager *auth.JWTManager, issuer string) *UserService {
	return &UserService{
		Repo:       repo,
		LogRepo:    logRepo,
		JWTManager: jwtManager,
		Issuer:     issuer,
	}
}

// Login checks credentials. Accounts with 2FA enabled get a short-lived temp
// token that must be exchanged through Verify2FA.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, invalid("email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountSuspended
	}

	if user.TOTPEnabled {
		temp, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{TempToken: temp, Requires2FA: true}, nil
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Verify2FA exchanges a temp token and a valid code for a session token
func (s *UserService) Verify2FA(ctx context.Context, req *models.Verify2FARequest) (*models.AuthResponse, error) {
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Repo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || user.DeletedAt != nil {
		return nil, ErrAccountSuspended
	}
	if !auth.ValidateTOTP(req.Code, user.TOTPSecret) {
		return nil, ErrInvalidTOTPCode
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// Logout revokes the token id until the token would have expired anyway
func (s *UserService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) {
	if tokenID == "" {
		return
	}
	cache.RevokeToken(ctx, tokenID, expiresAt)
}

// Me is the session view: profile plus the areas the role may open
func (s *UserService) Me(user *models.User) *models.SessionResponse {
	return &models.SessionResponse{User: user, Areas: auth.AreasFor(user.Role)}
}

func validateUser(name, email, role string) error {
	v := &validator{}
	v.check(strings.TrimSpace(name) != "", "name is required")
	_, err := mail.ParseAddress(email)
	v.check(strings.TrimSpace(email) != "" && err == nil, "a valid email is required")
	v.check(models.ValidRole(role), "role must be one of admin, cashier, warehouse, empties")
	return v.Err()
}

func (s *UserService) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := validateUser(req.Name, req.Email, req.Role); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("a user with this email already exists")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.Repo.List(ctx)
}

// UpdateUser changes profile fields; the password only when one is given
func (s *UserService) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	if err := validateUser(req.Name, req.Email, req.Role); err != nil {
		return nil, err
	}
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Role == models.RoleAdmin && req.Role != models.RoleAdmin && user.IsActive {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			return nil, invalid("%s", err.Error())
		}
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Role = req.Role
	if err := s.Repo.Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, invalid("a user with this email already exists")
		}
		return nil, err
	}
	if hash != "" {
		if err := s.Repo.SetPassword(ctx, id, hash); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// ToggleActive suspends or reinstates an account. Suspension takes effect on
// the user's next request since the middleware reloads the user every time.
func (s *UserService) ToggleActive(ctx context.Context, id, actorID int) (*models.User, error) {
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.DeletedAt != nil {
		return nil, ErrNotFound
	}
	if user.IsActive {
		if id == actorID {
			return nil, invalid("you cannot suspend your own account")
		}
		if user.Role == models.RoleAdmin {
			if err := s.ensureAnotherAdmin(ctx); err != nil {
				return nil, err
			}
		}
	}
	if err := s.Repo.SetActive(ctx, id, !user.IsActive); err != nil {
		return nil, err
	}
	user.IsActive = !user.IsActive
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id, actorID int) error {
	if id == actorID {
		return invalid("you cannot delete your own account")
	}
	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin && user.IsActive {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	return s.Repo.SoftDelete(ctx, id)
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	n, err := s.Repo.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return ErrLastAdmin
	}
	return nil
}

// SetupTOTP stores a fresh, not yet enabled secret for the user
func (s *UserService) SetupTOTP(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	secret, url, err := auth.GenerateTOTP(s.Issuer, user.Email)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.SetTOTPSecret(ctx, user.ID, secret); err != nil {
		return nil, err
	}
	return &models.TOTPSetupResponse{Secret: secret, OTPAuthURL: url}, nil
}

// EnableTOTP turns 2FA on once the user proves the authenticator works
func (s *UserService) EnableTOTP(ctx context.Context, userID int, code string) error {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPSecret == "" {
		return invalid("run 2FA setup first")
	}
	if !auth.ValidateTOTP(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Repo.EnableTOTP(ctx, userID)
}

func (s *UserService) DisableTOTP(ctx context.Context, userID int, code string) error {
	user, err := s.Repo.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.TOTPEnabled && !auth.ValidateTOTP(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.Repo.DisableTOTP(ctx, userID)
}

func (s *UserService) ListRequestLogs(ctx context.Context, f models.RequestLogFilter) ([]*models.RequestLog, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return s.LogRepo.List(ctx, f)
}
