package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/auth"
	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

// AuthService handles authentication business logic
type AuthService struct {
	users       UserStore
	vendors     VendorStore
	clients     ClientStore
	audit       auditor
	tokenSvc    *auth.TokenService
	hasher      *auth.PasswordHasher
	minPassword int
	log         *logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserStore,
	vendors VendorStore,
	clients ClientStore,
	auditStore AuditStore,
	tokenSvc *auth.TokenService,
	cfg config.PasswordConfig,
	log *logger.Logger,
) *AuthService {
	l := log.WithComponent("auth_service")
	return &AuthService{
		users:       users,
		vendors:     vendors,
		clients:     clients,
		audit:       auditor{store: auditStore, log: l},
		tokenSvc:    tokenSvc,
		hasher:      auth.NewPasswordHasher(cfg),
		minPassword: cfg.MinLength,
		log:         l,
	}
}

// RegisterRequest contains the data for registering a new user
type RegisterRequest struct {
	Email        string     `json:"email"`
	Password     string     `json:"password"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Phone        string     `json:"phone"`
	Role         model.Role `json:"role"`
	BusinessName string     `json:"businessName"`
	Description  string     `json:"description"`
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"tokenType"`
	ExpiresIn int         `json:"expiresIn"`
	User      *model.User `json:"user"`
}

// Register creates a client or vendor account and signs the user in.
// Vendors start pending and must be approved by an admin.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	email := auth.NormalizeEmail(req.Email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, fmt.Errorf("%w: firstName is required", ErrInvalidInput)
	}

	role := req.Role
	if role == "" {
		role = model.RoleClient
	}
	// Admins are provisioned out of band.
	if role != model.RoleClient && role != model.RoleVendor {
		return nil, fmt.Errorf("%w: role must be client or vendor", ErrInvalidInput)
	}
	if role == model.RoleVendor && strings.TrimSpace(req.BusinessName) == "" {
		return nil, fmt.Errorf("%w: businessName is required for vendors", ErrInvalidInput)
	}

	user, err := s.newUser(ctx, email, req.Password, req.FirstName, req.LastName, req.Phone, role)
	if err != nil {
		return nil, err
	}
	now := user.CreatedAt

	var vendor *model.Vendor
	var client *model.Client
	if role == model.RoleVendor {
		vendor = &model.Vendor{
			ID:           generateID("vnd"),
			UserID:       user.ID,
			BusinessName: strings.TrimSpace(req.BusinessName),
			Description:  req.Description,
			Status:       model.VendorStatusPending,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	} else {
		client = &model.Client{ID: generateID("cli"), UserID: user.ID, CreatedAt: now}
	}

	if err := s.users.CreateAccount(ctx, user, vendor, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("user registered")
	s.audit.record(ctx, user.ID, model.AuditActionRegister, "user", user.ID, map[string]interface{}{"role": role})

	return s.issue(user)
}

// CreateAdmin provisions an administrator account. It is not reachable over
// HTTP; operators run it from the migrate tool.
func (s *AuthService) CreateAdmin(ctx context.Context, email, password, firstName, lastName string) (*model.User, error) {
	email = auth.NormalizeEmail(email)
	if err := auth.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if strings.TrimSpace(firstName) == "" {
		return nil, fmt.Errorf("%w: firstName is required", ErrInvalidInput)
	}

	user, err := s.newUser(ctx, email, password, firstName, lastName, "", model.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.users.CreateAccount(ctx, user, nil, nil); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	s.audit.record(ctx, user.ID, model.AuditActionRegister, "user", user.ID, map[string]interface{}{"role": model.RoleAdmin})
	return user, nil
}

// newUser checks the password and email availability and builds an
// unsaved user with a hashed password.
func (s *AuthService) newUser(ctx context.Context, email, password, firstName, lastName, phone string, role model.Role) (*model.User, error) {
	if err := auth.ValidatePassword(password, s.minPassword); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPasswordTooWeak, err.Error())
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	return &model.User{
		ID:           generateID("usr"),
		Email:        email,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Phone:        strings.TrimSpace(phone),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Login verifies credentials and returns an access token
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = auth.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, stale, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("stored password hash is unreadable")
	}
	if err != nil || !ok {
		s.audit.record(ctx, user.ID, model.AuditActionLoginFailed, "user", user.ID, nil)
		return nil, ErrInvalidCredentials
	}
	if stale {
		s.rehash(ctx, user, password)
	}

	s.audit.record(ctx, user.ID, model.AuditActionLogin, "user", user.ID, nil)
	return s.issue(user)
}

// rehash upgrades a hash made with old argon2 costs. Failure only means
// the upgrade is retried at the next login.
func (s *AuthService) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to upgrade password hash")
		return
	}
	user.PasswordHash = hash
	s.log.Info().Str("user_id", user.ID).Msg("password hash upgraded")
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	tok, err := s.tokenSvc.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		Token:     tok.Token,
		TokenType: tok.TokenType,
		ExpiresIn: tok.ExpiresIn,
		User:      user,
	}, nil
}

// Profile is the authenticated user with their role-specific record
type Profile struct {
	User   *model.User   `json:"user"`
	Vendor *model.Vendor `json:"vendor,omitempty"`
	Client *model.Client `json:"client,omitempty"`
}

// Me loads the profile of the authenticated user
func (s *AuthService) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	p := &Profile{User: user}
	switch user.Role {
	case model.RoleVendor:
		v, err := s.vendors.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load vendor: %w", err)
		}
		p.Vendor = v
	case model.RoleClient:
		c, err := s.clients.GetByUserID(ctx, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load client: %w", err)
		}
		p.Client = c
	}
	return p, nil
}
