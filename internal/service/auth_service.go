package service

import (
	"errors"
	"strings"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/ws"
	"go-cashbook-api/pkg/jwt"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrCompanyInactive    = errors.New("company account is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
)

const (
	// sessions without a heartbeat for this long must log in again
	sessionIdleTimeout = 30 * time.Minute
	trialPeriod        = 14 * 24 * time.Hour
	defaultPlan        = "mensal"
)

type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	Register(req *RegisterRequest) (*LoginResponse, error)
	ResetPassword(email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	Heartbeat(actor Actor) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

// RegisterRequest signs up a new company together with its owner
type RegisterRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=255"`
	Document    string `json:"document" validate:"max=20"`
	FullName    string `json:"full_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	PhoneNumber string `json:"phone_number" validate:"max=20"`
}

type authService struct {
	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	companyRepo repository.CompanyRepository
	subRepo     repository.SubscriptionRepository
	tokens      *jwt.Manager
	db          *gorm.DB
	wsHub       *ws.Hub
	log         zerolog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	companyRepo repository.CompanyRepository,
	subRepo repository.SubscriptionRepository,
	tokens *jwt.Manager,
	db *gorm.DB,
	hub *ws.Hub,
	log zerolog.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		roleRepo:    roleRepo,
		companyRepo: companyRepo,
		subRepo:     subRepo,
		tokens:      tokens,
		db:          db,
		wsHub:       hub,
		log:         log.With().Str("component", "auth").Logger(),
	}
}

func (s *authService) Login(email, password string) (*LoginResponse, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	company, err := s.companyRepo.FindByID(user.CompanyID)
	if err != nil || !company.IsActive {
		return nil, ErrCompanyInactive
	}

	return s.startSession(user)
}

// startSession rotates the token version, so any older token stops working
func (s *authService) startSession(user *model.User) (*LoginResponse, error) {
	now := time.Now()
	user.TokenVersion = uuid.New().String()
	user.LastSeenAt = &now
	if err := s.userRepo.Update(user); err != nil {
		return nil, errors.New("failed to update session")
	}

	token, err := s.tokens.GenerateToken(jwt.Subject{
		UserID:       user.ID,
		CompanyID:    user.CompanyID,
		Email:        user.Email,
		Name:         user.FullName,
		RoleCode:     user.RoleCode(),
		Privileges:   user.PrivilegeCodes(),
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	s.log.Info().Str("user_id", user.ID.String()).Str("company_id", user.CompanyID.String()).Msg("login")
	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

// Register creates the company, its OWNER and a trial subscription in one
// database transaction, then logs the owner in
func (s *authService) Register(req *RegisterRequest) (*LoginResponse, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, _ := s.userRepo.FindByEmail(email); existing != nil {
		return nil, ErrEmailExists
	}
	role, err := s.roleRepo.FindByCode(model.RoleOwner)
	if err != nil {
		return nil, ErrRoleNotFound
	}

	company := &model.Company{
		Name:     strings.TrimSpace(req.CompanyName),
		Document: digitsOnly(req.Document),
		Email:    email,
		IsActive: true,
	}
	company.ID = uuid.New()

	user := &model.User{
		CompanyID:   company.ID,
		Email:       email,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		RoleID:      &role.ID,
		IsActive:    true,
		Privileges:  role.Privileges,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}

	trialEnd := time.Now().Add(trialPeriod)
	sub := &model.Subscription{
		CompanyID:        company.ID,
		Plan:             defaultPlan,
		Price:            decimal.Zero,
		Status:           model.SubscriptionPending,
		CurrentPeriodEnd: &trialEnd,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.companyRepo.WithTx(tx).Create(company); err != nil {
			return err
		}
		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			return err
		}
		return s.subRepo.WithTx(tx).Create(sub)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", company.ID.String()).Str("email", email).Msg("company registered")

	user.Role = role
	return s.startSession(user)
}

func (s *authService) ResetPassword(email, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return ErrUserNotFound
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := user.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	if err := s.userRepo.UpdatePassword(user.ID, user.Password); err != nil {
		return err
	}
	// drop every open session
	return s.userRepo.UpdateTokenVersion(user.ID, uuid.New().String())
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !user.OwnsSession(claims.TokenVersion) {
		return nil, ErrSessionReplaced
	}
	if user.IdleSince(time.Now(), sessionIdleTimeout) {
		return nil, ErrSessionTimeout
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.PrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(actor Actor) error {
	if err := s.userRepo.UpdateLastSeen(actor.UserID); err != nil {
		return err
	}

	s.wsHub.Publish(actor.CompanyID, map[string]interface{}{
		"type":         "user_status_update",
		"user_id":      actor.UserID.String(),
		"status":       "online",
		"last_seen_at": time.Now(),
	})
	return nil
}
