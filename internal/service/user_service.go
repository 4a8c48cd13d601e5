package service

import (
	"errors"
	"strings"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/dateutil"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
)

var (
	ErrEmailExists       = errors.New("email already exists")
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleNotAssignable = errors.New("role cannot be assigned inside a company")
	ErrDeleteSelf        = errors.New("you cannot delete your own account")
)

// UserService manages the users of the caller's company
type UserService interface {
	CreateUser(actor Actor, req *CreateUserRequest) (*model.User, error)
	UpdateUser(actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error)
	DeleteUser(actor Actor, userID uuid.UUID) error
	UpdateUserPrivileges(actor Actor, userID uuid.UUID, privilegeCodes []string) (*model.User, error)
	GetAllUsers(actor Actor) ([]model.UserResponse, error)
	GetUserByID(actor Actor, id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date" validate:"omitempty,date"`
	RoleID      uint    `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	PhoneNumber string  `json:"phone_number"`
	BirthDate   *string `json:"birth_date" validate:"omitempty,date"`
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo      repository.UserRepository
	privilegeRepo repository.PrivilegeRepository
	roleRepo      repository.RoleRepository
	loc           *time.Location
}

func NewUserService(userRepo repository.UserRepository, privilegeRepo repository.PrivilegeRepository, roleRepo repository.RoleRepository, loc *time.Location) UserService {
	return &userService{
		userRepo:      userRepo,
		privilegeRepo: privilegeRepo,
		roleRepo:      roleRepo,
		loc:           loc,
	}
}

// tenantRole loads a role a company owner may hand out
func (s *userService) tenantRole(id uint) (*model.Role, error) {
	role, err := s.roleRepo.FindByID(id)
	if err != nil {
		return nil, ErrRoleNotFound
	}
	if role.Code == model.RolePlatformAdmin {
		return nil, ErrRoleNotAssignable
	}
	return role, nil
}

func (s *userService) birthDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	d, err := dateutil.ParseDateIn(*raw, s.loc)
	if err != nil {
		return nil, errors.New("invalid birth_date format, use YYYY-MM-DD")
	}
	return &d, nil
}

func (s *userService) CreateUser(actor Actor, req *CreateUserRequest) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, _ := s.userRepo.FindByEmail(email); existing != nil {
		return nil, ErrEmailExists
	}

	role, err := s.tenantRole(req.RoleID)
	if err != nil {
		return nil, err
	}
	birthDate, err := s.birthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		CompanyID:   actor.CompanyID,
		Email:       email,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		BirthDate:   birthDate,
		RoleID:      &req.RoleID,
		IsActive:    true,
		Privileges:  role.Privileges,
	}
	user.CreatedBy = actor.audit()
	user.UpdatedBy = actor.audit()

	if err := user.SetPassword(req.Password); err != nil {
		return nil, errors.New("failed to hash password")
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindInCompany(actor.CompanyID, user.ID)
}

func (s *userService) UpdateUser(actor Actor, userID uuid.UUID, req *UpdateUserRequest) (*model.User, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindInCompany(actor.CompanyID, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if existing, _ := s.userRepo.FindByEmail(email); existing != nil {
			return nil, ErrEmailExists
		}
	}

	role, err := s.tenantRole(req.RoleID)
	if err != nil {
		return nil, err
	}
	birthDate, err := s.birthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}

	roleChanged := user.RoleID == nil || *user.RoleID != req.RoleID
	user.Email = email
	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	user.BirthDate = birthDate
	user.RoleID = &req.RoleID
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.audit()

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, errors.New("failed to hash password")
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	// a new role resets privileges to the role's defaults
	if roleChanged {
		if err := s.userRepo.UpdatePrivileges(user.ID, role.Privileges); err != nil {
			return nil, err
		}
	}

	return s.userRepo.FindInCompany(actor.CompanyID, userID)
}

func (s *userService) DeleteUser(actor Actor, userID uuid.UUID) error {
	if userID == actor.UserID {
		return ErrDeleteSelf
	}
	return notFound(s.userRepo.Delete(actor.CompanyID, userID, actor.audit()), ErrUserNotFound)
}

func (s *userService) UpdateUserPrivileges(actor Actor, userID uuid.UUID, privilegeCodes []string) (*model.User, error) {
	user, err := s.userRepo.FindInCompany(actor.CompanyID, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	// company:admin is platform-only
	codes := make([]string, 0, len(privilegeCodes))
	for _, c := range privilegeCodes {
		if c != model.PrivCompanyAdmin {
			codes = append(codes, c)
		}
	}
	privileges, err := s.privilegeRepo.FindByCodes(codes)
	if err != nil {
		return nil, errors.New("failed to find privileges")
	}

	if err := s.userRepo.UpdatePrivileges(user.ID, privileges); err != nil {
		return nil, err
	}

	user.UpdatedBy = actor.audit()
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return s.userRepo.FindInCompany(actor.CompanyID, userID)
}

func (s *userService) GetAllUsers(actor Actor) ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAllByCompany(actor.CompanyID)
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(actor Actor, id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindInCompany(actor.CompanyID, id)
	if err != nil {
		return nil, ErrUserNotFound
	}
	response := user.ToResponse()
	return &response, nil
}
