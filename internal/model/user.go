package model

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// User belongs to exactly one company. Email is unique across tenants since
// login happens before the company is known.
type User struct {
	BaseModel
	CompanyID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"company_id"`
	Company     *Company    `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Email       string      `gorm:"type:varchar(255);uniqueIndex;not null" json:"email" validate:"required,email"`
	Password    string      `gorm:"type:varchar(255);not null" json:"-"`
	FullName    string      `gorm:"type:varchar(255)" json:"full_name" validate:"required"`
	PhoneNumber string      `gorm:"type:varchar(20)" json:"phone_number"`
	BirthDate   *time.Time  `gorm:"type:date" json:"birth_date,omitempty"`
	RoleID      *uint       `gorm:"index" json:"role_id"`
	Role        *Role       `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive    bool        `gorm:"default:true" json:"is_active"`
	Privileges  []Privilege `gorm:"many2many:user_privileges;" json:"privileges,omitempty"`

	// Rotated on every login and password change; tokens carry the value
	// they were issued with, so only the newest session is accepted.
	TokenVersion string     `gorm:"type:varchar(255);default:''" json:"-"`
	LastSeenAt   *time.Time `json:"last_seen_at,omitempty"`
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// OwnsSession reports whether a token issued with version is still current
func (u *User) OwnsSession(version string) bool {
	return u.TokenVersion != "" && u.TokenVersion == version
}

// IdleSince reports whether the user has shown no activity for longer than
// timeout. A user never seen is idle.
func (u *User) IdleSince(now time.Time, timeout time.Duration) bool {
	return u.LastSeenAt == nil || now.Sub(*u.LastSeenAt) > timeout
}

func (u *User) HasPrivilege(code string) bool {
	for _, p := range u.Privileges {
		if p.Code == code {
			return true
		}
	}
	return false
}

// RoleCode is "" when the role was not preloaded
func (u *User) RoleCode() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Code
}

func (u *User) PrivilegeCodes() []string {
	codes := make([]string, len(u.Privileges))
	for i, p := range u.Privileges {
		codes[i] = p.Code
	}
	return codes
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	CompanyID   uuid.UUID  `json:"company_id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	BirthDate   *time.Time `json:"birth_date,omitempty"`
	RoleID      *uint      `json:"role_id,omitempty"`
	RoleCode    string     `json:"role_code,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastSeenAt  *time.Time `json:"last_seen_at,omitempty"`
	Privileges  []string   `json:"privileges"`
}

func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		CompanyID:   u.CompanyID,
		Email:       u.Email,
		FullName:    u.FullName,
		PhoneNumber: u.PhoneNumber,
		BirthDate:   u.BirthDate,
		RoleID:      u.RoleID,
		RoleCode:    u.RoleCode(),
		IsActive:    u.IsActive,
		LastSeenAt:  u.LastSeenAt,
		Privileges:  u.PrivilegeCodes(),
	}
}
