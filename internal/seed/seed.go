// Package seed fills the global role and privilege catalogue and creates the
// first platform administrator.
package seed

import (
	"errors"
	"fmt"
	"strings"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Admin is the platform administrator created on first start
type Admin struct {
	Email    string
	Password string // empty skips creation
}

// Run seeds privileges, roles and the platform admin. It is safe to call on
// every start.
func Run(db *gorm.DB, admin Admin, log zerolog.Logger) error {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 1. Privileges first, roles reference them
	if err := privilegeRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("seed privileges: %w", err)
	}
	all, err := privilegeRepo.FindAll()
	if err != nil {
		return err
	}

	// 2. Roles with their default privileges
	if err := roleRepo.SeedDefaults(all); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	// 3. Platform admin
	return seedAdmin(db, roleRepo, admin, log)
}

func seedAdmin(db *gorm.DB, roleRepo repository.RoleRepository, admin Admin, log zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		return nil
	}

	userRepo := repository.NewUserRepo(db)
	if _, err := userRepo.FindByEmail(email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if admin.Password == "" {
		log.Warn().Str("email", email).Msg("SEED_ADMIN_PASSWORD not set, platform admin not created")
		return nil
	}

	role, err := roleRepo.FindByCode(model.RolePlatformAdmin)
	if err != nil {
		return fmt.Errorf("platform role: %w", err)
	}

	company := &model.Company{Name: "Platform", Email: email, IsActive: true}
	company.CreatedBy = "system"
	company.UpdatedBy = "system"

	user := &model.User{
		Email:      email,
		FullName:   "Platform Administrator",
		RoleID:     &role.ID,
		IsActive:   true,
		Privileges: role.Privileges,
	}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(admin.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := repository.NewCompanyRepo(tx).Create(company); err != nil {
			return err
		}
		user.CompanyID = company.ID
		return userRepo.WithTx(tx).Create(user)
	})
	if err != nil {
		return fmt.Errorf("create platform admin: %w", err)
	}

	log.Info().Str("email", email).Msg("platform admin created")
	return nil
}
