package repository

import (
	"errors"

	"go-cashbook-api/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll() ([]model.Role, error)
	FindByID(id uint) (*model.Role, error)
	FindByCode(code string) (*model.Role, error)
	SeedDefaults(all []model.Privilege) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll() ([]model.Role, error) {
	var roles []model.Role
	err := r.db.Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByID(id uint) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").First(&role, id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) FindByCode(code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.Preload("Privileges").Where("code = ?", code).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// SeedDefaults creates missing roles and gives roles without privileges
// their default set
func (r *roleRepo) SeedDefaults(all []model.Privilege) error {
	for _, defaultRole := range model.DefaultRoles {
		role, err := r.FindByCode(defaultRole.Code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			role = &model.Role{Code: defaultRole.Code, Name: defaultRole.Name, Description: defaultRole.Description}
			if err := r.db.Create(role).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if len(role.Privileges) == 0 {
			privileges := model.PrivilegesForRole(role.Code, all)
			if len(privileges) == 0 {
				continue
			}
			if err := r.db.Model(role).Association("Privileges").Replace(privileges); err != nil {
				return err
			}
		}
	}
	return nil
}
