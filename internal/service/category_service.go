package service

import (
	"errors"
	"strings"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
)

var ErrInvalidKind = errors.New("kind must be income or expense")

type CategoryService interface {
	List(actor Actor, kind string) ([]model.Category, error)
	Create(actor Actor, req *CategoryRequest) (*model.Category, error)
	Delete(actor Actor, id uuid.UUID) error
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Kind string `json:"kind" validate:"required,oneof=income expense"`
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(actor Actor, kind string) ([]model.Category, error) {
	k := model.TransactionKind(kind)
	if k != "" && k != model.KindIncome && k != model.KindExpense {
		return nil, ErrInvalidKind
	}
	return s.repo.FindAll(actor.CompanyID, k)
}

func (s *categoryService) Create(actor Actor, req *CategoryRequest) (*model.Category, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	c := &model.Category{
		Name: strings.TrimSpace(req.Name),
		Kind: model.TransactionKind(req.Kind),
	}
	c.CompanyID = actor.CompanyID
	c.CreatedBy = actor.audit()
	c.UpdatedBy = actor.audit()
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(actor Actor, id uuid.UUID) error {
	return notFound(s.repo.Delete(actor.CompanyID, id), ErrCategoryNotFound)
}
