package service

import (
	"errors"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrCompanyNotFound = errors.New("company not found")

// CompanyService is the platform back-office view over tenants
type CompanyService interface {
	List() ([]model.Company, error)
	Get(id uuid.UUID) (*model.Company, error)
	SetActive(actor Actor, id uuid.UUID, active bool) (*model.Company, error)
}

type companyService struct {
	companyRepo repository.CompanyRepository
	log         zerolog.Logger
}

func NewCompanyService(companyRepo repository.CompanyRepository, log zerolog.Logger) CompanyService {
	return &companyService{companyRepo: companyRepo, log: log.With().Str("component", "backoffice").Logger()}
}

func (s *companyService) List() ([]model.Company, error) {
	return s.companyRepo.FindAll()
}

func (s *companyService) Get(id uuid.UUID) (*model.Company, error) {
	c, err := s.companyRepo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrCompanyNotFound)
	}
	return c, nil
}

func (s *companyService) SetActive(actor Actor, id uuid.UUID, active bool) (*model.Company, error) {
	if err := s.companyRepo.SetActive(id, active, actor.audit()); err != nil {
		return nil, notFound(err, ErrCompanyNotFound)
	}
	s.log.Info().Str("company_id", id.String()).Bool("active", active).Str("by", actor.Email).Msg("company status changed")
	return s.Get(id)
}
