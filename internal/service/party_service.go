package service

import (
	"strings"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartyService manages one kind of party: customers or suppliers
type PartyService interface {
	List(actor Actor, search string) ([]model.Party, error)
	Get(actor Actor, id uuid.UUID) (*model.Party, error)
	Create(actor Actor, req *PartyRequest) (*model.Party, error)
	Update(actor Actor, id uuid.UUID, req *PartyRequest) (*model.Party, error)
	Delete(actor Actor, id uuid.UUID) error
	Ledger(actor Actor, id uuid.UUID) (*PartyLedger, error)
}

type PartyRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Document string `json:"document" validate:"max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"max=20"`
	Note     string `json:"note"`
}

// PartyLedger is every installment and entry tied to one party
type PartyLedger struct {
	Party        model.Party         `json:"party"`
	Transactions []model.Transaction `json:"transactions"`
	TotalAmount  decimal.Decimal     `json:"total_amount"`
	TotalPaid    decimal.Decimal     `json:"total_paid"`
	TotalOpen    decimal.Decimal     `json:"total_open"`
	OverdueCount int                 `json:"overdue_count"`
}

type partyService struct {
	repo     repository.PartyRepository
	txRepo   repository.TransactionRepository
	kind     model.PartyKind
	notFound error
	loc      *time.Location
}

func NewCustomerService(repo repository.PartyRepository, txRepo repository.TransactionRepository, loc *time.Location) PartyService {
	return &partyService{repo: repo, txRepo: txRepo, kind: model.PartyCustomer, notFound: ErrCustomerNotFound, loc: loc}
}

func NewSupplierService(repo repository.PartyRepository, txRepo repository.TransactionRepository, loc *time.Location) PartyService {
	return &partyService{repo: repo, txRepo: txRepo, kind: model.PartySupplier, notFound: ErrSupplierNotFound, loc: loc}
}

func (s *partyService) List(actor Actor, search string) ([]model.Party, error) {
	return s.repo.FindAll(actor.CompanyID, strings.TrimSpace(search))
}

func (s *partyService) Get(actor Actor, id uuid.UUID) (*model.Party, error) {
	p, err := s.repo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, s.notFound)
	}
	return p, nil
}

func (s *partyService) Create(actor Actor, req *PartyRequest) (*model.Party, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	p := &model.Party{
		Name:     strings.TrimSpace(req.Name),
		Document: digitsOnly(req.Document),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Note:     req.Note,
	}
	p.CompanyID = actor.CompanyID
	p.CreatedBy = actor.audit()
	p.UpdatedBy = actor.audit()
	if err := s.repo.Create(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *partyService) Update(actor Actor, id uuid.UUID, req *PartyRequest) (*model.Party, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	p, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	p.Name = strings.TrimSpace(req.Name)
	p.Document = digitsOnly(req.Document)
	p.Email = strings.TrimSpace(req.Email)
	p.Phone = strings.TrimSpace(req.Phone)
	p.Note = req.Note
	p.UpdatedBy = actor.audit()
	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *partyService) Delete(actor Actor, id uuid.UUID) error {
	return notFound(s.repo.Delete(actor.CompanyID, id, actor.audit()), s.notFound)
}

func (s *partyService) Ledger(actor Actor, id uuid.UUID) (*PartyLedger, error) {
	p, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}

	var f repository.TransactionFilter
	if s.kind == model.PartyCustomer {
		f.CustomerID = &id
	} else {
		f.SupplierID = &id
	}
	rows, err := s.txRepo.FindAll(actor.CompanyID, f)
	if err != nil {
		return nil, err
	}

	ledger := &PartyLedger{
		Party:        *p,
		Transactions: rows,
		TotalAmount:  decimal.Zero,
		TotalPaid:    decimal.Zero,
		TotalOpen:    decimal.Zero,
	}
	today := today(s.loc)
	for i := range rows {
		t := &rows[i]
		ledger.TotalAmount = ledger.TotalAmount.Add(t.Amount.Abs())
		switch {
		case t.Status.Settled():
			ledger.TotalPaid = ledger.TotalPaid.Add(t.Amount.Abs())
		default:
			ledger.TotalPaid = ledger.TotalPaid.Add(t.PaidAmount)
			ledger.TotalOpen = ledger.TotalOpen.Add(t.Ledger().Outstanding())
			if t.Overdue(today) {
				ledger.OverdueCount++
			}
		}
	}
	return ledger, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
