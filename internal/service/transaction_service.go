package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go-cashbook-api/internal/installment"
	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/ws"
	"go-cashbook-api/pkg/dateutil"
	"go-cashbook-api/pkg/money"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionHasPaid  = errors.New("transaction has payments; cancel them first")
	ErrInstallmentRow      = errors.New("installment rows are managed through their sale or purchase")
	ErrConcurrentUpdate    = errors.New("transaction was changed by another request, reload and retry")
	ErrInvalidQuery        = errors.New("invalid query")
)

type TransactionService interface {
	List(actor Actor, q TransactionQuery) ([]model.Transaction, error)
	Get(actor Actor, id uuid.UUID) (*model.Transaction, error)
	Create(actor Actor, req *TransactionRequest) (*model.Transaction, error)
	Update(actor Actor, id uuid.UUID, req *TransactionRequest) (*model.Transaction, error)
	Delete(actor Actor, id uuid.UUID) error
	ConfirmPayment(actor Actor, id uuid.UUID, req *PaymentRequest) (*model.Transaction, error)
	CancelPayment(actor Actor, id uuid.UUID) (*model.Transaction, error)
}

// TransactionQuery is the raw list filter as it arrives in the query string
type TransactionQuery struct {
	Status     string `query:"status"`
	Kind       string `query:"kind"`
	From       string `query:"from"`
	To         string `query:"to"`
	CustomerID string `query:"customer_id"`
	SupplierID string `query:"supplier_id"`
	CategoryID string `query:"category_id"`
	Open       bool   `query:"open"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// Filter parses q into a repository filter
func (q TransactionQuery) Filter(loc *time.Location) (repository.TransactionFilter, error) {
	var f repository.TransactionFilter

	if q.Status != "" {
		f.Status = installment.Status(q.Status)
		if !f.Status.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", ErrInvalidQuery, q.Status)
		}
	}
	if q.Kind != "" {
		f.Kind = model.TransactionKind(q.Kind)
		if f.Kind != model.KindIncome && f.Kind != model.KindExpense {
			return f, fmt.Errorf("%w: unknown kind %q", ErrInvalidQuery, q.Kind)
		}
	}
	for _, p := range []struct {
		raw string
		dst **time.Time
	}{{q.From, &f.From}, {q.To, &f.To}} {
		if p.raw == "" {
			continue
		}
		d, err := dateutil.ParseDateIn(p.raw, loc)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		*p.dst = &d
	}
	for _, p := range []struct {
		name string
		raw  string
		dst  **uuid.UUID
	}{
		{"customer_id", q.CustomerID, &f.CustomerID},
		{"supplier_id", q.SupplierID, &f.SupplierID},
		{"category_id", q.CategoryID, &f.CategoryID},
	} {
		raw := p.raw
		id, err := optionalID(p.name, &raw)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		*p.dst = id
	}

	f.OpenOnly = q.Open
	if q.Limit < 0 || q.Offset < 0 {
		return f, fmt.Errorf("%w: negative limit or offset", ErrInvalidQuery)
	}
	f.Limit, f.Offset = q.Limit, q.Offset
	return f, nil
}

// TransactionRequest creates or edits an ad-hoc entry. Amount is the
// magnitude; the sign comes from Kind.
type TransactionRequest struct {
	Kind          string  `json:"kind" validate:"required,oneof=income expense"`
	Description   string  `json:"description" validate:"required,max=255"`
	Amount        string  `json:"amount" validate:"required,decimal_positive"`
	Date          string  `json:"date" validate:"required,date"`
	PaymentMethod string  `json:"payment_method" validate:"max=20"`
	CategoryID    *string `json:"category_id"`
	CustomerID    *string `json:"customer_id"`
	SupplierID    *string `json:"supplier_id"`
}

// PaymentRequest confirms a full or partial payment. Version, when sent,
// must match the row the client last saw.
type PaymentRequest struct {
	PaidAmount    string `json:"paid_amount" validate:"required,decimal_positive"`
	Interest      string `json:"interest"`
	PaymentDate   string `json:"payment_date" validate:"omitempty,date"`
	PaymentMethod string `json:"payment_method" validate:"max=20"`
	HasCardFee    bool   `json:"has_card_fee"`
	CardFee       string `json:"card_fee"`
	Version       *int   `json:"version"`
}

type transactionService struct {
	txRepo repository.TransactionRepository
	refs   refs
	db     *gorm.DB
	wsHub  *ws.Hub
	loc    *time.Location
	log    zerolog.Logger
}

func NewTransactionService(
	txRepo repository.TransactionRepository,
	categoryRepo repository.CategoryRepository,
	customerRepo, supplierRepo repository.PartyRepository,
	db *gorm.DB,
	hub *ws.Hub,
	loc *time.Location,
	log zerolog.Logger,
) TransactionService {
	return &transactionService{
		txRepo: txRepo,
		refs:   refs{categories: categoryRepo, customers: customerRepo, suppliers: supplierRepo},
		db:     db,
		wsHub:  hub,
		loc:    loc,
		log:    log.With().Str("component", "transactions").Logger(),
	}
}

func (s *transactionService) List(actor Actor, q TransactionQuery) ([]model.Transaction, error) {
	f, err := q.Filter(s.loc)
	if err != nil {
		return nil, err
	}
	return s.txRepo.FindAll(actor.CompanyID, f)
}

func (s *transactionService) Get(actor Actor, id uuid.UUID) (*model.Transaction, error) {
	t, err := s.txRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, ErrTransactionNotFound)
	}
	return t, nil
}

type entryFields struct {
	kind       model.TransactionKind
	amount     decimal.Decimal
	date       time.Time
	categoryID *uuid.UUID
	customerID *uuid.UUID
	supplierID *uuid.UUID
}

func (s *transactionService) parseEntry(actor Actor, req *TransactionRequest) (*entryFields, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	e := &entryFields{kind: model.TransactionKind(req.Kind)}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", validator.ErrValidation, err)
	}
	e.amount = money.Cents(amount.Abs()).Mul(e.kind.Sign())

	if e.date, err = dateutil.ParseDateIn(req.Date, s.loc); err != nil {
		return nil, fmt.Errorf("%w: date: %v", validator.ErrValidation, err)
	}

	if e.categoryID, err = optionalID("category_id", req.CategoryID); err != nil {
		return nil, err
	}
	if e.customerID, err = optionalID("customer_id", req.CustomerID); err != nil {
		return nil, err
	}
	if e.supplierID, err = optionalID("supplier_id", req.SupplierID); err != nil {
		return nil, err
	}
	if err := s.refs.check(actor.CompanyID, e.kind, e.categoryID, e.customerID, e.supplierID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *transactionService) Create(actor Actor, req *TransactionRequest) (*model.Transaction, error) {
	e, err := s.parseEntry(actor, req)
	if err != nil {
		return nil, err
	}

	t := &model.Transaction{
		Kind:          e.kind,
		Description:   strings.TrimSpace(req.Description),
		Amount:        e.amount,
		Date:          e.date,
		Status:        installment.StatusPending,
		PaymentMethod: req.PaymentMethod,
		CategoryID:    e.categoryID,
		CustomerID:    e.customerID,
		SupplierID:    e.supplierID,
		Version:       1,
	}
	t.CompanyID = actor.CompanyID
	t.CreatedBy = actor.audit()
	t.UpdatedBy = actor.audit()

	if err := s.txRepo.Create(t); err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", actor.CompanyID.String()).Str("transaction_id", t.ID.String()).
		Str("amount", t.Amount.StringFixed(2)).Msg("transaction created")
	s.publish(actor, "transaction_created", t)
	return t, nil
}

func (s *transactionService) Update(actor Actor, id uuid.UUID, req *TransactionRequest) (*model.Transaction, error) {
	e, err := s.parseEntry(actor, req)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.txRepo.WithTx(tx)
		t, err := repo.FindByIDForUpdate(actor.CompanyID, id)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if t.IsInstallment() {
			return ErrInstallmentRow
		}
		if t.Status != installment.StatusPending || !t.PaidAmount.IsZero() {
			return ErrTransactionHasPaid
		}

		t.Kind = e.kind
		t.Description = strings.TrimSpace(req.Description)
		t.Amount = e.amount
		t.Date = e.date
		t.PaymentMethod = req.PaymentMethod
		t.CategoryID = e.categoryID
		t.CustomerID = e.customerID
		t.SupplierID = e.supplierID
		t.Version++
		t.UpdatedBy = actor.audit()
		return repo.Update(t)
	})
	if err != nil {
		return nil, err
	}

	t, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	s.publish(actor, "transaction_updated", t)
	return t, nil
}

func (s *transactionService) Delete(actor Actor, id uuid.UUID) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.txRepo.WithTx(tx)
		t, err := repo.FindByIDForUpdate(actor.CompanyID, id)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if t.IsInstallment() {
			return ErrInstallmentRow
		}
		if t.Status != installment.StatusPending || !t.PaidAmount.IsZero() {
			return ErrTransactionHasPaid
		}
		return repo.Delete(actor.CompanyID, id, actor.audit())
	})
	if err != nil {
		return err
	}

	s.wsHub.Publish(actor.CompanyID, map[string]interface{}{
		"type":           "transaction_deleted",
		"transaction_id": id,
		"user":           actor.wsUser(),
	})
	return nil
}

func (s *transactionService) parsePayment(req *PaymentRequest) (installment.Payment, error) {
	var p installment.Payment
	if err := validator.Check(req); err != nil {
		return p, err
	}

	var err error
	if p.Amount, err = money.Parse(req.PaidAmount); err != nil {
		return p, fmt.Errorf("%w: paid_amount: %v", validator.ErrValidation, err)
	}
	p.Amount = money.Cents(p.Amount)
	if req.Interest != "" {
		if p.Interest, err = money.Parse(req.Interest); err != nil {
			return p, fmt.Errorf("%w: interest: %v", validator.ErrValidation, err)
		}
		p.Interest = money.Cents(p.Interest)
	}
	if req.HasCardFee && req.CardFee != "" {
		if p.CardFee, err = money.Parse(req.CardFee); err != nil {
			return p, fmt.Errorf("%w: card_fee: %v", validator.ErrValidation, err)
		}
		p.CardFee = money.Cents(p.CardFee)
	}
	p.HasCardFee = req.HasCardFee

	// no date means paid today
	p.PaidAt, err = dateutil.ParseDateIn(req.PaymentDate, s.loc)
	if errors.Is(err, dateutil.ErrEmptyDate) {
		p.PaidAt = dateutil.OrNow(p.PaidAt, err, s.loc)
	} else if err != nil {
		return p, fmt.Errorf("%w: payment_date: %v", validator.ErrValidation, err)
	}
	p.Method = req.PaymentMethod
	return p, nil
}

// ConfirmPayment applies one payment under a row lock and a version check,
// and records it as a PaymentEntry in the same database transaction
func (s *transactionService) ConfirmPayment(actor Actor, id uuid.UUID, req *PaymentRequest) (*model.Transaction, error) {
	payment, err := s.parsePayment(req)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.txRepo.WithTx(tx)
		t, err := repo.FindByIDForUpdate(actor.CompanyID, id)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}
		if req.Version != nil && *req.Version != t.Version {
			return ErrConcurrentUpdate
		}

		version := t.Version
		next, err := installment.ApplyPayment(t.Ledger(), payment)
		if err != nil {
			return err
		}
		t.ApplyLedger(next)
		if payment.Method != "" {
			t.PaymentMethod = payment.Method
		}
		t.UpdatedBy = actor.audit()

		if err := repo.SavePaymentState(t, version); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return ErrConcurrentUpdate
			}
			return err
		}

		entry := &model.PaymentEntry{
			TransactionID: t.ID,
			Amount:        payment.Amount,
			Interest:      payment.Interest,
			PaymentDate:   payment.PaidAt,
			PaymentMethod: payment.Method,
		}
		entry.CompanyID = actor.CompanyID
		entry.CreatedBy = actor.audit()
		return repo.AddPayment(entry)
	})
	if err != nil {
		return nil, err
	}

	t, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("company_id", actor.CompanyID.String()).Str("transaction_id", id.String()).
		Str("paid", payment.Amount.StringFixed(2)).Str("status", string(t.Status)).Msg("payment confirmed")
	s.publish(actor, "payment_confirmed", t)
	return t, nil
}

// CancelPayment resets the row to pendente and drops its payment entries
func (s *transactionService) CancelPayment(actor Actor, id uuid.UUID) (*model.Transaction, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.txRepo.WithTx(tx)
		t, err := repo.FindByIDForUpdate(actor.CompanyID, id)
		if err != nil {
			return notFound(err, ErrTransactionNotFound)
		}

		version := t.Version
		next, err := installment.Cancel(t.Ledger())
		if err != nil {
			return err
		}
		t.ApplyLedger(next)
		t.UpdatedBy = actor.audit()

		if err := repo.SavePaymentState(t, version); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return ErrConcurrentUpdate
			}
			return err
		}
		return repo.DeletePayments(actor.CompanyID, t.ID)
	})
	if err != nil {
		return nil, err
	}

	t, err := s.Get(actor, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("company_id", actor.CompanyID.String()).Str("transaction_id", id.String()).Msg("payment cancelled")
	s.publish(actor, "payment_cancelled", t)
	return t, nil
}

func (s *transactionService) publish(actor Actor, event string, t *model.Transaction) {
	s.wsHub.Publish(actor.CompanyID, map[string]interface{}{
		"type": event,
		"transaction": map[string]interface{}{
			"id":          t.ID,
			"kind":        t.Kind,
			"description": t.Description,
			"amount":      t.Amount,
			"status":      t.Status,
			"paid_amount": t.PaidAmount,
			"date":        dateutil.FormatISO(t.Date),
			"version":     t.Version,
		},
		"user": actor.wsUser(),
	})
}
