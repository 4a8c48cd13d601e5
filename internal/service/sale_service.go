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
	ErrSaleNotFound      = errors.New("sale not found")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrGroupHasPayments  = errors.New("installments already have payments; cancel them before deleting")
	ErrTooManyCustomDate = errors.New("more installment dates than installments")
)

const maxInstallments = 120

type SaleService interface {
	CreateSale(actor Actor, req *DealRequest) (*model.Sale, error)
	CreatePurchase(actor Actor, req *DealRequest) (*model.Purchase, error)
	ListSales(actor Actor, q DealQuery) ([]model.Sale, error)
	ListPurchases(actor Actor, q DealQuery) ([]model.Purchase, error)
	GetSale(actor Actor, id uuid.UUID) (*model.Sale, error)
	GetPurchase(actor Actor, id uuid.UUID) (*model.Purchase, error)
	RescheduleSale(actor Actor, id uuid.UUID, req *RescheduleRequest) (*model.Sale, error)
	ReschedulePurchase(actor Actor, id uuid.UUID, req *RescheduleRequest) (*model.Purchase, error)
	DeleteSale(actor Actor, id uuid.UUID) error
	DeletePurchase(actor Actor, id uuid.UUID) error
	RepairSchedules(companyID uuid.UUID, dryRun bool) (*RepairReport, error)
}

// DealRequest creates a sale (PartyID is a customer) or a purchase
// (PartyID is a supplier). InstallmentDates overrides the due date of the
// installment at the same position.
type DealRequest struct {
	Description      string                   `json:"description" validate:"required,max=255"`
	TotalAmount      string                   `json:"total_amount" validate:"required,decimal_positive"`
	Date             string                   `json:"date" validate:"required,date"`
	InstallmentCount int                      `json:"installment_count" validate:"required,min=1,max=120"`
	InstallmentDates []installment.CustomDate `json:"installment_dates"`
	PaymentMethod    string                   `json:"payment_method" validate:"max=20"`
	PartyID          *string                  `json:"party_id"`
	CategoryID       *string                  `json:"category_id"`
}

// RescheduleRequest moves the unpaid installments of a group. Date, when
// set, replaces the deal date used as the base of the monthly rule. Rows
// whose due date was picked by hand keep it unless InstallmentDates names a
// new one or ResetCustomDates puts them back on the monthly rule.
type RescheduleRequest struct {
	Date             string                   `json:"date" validate:"omitempty,date"`
	InstallmentDates []installment.CustomDate `json:"installment_dates"`
	ResetCustomDates bool                     `json:"reset_custom_dates"`
}

// DealQuery is the raw list filter for sales and purchases
type DealQuery struct {
	PartyID string `query:"party_id"`
	From    string `query:"from"`
	To      string `query:"to"`
}

// RepairReport lists what RepairSchedules changed (or would change)
type RepairReport struct {
	Groups  int           `json:"groups"`
	Moved   []RepairedRow `json:"moved"`
	Skipped int           `json:"skipped"` // paid, partially paid or hand-dated rows left alone
}

type RepairedRow struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	Number        int       `json:"installment_number"`
	From          string    `json:"from"`
	To            string    `json:"to"`
}

type saleService struct {
	saleRepo     repository.DealRepository[model.Sale]
	purchaseRepo repository.DealRepository[model.Purchase]
	txRepo       repository.TransactionRepository
	refs         refs
	db           *gorm.DB
	wsHub        *ws.Hub
	loc          *time.Location
	log          zerolog.Logger
}

func NewSaleService(
	saleRepo repository.DealRepository[model.Sale],
	purchaseRepo repository.DealRepository[model.Purchase],
	txRepo repository.TransactionRepository,
	categoryRepo repository.CategoryRepository,
	customerRepo, supplierRepo repository.PartyRepository,
	db *gorm.DB,
	hub *ws.Hub,
	loc *time.Location,
	log zerolog.Logger,
) SaleService {
	return &saleService{
		saleRepo:     saleRepo,
		purchaseRepo: purchaseRepo,
		txRepo:       txRepo,
		refs:         refs{categories: categoryRepo, customers: customerRepo, suppliers: supplierRepo},
		db:           db,
		wsHub:        hub,
		loc:          loc,
		log:          log.With().Str("component", "sales").Logger(),
	}
}

// plan is a validated DealRequest with its installments computed
type plan struct {
	deal       model.Deal
	partyID    *uuid.UUID
	categoryID *uuid.UUID
	amounts    []decimal.Decimal
	dates      []time.Time
	custom     []installment.CustomDate
}

func (s *saleService) plan(actor Actor, kind model.TransactionKind, req *DealRequest) (*plan, error) {
	if err := validator.Check(req); err != nil {
		return nil, err
	}
	if len(req.InstallmentDates) > req.InstallmentCount {
		return nil, ErrTooManyCustomDate
	}

	total, err := money.Parse(req.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: total_amount: %v", validator.ErrValidation, err)
	}
	total = money.Cents(total)

	date, err := dateutil.ParseDateIn(req.Date, s.loc)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", validator.ErrValidation, err)
	}

	p := &plan{}
	if p.partyID, err = optionalID("party_id", req.PartyID); err != nil {
		return nil, err
	}
	if p.categoryID, err = optionalID("category_id", req.CategoryID); err != nil {
		return nil, err
	}

	var customerID, supplierID *uuid.UUID
	if kind == model.KindIncome {
		customerID = p.partyID
	} else {
		supplierID = p.partyID
	}
	if err := s.refs.check(actor.CompanyID, kind, p.categoryID, customerID, supplierID); err != nil {
		return nil, err
	}

	if p.amounts, err = installment.Split(total, req.InstallmentCount); err != nil {
		return nil, err
	}
	if p.dates, err = installment.Schedule(date, req.InstallmentDates, req.InstallmentCount, s.loc); err != nil {
		return nil, fmt.Errorf("%w: %v", validator.ErrValidation, err)
	}

	p.custom = req.InstallmentDates

	p.deal = model.Deal{
		Description:      strings.TrimSpace(req.Description),
		TotalAmount:      total,
		Date:             date,
		InstallmentCount: req.InstallmentCount,
		InstallmentGroup: uuid.New(),
		PaymentMethod:    req.PaymentMethod,
		CategoryID:       p.categoryID,
	}
	return p, nil
}

// installments builds the N ledger rows of p, signed by kind
func (p *plan) installments(actor Actor, kind model.TransactionKind) []model.Transaction {
	group := p.deal.InstallmentGroup
	n := len(p.amounts)
	rows := make([]model.Transaction, n)
	for i := range rows {
		desc := p.deal.Description
		if n > 1 {
			desc = fmt.Sprintf("%s (%d/%d)", p.deal.Description, i+1, n)
		}
		t := model.Transaction{
			Kind:              kind,
			Description:       desc,
			Amount:            p.amounts[i].Mul(kind.Sign()),
			Date:              p.dates[i],
			CustomDueDate:     installment.HasCustomDate(p.custom, i),
			Status:            installment.StatusPending,
			PaymentMethod:     p.deal.PaymentMethod,
			CategoryID:        p.categoryID,
			InstallmentGroup:  &group,
			InstallmentNumber: i + 1,
			InstallmentTotal:  n,
			Version:           1,
		}
		if kind == model.KindIncome {
			t.CustomerID = p.partyID
		} else {
			t.SupplierID = p.partyID
		}
		t.ID = uuid.New()
		t.CompanyID = actor.CompanyID
		t.CreatedBy = actor.audit()
		t.UpdatedBy = actor.audit()
		rows[i] = t
	}
	return rows
}

// CreateSale writes the sale and all of its installments atomically
func (s *saleService) CreateSale(actor Actor, req *DealRequest) (*model.Sale, error) {
	p, err := s.plan(actor, model.KindIncome, req)
	if err != nil {
		return nil, err
	}

	sale := &model.Sale{Deal: p.deal, CustomerID: p.partyID}
	sale.CompanyID = actor.CompanyID
	sale.CreatedBy = actor.audit()
	sale.UpdatedBy = actor.audit()
	rows := p.installments(actor, model.KindIncome)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.saleRepo.WithTx(tx).Create(sale); err != nil {
			return err
		}
		return s.txRepo.WithTx(tx).CreateBatch(rows)
	})
	if err != nil {
		return nil, err
	}
	sale.Installments = rows

	s.log.Info().Str("company_id", actor.CompanyID.String()).Str("sale_id", sale.ID.String()).
		Int("installments", len(rows)).Str("total", sale.TotalAmount.StringFixed(2)).Msg("sale created")
	s.publishDeal(actor, "sale_created", sale.ID, &sale.Deal)
	return sale, nil
}

// CreatePurchase writes the purchase and all of its installments atomically
func (s *saleService) CreatePurchase(actor Actor, req *DealRequest) (*model.Purchase, error) {
	p, err := s.plan(actor, model.KindExpense, req)
	if err != nil {
		return nil, err
	}

	purchase := &model.Purchase{Deal: p.deal, SupplierID: p.partyID}
	purchase.CompanyID = actor.CompanyID
	purchase.CreatedBy = actor.audit()
	purchase.UpdatedBy = actor.audit()
	rows := p.installments(actor, model.KindExpense)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.purchaseRepo.WithTx(tx).Create(purchase); err != nil {
			return err
		}
		return s.txRepo.WithTx(tx).CreateBatch(rows)
	})
	if err != nil {
		return nil, err
	}
	purchase.Installments = rows

	s.log.Info().Str("company_id", actor.CompanyID.String()).Str("purchase_id", purchase.ID.String()).
		Int("installments", len(rows)).Str("total", purchase.TotalAmount.StringFixed(2)).Msg("purchase created")
	s.publishDeal(actor, "purchase_created", purchase.ID, &purchase.Deal)
	return purchase, nil
}

func (s *saleService) dealFilter(q DealQuery) (repository.DealFilter, error) {
	var f repository.DealFilter
	raw := q.PartyID
	id, err := optionalID("party_id", &raw)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	f.PartyID = id
	if q.From != "" {
		d, err := dateutil.ParseDateIn(q.From, s.loc)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		f.From = &d
	}
	if q.To != "" {
		d, err := dateutil.ParseDateIn(q.To, s.loc)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
		}
		f.To = &d
	}
	return f, nil
}

func (s *saleService) ListSales(actor Actor, q DealQuery) ([]model.Sale, error) {
	f, err := s.dealFilter(q)
	if err != nil {
		return nil, err
	}
	return s.saleRepo.FindAll(actor.CompanyID, f)
}

func (s *saleService) ListPurchases(actor Actor, q DealQuery) ([]model.Purchase, error) {
	f, err := s.dealFilter(q)
	if err != nil {
		return nil, err
	}
	return s.purchaseRepo.FindAll(actor.CompanyID, f)
}

func (s *saleService) GetSale(actor Actor, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, ErrSaleNotFound)
	}
	if sale.Installments, err = s.txRepo.FindByGroup(actor.CompanyID, sale.InstallmentGroup); err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *saleService) GetPurchase(actor Actor, id uuid.UUID) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, ErrPurchaseNotFound)
	}
	if purchase.Installments, err = s.txRepo.FindByGroup(actor.CompanyID, purchase.InstallmentGroup); err != nil {
		return nil, err
	}
	return purchase, nil
}

func (s *saleService) RescheduleSale(actor Actor, id uuid.UUID, req *RescheduleRequest) (*model.Sale, error) {
	sale, err := s.saleRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, ErrSaleNotFound)
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reschedule(tx, actor, &sale.Deal, req); err != nil {
			return err
		}
		sale.UpdatedBy = actor.audit()
		return s.saleRepo.WithTx(tx).Update(sale)
	})
	if err != nil {
		return nil, err
	}
	s.publishDeal(actor, "sale_rescheduled", sale.ID, &sale.Deal)
	return s.GetSale(actor, id)
}

func (s *saleService) ReschedulePurchase(actor Actor, id uuid.UUID, req *RescheduleRequest) (*model.Purchase, error) {
	purchase, err := s.purchaseRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return nil, notFound(err, ErrPurchaseNotFound)
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reschedule(tx, actor, &purchase.Deal, req); err != nil {
			return err
		}
		purchase.UpdatedBy = actor.audit()
		return s.purchaseRepo.WithTx(tx).Update(purchase)
	})
	if err != nil {
		return nil, err
	}
	s.publishDeal(actor, "purchase_rescheduled", purchase.ID, &purchase.Deal)
	return s.GetPurchase(actor, id)
}

// reschedule recomputes due dates of the group's untouched installments
// with the same rule used at creation. Paid and partial rows keep theirs.
// The rows are locked so a concurrent payment waits for the move.
func (s *saleService) reschedule(tx *gorm.DB, actor Actor, deal *model.Deal, req *RescheduleRequest) error {
	if err := validator.Check(req); err != nil {
		return err
	}
	if len(req.InstallmentDates) > deal.InstallmentCount {
		return ErrTooManyCustomDate
	}
	if req.Date != "" {
		base, err := dateutil.ParseDateIn(req.Date, s.loc)
		if err != nil {
			return fmt.Errorf("%w: date: %v", validator.ErrValidation, err)
		}
		deal.Date = base
	}

	repo := s.txRepo.WithTx(tx)
	rows, err := repo.FindByGroupForUpdate(actor.CompanyID, deal.InstallmentGroup)
	if err != nil {
		return err
	}
	for i := range rows {
		t := &rows[i]
		if t.Status != installment.StatusPending || !t.PaidAmount.IsZero() {
			continue
		}
		index := t.InstallmentNumber - 1
		custom := installment.HasCustomDate(req.InstallmentDates, index)
		if t.CustomDueDate && !custom && !req.ResetCustomDates {
			continue
		}
		due, err := installment.DueDate(deal.Date, req.InstallmentDates, index, s.loc)
		if err != nil {
			return fmt.Errorf("%w: %v", validator.ErrValidation, err)
		}
		if due.Equal(t.Date) && t.CustomDueDate == custom {
			continue
		}
		t.CustomDueDate = custom
		t.UpdatedBy = actor.audit()
		if err := repo.UpdateDueDate(t, due, t.Version); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return ErrConcurrentUpdate
			}
			return err
		}
	}
	return nil
}

func (s *saleService) DeleteSale(actor Actor, id uuid.UUID) error {
	sale, err := s.saleRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return notFound(err, ErrSaleNotFound)
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.deleteGroup(tx, actor, sale.InstallmentGroup); err != nil {
			return err
		}
		return s.saleRepo.WithTx(tx).Delete(actor.CompanyID, id, actor.audit())
	})
	if err != nil {
		return err
	}
	s.publishDeal(actor, "sale_deleted", id, &sale.Deal)
	return nil
}

func (s *saleService) DeletePurchase(actor Actor, id uuid.UUID) error {
	purchase, err := s.purchaseRepo.FindByID(actor.CompanyID, id)
	if err != nil {
		return notFound(err, ErrPurchaseNotFound)
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.deleteGroup(tx, actor, purchase.InstallmentGroup); err != nil {
			return err
		}
		return s.purchaseRepo.WithTx(tx).Delete(actor.CompanyID, id, actor.audit())
	})
	if err != nil {
		return err
	}
	s.publishDeal(actor, "purchase_deleted", id, &purchase.Deal)
	return nil
}

// deleteGroup locks the installments, so a payment either commits before
// the check sees it or waits and then finds the rows gone
func (s *saleService) deleteGroup(tx *gorm.DB, actor Actor, group uuid.UUID) error {
	repo := s.txRepo.WithTx(tx)
	rows, err := repo.FindByGroupForUpdate(actor.CompanyID, group)
	if err != nil {
		return err
	}
	for _, t := range rows {
		if t.Status != installment.StatusPending || !t.PaidAmount.IsZero() {
			return ErrGroupHasPayments
		}
	}
	paid, err := repo.CountPaymentsInGroup(actor.CompanyID, group)
	if err != nil {
		return err
	}
	if paid > 0 {
		return ErrGroupHasPayments
	}
	if err := repo.DeleteGroup(actor.CompanyID, group, actor.audit()); err != nil {
		if errors.Is(err, repository.ErrGroupPaid) {
			return ErrGroupHasPayments
		}
		return err
	}
	return nil
}

// RepairSchedules reapplies the monthly rule to every untouched installment
// of the company's sales and purchases. Hand-picked due dates are kept;
// dryRun only reports.
func (s *saleService) RepairSchedules(companyID uuid.UUID, dryRun bool) (*RepairReport, error) {
	sales, err := s.saleRepo.FindAll(companyID, repository.DealFilter{})
	if err != nil {
		return nil, err
	}
	purchases, err := s.purchaseRepo.FindAll(companyID, repository.DealFilter{})
	if err != nil {
		return nil, err
	}

	deals := make([]model.Deal, 0, len(sales)+len(purchases))
	for _, d := range sales {
		deals = append(deals, d.Deal)
	}
	for _, d := range purchases {
		deals = append(deals, d.Deal)
	}

	report := &RepairReport{Groups: len(deals), Moved: []RepairedRow{}}
	actor := Actor{CompanyID: companyID}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.txRepo.WithTx(tx)
		for _, deal := range deals {
			rows, err := repo.FindByGroupForUpdate(companyID, deal.InstallmentGroup)
			if err != nil {
				return err
			}
			for i := range rows {
				t := &rows[i]
				if t.Status != installment.StatusPending || !t.PaidAmount.IsZero() || t.CustomDueDate {
					report.Skipped++
					continue
				}
				due := installment.AddMonths(deal.Date, t.InstallmentNumber)
				if due.Equal(t.Date) {
					continue
				}
				report.Moved = append(report.Moved, RepairedRow{
					TransactionID: t.ID,
					Number:        t.InstallmentNumber,
					From:          dateutil.FormatISO(t.Date),
					To:            dateutil.FormatISO(due),
				})
				if dryRun {
					continue
				}
				t.UpdatedBy = "repair"
				if err := repo.UpdateDueDate(t, due, t.Version); err != nil {
					return fmt.Errorf("installment %s: %w", t.ID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("company_id", companyID.String()).Bool("dry_run", dryRun).
		Int("groups", report.Groups).Int("moved", len(report.Moved)).Int("skipped", report.Skipped).
		Msg("schedule repair finished")
	if !dryRun && len(report.Moved) > 0 {
		s.wsHub.Publish(actor.CompanyID, map[string]interface{}{"type": "schedules_repaired", "moved": len(report.Moved)})
	}
	return report, nil
}

func (s *saleService) publishDeal(actor Actor, event string, id uuid.UUID, deal *model.Deal) {
	s.wsHub.Publish(actor.CompanyID, map[string]interface{}{
		"type": event,
		"deal": map[string]interface{}{
			"id":                id,
			"description":       deal.Description,
			"total_amount":      deal.TotalAmount,
			"installment_count": deal.InstallmentCount,
			"installment_group": deal.InstallmentGroup,
		},
		"user": actor.wsUser(),
	})
}
