package service

import (
	"testing"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture wires every tenant service over one sqlite database
type fixture struct {
	db         *gorm.DB
	txRepo     repository.TransactionRepository
	tx         TransactionService
	sales      SaleService
	customers  PartyService
	suppliers  PartyService
	categories CategoryService
	dashboard  DashboardService
	export     ExportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	loc := time.UTC
	log := zerolog.Nop()

	txRepo := repository.NewTransactionRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)

	return &fixture{
		db:     db,
		txRepo: txRepo,
		tx:     NewTransactionService(txRepo, categoryRepo, customerRepo, supplierRepo, db, nil, loc, log),
		sales: NewSaleService(
			repository.NewSaleRepo(db), repository.NewPurchaseRepo(db),
			txRepo, categoryRepo, customerRepo, supplierRepo, db, nil, loc, log,
		),
		customers:  NewCustomerService(customerRepo, txRepo, loc),
		suppliers:  NewSupplierService(supplierRepo, txRepo, loc),
		categories: NewCategoryService(categoryRepo),
		dashboard:  NewDashboardService(txRepo, loc),
		export:     NewExportService(txRepo, loc),
	}
}

// company creates a tenant and returns an actor acting inside it
func (f *fixture) company(t *testing.T, name string) Actor {
	t.Helper()
	c := &model.Company{Name: name, IsActive: true}
	require.NoError(t, repository.NewCompanyRepo(f.db).Create(c))
	return Actor{UserID: uuid.New(), CompanyID: c.ID, Name: "Tester", Email: "tester@example.com"}
}

func (f *fixture) entry(t *testing.T, a Actor, kind, amount, date string) *model.Transaction {
	t.Helper()
	tr, err := f.tx.Create(a, &TransactionRequest{Kind: kind, Description: "entry", Amount: amount, Date: date})
	require.NoError(t, err)
	return tr
}

func strPtr(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
