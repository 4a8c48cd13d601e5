package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-cashbook-api/internal/installment"
	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/service"
	"go-cashbook-api/internal/testutil"
	"go-cashbook-api/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		validator.ErrValidation:           400,
		installment.ErrNonPositivePayment: 400,
		service.ErrInvalidCredentials:     401,
		service.ErrCompanyInactive:        403,
		service.ErrSaleNotFound:           404,
		service.ErrConcurrentUpdate:       409,
		installment.ErrAlreadySettled:     409,
		errors.New("connection reset"):    500,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
	assert.Equal(t, 409, statusFor(fmt.Errorf("sale 7: %w", service.ErrGroupHasPayments)))
}

func TestFail_HidesInternalErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/boom", func(c *fiber.Ctx) error { return fail(c, errors.New("pq: password authentication failed")) })
	app.Get("/gone", func(c *fiber.Ctx) error { return fail(c, service.ErrTransactionNotFound) })

	res, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, 500, res.StatusCode)
	assert.NotContains(t, string(body), "password")

	res, err = app.Test(httptest.NewRequest("GET", "/gone", nil))
	require.NoError(t, err)
	body, _ = io.ReadAll(res.Body)
	assert.Equal(t, 404, res.StatusCode)
	assert.Contains(t, string(body), service.ErrTransactionNotFound.Error())
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func (c apiClient) do(method, path string, body interface{}) (int, map[string]interface{}) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	res, err := c.app.Test(req)
	require.NoError(c.t, err)

	out := map[string]interface{}{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res.StatusCode, out
}

// newTenantApp mounts the transaction routes behind a fake login
func newTenantApp(t *testing.T) apiClient {
	t.Helper()
	db := testutil.NewDB(t)
	company := &model.Company{Name: "Loja"}
	require.NoError(t, repository.NewCompanyRepo(db).Create(company))

	txRepo := repository.NewTransactionRepo(db)
	txService := service.NewTransactionService(txRepo, repository.NewCategoryRepo(db),
		repository.NewCustomerRepo(db), repository.NewSupplierRepo(db), db, nil, time.UTC, zerolog.Nop())
	h := NewTransactionHandler(txService, service.NewExportService(txRepo, time.UTC))

	userID := uuid.New().String()
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if c.Get("X-Anonymous") == "" {
			c.Locals("user_id", userID)
			c.Locals("company_id", company.ID.String())
			c.Locals("user_name", "Ana")
		}
		return c.Next()
	})
	app.Get("/transactions", h.List)
	app.Get("/transactions/:id", h.Get)
	app.Post("/transactions", h.Create)
	app.Post("/transactions/:id/pay", h.ConfirmPayment)
	app.Post("/transactions/:id/cancel-payment", h.CancelPayment)
	app.Delete("/transactions/:id", h.Delete)
	return apiClient{t: t, app: app}
}

func TestTransactionHandler_PaymentFlow(t *testing.T) {
	api := newTenantApp(t)

	code, body := api.do("POST", "/transactions", fiber.Map{
		"kind": "income", "description": "Conserto", "amount": "100,00", "date": "10/03/2025",
	})
	require.Equal(t, 201, code, body)
	id := body["data"].(map[string]interface{})["id"].(string)

	code, body = api.do("POST", "/transactions/"+id+"/pay", fiber.Map{"paid_amount": "40"})
	require.Equal(t, 200, code, body)
	assert.Equal(t, string(installment.StatusPartial), body["data"].(map[string]interface{})["status"])

	code, _ = api.do("POST", "/transactions/"+id+"/pay", fiber.Map{"paid_amount": "60", "version": 1})
	assert.Equal(t, 409, code)

	code, body = api.do("POST", "/transactions/"+id+"/pay", fiber.Map{"paid_amount": "60", "version": 2})
	require.Equal(t, 200, code, body)
	assert.Equal(t, string(installment.StatusCompleted), body["data"].(map[string]interface{})["status"])

	code, _ = api.do("POST", "/transactions/"+id+"/pay", fiber.Map{"paid_amount": "1"})
	assert.Equal(t, 409, code)
	code, _ = api.do("DELETE", "/transactions/"+id, nil)
	assert.Equal(t, 409, code)

	code, _ = api.do("POST", "/transactions/"+id+"/cancel-payment", nil)
	assert.Equal(t, 200, code)
	code, _ = api.do("DELETE", "/transactions/"+id, nil)
	assert.Equal(t, 200, code)
	code, _ = api.do("GET", "/transactions/"+id, nil)
	assert.Equal(t, 404, code)
}

func TestTransactionHandler_BadRequests(t *testing.T) {
	api := newTenantApp(t)

	code, _ := api.do("GET", "/transactions/not-a-uuid", nil)
	assert.Equal(t, 400, code)

	code, body := api.do("POST", "/transactions", fiber.Map{"kind": "income", "amount": "-5"})
	assert.Equal(t, 400, code)
	assert.NotEmpty(t, body["error"])

	code, _ = api.do("GET", "/transactions?status=bogus", nil)
	assert.Equal(t, 400, code)

	req := httptest.NewRequest("GET", "/transactions", nil)
	req.Header.Set("X-Anonymous", "1")
	res, err := api.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, res.StatusCode)
}
