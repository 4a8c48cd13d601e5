package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/testutil"
	"go-cashbook-api/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ok(c *fiber.Ctx) error { return c.SendStatus(200) }

func status(t *testing.T, app *fiber.App, method, path string, header map[string]string) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	res, err := app.Test(req)
	require.NoError(t, err)
	return res.StatusCode
}

func TestRequireWebhookSecret(t *testing.T) {
	closed := fiber.New()
	closed.Post("/hook", RequireWebhookSecret(""), ok)
	assert.Equal(t, 503, status(t, closed, "POST", "/hook", map[string]string{WebhookSecretHeader: ""}))

	app := fiber.New()
	app.Post("/hook", RequireWebhookSecret("s3cret"), ok)
	assert.Equal(t, 401, status(t, app, "POST", "/hook", nil))
	assert.Equal(t, 401, status(t, app, "POST", "/hook", map[string]string{WebhookSecretHeader: "nope"}))
	assert.Equal(t, 200, status(t, app, "POST", "/hook", map[string]string{WebhookSecretHeader: "s3cret"}))
}

func withLocals(role string, privileges []string, companyID string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("role_code", role)
		if privileges != nil {
			c.Locals("user_privileges", privileges)
		}
		if companyID != "" {
			c.Locals("company_id", companyID)
		}
		return c.Next()
	}
}

func TestRequirePrivilegeAndRole(t *testing.T) {
	app := fiber.New()
	app.Get("/none", withLocals("", nil, ""), RequirePrivilege(model.PrivSaleView), ok)
	app.Get("/sale", withLocals(model.RoleOperator, []string{model.PrivSaleView}, ""), RequirePrivilege(model.PrivSaleView), ok)
	app.Get("/pay", withLocals(model.RoleOperator, []string{model.PrivSaleView}, ""), RequirePrivilege(model.PrivTransactionPay), ok)
	app.Get("/any", withLocals(model.RoleOperator, []string{model.PrivSaleView}, ""), RequireAnyPrivilege(model.PrivTransactionPay, model.PrivSaleView), ok)
	app.Get("/admin", withLocals(model.RoleOwner, []string{}, ""), RequireRole(model.RolePlatformAdmin), ok)

	assert.Equal(t, 403, status(t, app, "GET", "/none", nil))
	assert.Equal(t, 200, status(t, app, "GET", "/sale", nil))
	assert.Equal(t, 403, status(t, app, "GET", "/pay", nil))
	assert.Equal(t, 200, status(t, app, "GET", "/any", nil))
	assert.Equal(t, 403, status(t, app, "GET", "/admin", nil))
}

func TestRequireAnyPrivilege_CustomerReads(t *testing.T) {
	read := RequireAnyPrivilege(model.PrivCustomerManage, model.PrivSaleView, model.PrivTransactionView)
	app := fiber.New()
	app.Get("/cashier", withLocals(model.RoleOperator, []string{model.PrivTransactionView}, ""), read, ok)
	app.Get("/manager", withLocals(model.RoleOwner, []string{model.PrivCustomerManage}, ""), read, ok)
	app.Get("/buyer", withLocals(model.RoleOperator, []string{model.PrivPurchaseView, model.PrivSupplierManage}, ""), read, ok)
	app.Get("/anon", withLocals("", nil, ""), read, ok)

	assert.Equal(t, 200, status(t, app, "GET", "/cashier", nil))
	assert.Equal(t, 200, status(t, app, "GET", "/manager", nil))
	assert.Equal(t, 403, status(t, app, "GET", "/buyer", nil))
	assert.Equal(t, 403, status(t, app, "GET", "/anon", nil))
}

func newCompany(t *testing.T, db *gorm.DB, sub *model.Subscription) *model.Company {
	t.Helper()
	company := &model.Company{Name: "Loja"}
	require.NoError(t, repository.NewCompanyRepo(db).Create(company))
	if sub != nil {
		sub.CompanyID = company.ID
		sub.Plan = "monthly"
		require.NoError(t, repository.NewSubscriptionRepo(db).Create(sub))
	}
	return company
}

func TestRequireActiveCompany(t *testing.T) {
	db := testutil.NewDB(t)
	companies := repository.NewCompanyRepo(db)
	future := time.Now().Add(24 * time.Hour)
	past := time.Now().Add(-24 * time.Hour)

	active := newCompany(t, db, &model.Subscription{Status: model.SubscriptionActive, CurrentPeriodEnd: &future})
	lapsed := newCompany(t, db, &model.Subscription{Status: model.SubscriptionActive, CurrentPeriodEnd: &past})
	noSub := newCompany(t, db, nil)
	disabled := newCompany(t, db, &model.Subscription{Status: model.SubscriptionActive, CurrentPeriodEnd: &future})
	require.NoError(t, db.Model(disabled).Update("is_active", false).Error)

	guard := RequireActiveCompany(companies, model.RolePlatformAdmin)
	app := fiber.New()
	app.Get("/active", withLocals(model.RoleOwner, nil, active.ID.String()), guard, ok)
	app.Get("/lapsed", withLocals(model.RoleOwner, nil, lapsed.ID.String()), guard, ok)
	app.Get("/nosub", withLocals(model.RoleOwner, nil, noSub.ID.String()), guard, ok)
	app.Get("/disabled", withLocals(model.RoleOwner, nil, disabled.ID.String()), guard, ok)
	app.Get("/platform", withLocals(model.RolePlatformAdmin, nil, disabled.ID.String()), guard, ok)
	app.Get("/anon", withLocals(model.RoleOwner, nil, ""), guard, ok)

	assert.Equal(t, 200, status(t, app, "GET", "/active", nil))
	assert.Equal(t, 402, status(t, app, "GET", "/lapsed", nil))
	assert.Equal(t, 402, status(t, app, "GET", "/nosub", nil))
	assert.Equal(t, 403, status(t, app, "GET", "/disabled", nil))
	assert.Equal(t, 200, status(t, app, "GET", "/platform", nil))
	assert.Equal(t, 401, status(t, app, "GET", "/anon", nil))
}

func TestRequireAuth(t *testing.T) {
	db := testutil.NewDB(t)
	company := newCompany(t, db, nil)
	users := repository.NewUserRepo(db)
	user := &model.User{CompanyID: company.ID, Email: "ana@example.com", FullName: "Ana", IsActive: true, TokenVersion: "v1"}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, users.Create(user))

	tokens, err := jwt.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	subject := jwt.Subject{UserID: user.ID, CompanyID: company.ID, Email: user.Email, Name: user.FullName, RoleCode: model.RoleOwner, TokenVersion: "v1"}
	token, err := tokens.GenerateToken(subject)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(RequireAuth(tokens, users))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("company_id").(string))
	})
	app.Get("/ws", ok)

	bearer := map[string]string{"Authorization": "Bearer " + token}
	assert.Equal(t, 200, status(t, app, "GET", "/me", bearer))
	assert.Equal(t, 401, status(t, app, "GET", "/me", nil))
	assert.Equal(t, 401, status(t, app, "GET", "/me", map[string]string{"Authorization": token}))
	assert.Equal(t, 401, status(t, app, "GET", "/me", map[string]string{"Authorization": "Bearer garbage"}))

	// websocket upgrades may carry the token in the query
	assert.Equal(t, 200, status(t, app, "GET", "/ws?token="+token, nil))
	assert.Equal(t, 401, status(t, app, "GET", "/me?token="+token, nil))

	// a newer login replaces the session
	require.NoError(t, users.UpdateTokenVersion(user.ID, "v2"))
	assert.Equal(t, 401, status(t, app, "GET", "/me", bearer))

	subject.TokenVersion = "v2"
	token, err = tokens.GenerateToken(subject)
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	assert.Equal(t, 401, status(t, app, "GET", "/me", map[string]string{"Authorization": "Bearer " + token}))
}
