package service

import (
	"testing"
	"time"

	"go-cashbook-api/internal/model"
	"go-cashbook-api/internal/repository"
	"go-cashbook-api/internal/seed"
	"go-cashbook-api/internal/testutil"
	"go-cashbook-api/pkg/jwt"
	"go-cashbook-api/pkg/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type authFixture struct {
	db       *gorm.DB
	auth     AuthService
	users    UserService
	company  CompanyService
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	subRepo  repository.SubscriptionRepository
	tokens   *jwt.Manager
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.NewDB(t)
	require.NoError(t, seed.Run(db, seed.Admin{}, zerolog.Nop()))

	tokens, err := jwt.NewManager("test-secret", time.Hour)
	require.NoError(t, err)

	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	companyRepo := repository.NewCompanyRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)

	return &authFixture{
		db:       db,
		auth:     NewAuthService(userRepo, roleRepo, companyRepo, subRepo, tokens, db, nil, zerolog.Nop()),
		users:    NewUserService(userRepo, repository.NewPrivilegeRepo(db), roleRepo, time.UTC),
		company:  NewCompanyService(companyRepo, zerolog.Nop()),
		userRepo: userRepo,
		roleRepo: roleRepo,
		subRepo:  subRepo,
		tokens:   tokens,
	}
}

func (f *authFixture) register(t *testing.T, email string) *LoginResponse {
	t.Helper()
	res, err := f.auth.Register(&RegisterRequest{
		CompanyName: "Padaria",
		Document:    "12.345.678/0001-90",
		FullName:    "Ana Dona",
		Email:       email,
		Password:    "secret123",
	})
	require.NoError(t, err)
	return res
}

// ownerActor builds the actor a handler would derive from res
func ownerActor(res *LoginResponse) Actor {
	return Actor{UserID: res.User.ID, CompanyID: res.User.CompanyID, Name: res.User.FullName, Email: res.User.Email}
}

func TestRegister_CreatesTenant(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "Ana@Example.com")

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "ana@example.com", res.User.Email)
	require.NotNil(t, res.Role)
	assert.Equal(t, model.RoleOwner, res.Role.Code)
	assert.Contains(t, res.Privileges, model.PrivTransactionPay)
	assert.NotContains(t, res.Privileges, model.PrivCompanyAdmin)

	claims, err := f.tokens.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.CompanyID, claims.CompanyID)

	company, err := f.company.Get(res.User.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, "12345678000190", company.Document)
	assert.True(t, company.IsActive)

	sub, err := f.subRepo.FindByCompany(res.User.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPending, sub.Status)
	assert.True(t, sub.Usable(time.Now()))

	_, err = f.auth.Register(&RegisterRequest{CompanyName: "Outra", FullName: "X", Email: "ana@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = f.auth.Register(&RegisterRequest{CompanyName: "Outra", FullName: "X", Email: "x@example.com", Password: "123"})
	assert.ErrorIs(t, err, validator.ErrValidation)
}

func TestLogin_SingleSession(t *testing.T) {
	f := newAuthFixture(t)
	first := f.register(t, "ana@example.com")

	_, err := f.auth.ValidateToken(first.Token)
	require.NoError(t, err)

	_, err = f.auth.Login("ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	second, err := f.auth.Login(" ANA@example.com ", "secret123")
	require.NoError(t, err)

	// logging in again replaces the first session
	_, err = f.auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = f.auth.ValidateToken(second.Token)
	assert.NoError(t, err)

	_, err = f.auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestValidateToken_IdleTimeout(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "ana@example.com")

	stale := time.Now().Add(-sessionIdleTimeout - time.Minute)
	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", res.User.ID).Update("last_seen_at", stale).Error)

	_, err := f.auth.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionTimeout)

	require.NoError(t, f.auth.Heartbeat(ownerActor(res)))
	_, err = f.auth.ValidateToken(res.Token)
	assert.NoError(t, err)
}

func TestLogin_InactiveCompanyOrUser(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "ana@example.com")
	admin := Actor{UserID: res.User.ID, Email: "root@example.com"}

	_, err := f.company.SetActive(admin, res.User.CompanyID, false)
	require.NoError(t, err)
	_, err = f.auth.Login("ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrCompanyInactive)

	_, err = f.company.SetActive(admin, res.User.CompanyID, true)
	require.NoError(t, err)
	_, err = f.auth.Login("ana@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&model.User{}).Where("id = ?", res.User.ID).Update("is_active", false).Error)
	_, err = f.auth.Login("ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "ana@example.com")

	assert.ErrorIs(t, f.auth.ResetPassword("ana@example.com", "nope", "newpass1"), ErrWrongPassword)
	assert.ErrorIs(t, f.auth.ResetPassword("x@example.com", "secret123", "newpass1"), ErrUserNotFound)

	require.NoError(t, f.auth.ResetPassword("ana@example.com", "secret123", "newpass1"))

	_, err := f.auth.ValidateToken(res.Token)
	assert.ErrorIs(t, err, ErrSessionReplaced)
	_, err = f.auth.Login("ana@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.auth.Login("ana@example.com", "newpass1")
	assert.NoError(t, err)
}

func TestCompanyService_SetActiveUnknown(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.company.SetActive(Actor{}, uuid.New(), true)
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}
