package service

import (
	"testing"

	"go-cashbook-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *authFixture) roleID(t *testing.T, code string) uint {
	t.Helper()
	role, err := f.roleRepo.FindByCode(code)
	require.NoError(t, err)
	return role.ID
}

func TestUserService_Lifecycle(t *testing.T) {
	f := newAuthFixture(t)
	owner := ownerActor(f.register(t, "ana@example.com"))
	operatorRole := f.roleID(t, model.RoleOperator)

	user, err := f.users.CreateUser(owner, &CreateUserRequest{
		Email: "Caixa@Example.com", Password: "secret123", FullName: "Caixa", RoleID: operatorRole,
		BirthDate: strPtr("15/08/1990"),
	})
	require.NoError(t, err)
	assert.Equal(t, "caixa@example.com", user.Email)
	assert.Equal(t, owner.CompanyID, user.CompanyID)
	assert.True(t, user.HasPrivilege(model.PrivTransactionPay))
	assert.False(t, user.HasPrivilege(model.PrivUserCreate))

	_, err = f.users.CreateUser(owner, &CreateUserRequest{Email: "caixa@example.com", Password: "secret123", FullName: "Dup", RoleID: operatorRole})
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = f.users.CreateUser(owner, &CreateUserRequest{
		Email: "boss@example.com", Password: "secret123", FullName: "Boss", RoleID: f.roleID(t, model.RolePlatformAdmin),
	})
	assert.ErrorIs(t, err, ErrRoleNotAssignable)

	updated, err := f.users.UpdateUserPrivileges(owner, user.ID, []string{model.PrivDashboardView, model.PrivCompanyAdmin})
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrivDashboardView}, updated.PrivilegeCodes())

	// a role change resets privileges to the role defaults
	updated, err = f.users.UpdateUser(owner, user.ID, &UpdateUserRequest{
		Email: "caixa@example.com", FullName: "Caixa 2", RoleID: f.roleID(t, model.RoleOwner),
	})
	require.NoError(t, err)
	assert.Equal(t, "Caixa 2", updated.FullName)
	assert.True(t, updated.HasPrivilege(model.PrivUserCreate))

	all, err := f.users.GetAllUsers(owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.ErrorIs(t, f.users.DeleteUser(owner, owner.UserID), ErrDeleteSelf)
	require.NoError(t, f.users.DeleteUser(owner, user.ID))
	_, err = f.users.GetUserByID(owner, user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_TenantIsolation(t *testing.T) {
	f := newAuthFixture(t)
	a := ownerActor(f.register(t, "ana@example.com"))
	b := ownerActor(f.register(t, "bia@example.com"))

	_, err := f.users.GetUserByID(b, a.UserID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.users.UpdateUserPrivileges(b, a.UserID, nil)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, f.users.DeleteUser(b, a.UserID), ErrUserNotFound)

	all, err := f.users.GetAllUsers(b)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, b.UserID, all[0].ID)
}
