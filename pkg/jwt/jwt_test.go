package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager("secret", time.Hour)
	require.NoError(t, err)

	subject := Subject{
		UserID:       uuid.New(),
		CompanyID:    uuid.New(),
		Email:        "owner@acme.test",
		Name:         "Owner",
		RoleCode:     "OWNER",
		Privileges:   []string{"sale:view"},
		TokenVersion: "v1",
	}

	token, err := m.GenerateToken(subject)
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, subject.UserID, claims.UserID)
	assert.Equal(t, subject.CompanyID, claims.CompanyID)
	assert.Equal(t, []string{"sale:view"}, claims.Privileges)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	a, _ := NewManager("a", time.Hour)
	b, _ := NewManager("b", time.Hour)

	token, err := a.GenerateToken(Subject{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m, _ := NewManager("secret", time.Nanosecond)
	token, err := m.GenerateToken(Subject{UserID: uuid.New()})
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Errors(t *testing.T) {
	_, err := NewManager("", time.Hour)
	assert.ErrorIs(t, err, ErrEmptySecret)

	m, _ := NewManager("secret", 0)
	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
	_, err = m.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
