package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndVerifyPair(t *testing.T) {
	m := NewManager("test-secret")

	pair, err := m.IssuePair(42)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	userID, err := m.Verify(pair.AccessToken, TypeAccess)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)

	userID, err = m.Verify(pair.RefreshToken, TypeRefresh)
	require.NoError(t, err)
	require.Equal(t, uint64(42), userID)
}

func TestManager_VerifyRejectsWrongType(t *testing.T) {
	m := NewManager("test-secret")

	pair, err := m.IssuePair(7)
	require.NoError(t, err)

	// A refresh token must not pass where an access token is expected.
	_, err = m.Verify(pair.RefreshToken, TypeAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.Verify(pair.AccessToken, TypeRefresh)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_VerifyExpired(t *testing.T) {
	m := NewManager("test-secret")

	expired, err := m.issue(7, TypeAccess, -time.Hour)
	require.NoError(t, err)

	_, err = m.Verify(expired, TypeAccess)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestManager_VerifyGarbage(t *testing.T) {
	m := NewManager("test-secret")

	_, err := m.Verify("not-a-token", TypeAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestManager_VerifyWrongSecret(t *testing.T) {
	m := NewManager("test-secret")
	other := NewManager("different-secret")

	access, err := m.IssueAccess(9)
	require.NoError(t, err)

	_, err = other.Verify(access, TypeAccess)
	require.ErrorIs(t, err, ErrTokenInvalid)
}
