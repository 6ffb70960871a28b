package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func TestNormalizeRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, NormalizeRole(" ADMIN "))
	assert.Equal(t, RoleUser, NormalizeRole("User"))
	assert.Equal(t, RoleUser, NormalizeRole(""))
	assert.False(t, NormalizeRole("Auditor").Valid())
}

func TestMerge_FreshFieldsWin(t *testing.T) {
	cached := &Principal{ID: "u-1", Name: "Old", Role: RoleUser, Email: ptr("old@example.com"), Mobile: ptr("111")}
	fresh := &Principal{ID: "u-1", Name: "New", Role: RoleAdmin, AvatarURL: ptr("https://cdn/a.png")}

	merged := Merge(cached, fresh)
	assert.Equal(t, "New", merged.Name)
	assert.Equal(t, RoleAdmin, merged.Role)
	assert.Equal(t, "old@example.com", *merged.Email)
	assert.Equal(t, "111", *merged.Mobile)
	assert.Equal(t, "https://cdn/a.png", *merged.AvatarURL)

	*merged.Email = "changed"
	assert.Equal(t, "old@example.com", *cached.Email)
}

func TestMerge_NilSides(t *testing.T) {
	fresh := &Principal{ID: "u-1", Role: RoleUser}
	assert.Equal(t, fresh, Merge(nil, fresh))
	assert.Equal(t, fresh, Merge(fresh, nil))
	assert.Nil(t, Merge(nil, nil))
}

func TestClone_IsDeep(t *testing.T) {
	p := &Principal{ID: "u-1", Role: RoleUser, Username: ptr("asha")}
	c := p.Clone()
	require.NotSame(t, p.Username, c.Username)
	assert.Equal(t, *p.Username, *c.Username)
	assert.Nil(t, (*Principal)(nil).Clone())
}

func TestResolutionState_Resolved(t *testing.T) {
	assert.False(t, StateUnresolved.Resolved())
	assert.True(t, StateResolvedAuthenticated.Resolved())
	assert.True(t, StateResolvedUnauthenticated.Resolved())
}

func TestOTPValidity(t *testing.T) {
	assert.True(t, OTPPurposeRegister.Valid())
	assert.False(t, OTPPurpose("LOGIN").Valid())
	assert.True(t, OTPChannelEmail.Valid())
	assert.False(t, OTPChannel("").Valid())
}
