package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeName(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{"Alice", "alice"},
		{"Cool Guy", "cool_guy"},
		{"[ABC]-x", "[abc]-x"},
		{"ÄÖÜ Ü", "äöü_ü"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, SafeName(tc.name), tc.name)
	}
}

func TestPrivileges(t *testing.T) {
	assert.True(t, (Normal | Verified | Mod).Has(Staff))
	assert.False(t, (Normal | Verified).Has(Staff))
	assert.True(t, Privileges(0).Hidden())
	assert.True(t, Normal.Hidden())
	assert.True(t, Verified.Hidden())
	assert.False(t, (Normal | Verified).Hidden())
	assert.False(t, (Normal | Verified | Supporter).Hidden())
}

func TestNewSessionUser(t *testing.T) {
	u := &User{ID: 3, Name: "Alice", Priv: Normal | Verified | Admin, SilenceEnd: 42}
	su := NewSessionUser(u)
	assert.Equal(t, &SessionUser{ID: 3, Name: "Alice", Priv: u.Priv, SilenceEnd: 42, IsStaff: true}, su)
}

func TestModeIndex(t *testing.T) {
	idx, ok := ModeIndex("vn", "mania")
	assert.True(t, ok)
	assert.Equal(t, 3, idx)

	idx, ok = ModeIndex("rx", "catch")
	assert.True(t, ok)
	assert.Equal(t, 6, idx)

	_, ok = ModeIndex("rx", "mania")
	assert.False(t, ok)
	_, ok = ModeIndex("ap", "taiko")
	assert.False(t, ok)

	assert.True(t, IsValidMode("catch"))
	assert.False(t, IsValidMode("ctb"))
	assert.True(t, IsValidMods("ap"))
	assert.False(t, IsValidMods("hd"))
	assert.True(t, IsValidSort("maxcombo"))
	assert.False(t, IsValidSort("rank"))
}
