package wallet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionsGrantOrdersMostRecentFirst(t *testing.T) {
	p := NewPermissions("")
	require.NoError(t, p.Grant("0xA"))
	require.NoError(t, p.Grant("0xB"))
	require.NoError(t, p.Grant("0xa"))

	got, err := p.Authorized()
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xB"}, got)
}

func TestPermissionsRevoke(t *testing.T) {
	p := NewPermissions("")
	require.NoError(t, p.Grant("0xA"))
	require.NoError(t, p.Grant("0xB"))

	require.NoError(t, p.Revoke("0xa"))
	ok, err := p.IsAuthorized("0xA")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, p.Revoke("0xnothing"))
	require.NoError(t, p.RevokeAll())
	got, err := p.Authorized()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPermissionsPersistToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "permissions.json")
	p1 := NewPermissions(path)
	require.NoError(t, p1.Grant(testSignerAddr))
	require.NoError(t, p1.SetChainID("0x14a34"))

	p2 := NewPermissions(path)
	ok, err := p2.IsAuthorized(testSignerAddr)
	require.NoError(t, err)
	assert.True(t, ok)

	id, err := p2.ChainID("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x14a34", id)
}

func TestPermissionsChainIDFallback(t *testing.T) {
	id, err := NewPermissions("").ChainID("0x1")
	require.NoError(t, err)
	assert.Equal(t, "0x1", id)
}
