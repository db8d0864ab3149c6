package wallet

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeystoreManager_SaveLoad(t *testing.T) {
	km, err := NewKeystoreManager(filepath.Join(t.TempDir(), "keys"))
	require.NoError(t, err)

	kp, err := NewKeypair()
	require.NoError(t, err)
	address := kp.PublicKey().String()

	path, err := km.Save(kp, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, address+".json", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var ks Keystore
	require.NoError(t, json.Unmarshal(data, &ks))
	assert.Equal(t, address, ks.Address)
	assert.Equal(t, "aes-128-ctr", ks.Crypto.Cipher)
	assert.Equal(t, "pbkdf2", ks.Crypto.KDF)
	assert.NotEmpty(t, ks.ID)

	loaded, err := km.Load(address, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, kp.SecretKey(), loaded.SecretKey())

	_, err = km.Load(address, "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")

	_, err = km.Load("missing", "correct horse")
	assert.Error(t, err)
}

func TestKeypairFile(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "id.json")

	require.NoError(t, SaveKeypairFile(path, kp))
	loaded, err := LoadKeypairFile(path)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey(), loaded.PublicKey())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2, 300]`), 0600))
	_, err = LoadKeypairFile(bad)
	assert.Error(t, err)
}
