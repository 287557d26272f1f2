package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, KeySize)
}

func TestNew_KeyLength(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr bool
	}{
		{"valid", testKey(), false},
		{"short", []byte("short"), true},
		{"empty", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSealOpen(t *testing.T) {
	v, err := New(testKey())
	require.NoError(t, err)

	sealed, err := v.Seal([]byte("scanned receipt"))
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "scanned receipt")

	plain, err := v.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "scanned receipt", string(plain))
}

func TestOpen_Tampered(t *testing.T) {
	v, err := New(testKey())
	require.NoError(t, err)

	sealed, err := v.Seal([]byte("data"))
	require.NoError(t, err)
	sealed[len(sealed)-1] ^= 0xff

	_, err = v.Open(sealed)
	assert.Error(t, err)

	_, err = v.Open([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestDecryptTo(t *testing.T) {
	v, err := New(testKey())
	require.NoError(t, err)

	dir := t.TempDir()
	src := filepath.Join(dir, "enc", "thumb.bin")
	dst := filepath.Join(dir, "plain", "thumb.jpg")

	require.NoError(t, v.SealFile(src, []byte{0xff, 0xd8, 0xff}))
	require.NoError(t, v.DecryptTo(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got)
}

func TestName_StablePerKey(t *testing.T) {
	a, err := New(testKey())
	require.NoError(t, err)
	b, err := New(bytes.Repeat([]byte{9}, KeySize))
	require.NoError(t, err)

	assert.Equal(t, a.Name("doc-1"), a.Name("doc-1"))
	assert.NotEqual(t, a.Name("doc-1"), a.Name("doc-2"))
	assert.NotEqual(t, a.Name("doc-1"), b.Name("doc-1"))
}
