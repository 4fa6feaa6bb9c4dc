package alphabet

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MolSig-Alphabet/pkg/errors"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	cfg := Config{Radius: 3, BitWidth: 1024, UseStereo: true, RegisterAllLevels: true}
	a := New(cfg)
	fillOne(t, a, "CCO")
	fillOne(t, a, "c1ccccc1O")

	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, a.Config(), loaded.Config())
	assert.Equal(t, a.Size(), loaded.Size())
	assert.Equal(t, a.Index(), loaded.Index())
}

func TestSaveLoad_EmptyAlphabet(t *testing.T) {
	a := New(DefaultConfig())

	var buf bytes.Buffer
	require.NoError(t, a.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Zero(t, loaded.Size())
	assert.Equal(t, DefaultConfig(), loaded.Config())
}

func TestSaveLoadFile(t *testing.T) {
	a := New(DefaultConfig())
	fillOne(t, a, "CO")

	path := filepath.Join(t.TempDir(), "test.alpha")
	require.NoError(t, a.SaveFile(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Index(), loaded.Index())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.alpha"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlphabetLoad))
}

func TestLoad_Corrupt(t *testing.T) {
	t.Run("not gzip", func(t *testing.T) {
		_, err := Load(bytes.NewReader([]byte("plain text, not an archive")))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlphabetLoad))
	})

	t.Run("bad magic", func(t *testing.T) {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte("NOTMAGIC and then some padding"))
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		_, err = Load(&buf)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlphabetLoad))
	})

	t.Run("truncated", func(t *testing.T) {
		a := New(DefaultConfig())
		fillOne(t, a, "CO")
		var buf bytes.Buffer
		require.NoError(t, a.Save(&buf))

		cut := buf.Bytes()[:buf.Len()/2]
		_, err := Load(bytes.NewReader(cut))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeAlphabetLoad))
	})
}
