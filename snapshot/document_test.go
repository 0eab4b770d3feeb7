package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/closeio/syncfleet/types"
)

func TestParse(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc, err := Parse(strings.NewReader(`{"z1": {"a": 10, "b": 2.5}, "default": {"c": 1}}`))
		require.NoError(t, err)

		loads, err := doc.Loads("z1")
		require.NoError(t, err)
		require.Equal(t, map[string]float64{"a": 10, "b": 2.5}, loads)
	})

	t.Run("negative load rejected", func(t *testing.T) {
		_, err := Parse(strings.NewReader(`{"z1": {"a": -1}}`))
		require.ErrorIs(t, err, types.ErrNegativeLoad)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := Parse(strings.NewReader(`{"z1": [1, 2]}`))
		require.Error(t, err)
	})
}

func TestLoadsFallback(t *testing.T) {
	doc, err := New(map[string]map[string]float64{
		"z1":      {"a": 1},
		"default": {"fallback-acct": 3},
	})
	require.NoError(t, err)

	t.Run("direct entry wins", func(t *testing.T) {
		loads, err := doc.Loads("z1")
		require.NoError(t, err)
		require.Contains(t, loads, "a")
	})

	t.Run("missing zone uses fallback", func(t *testing.T) {
		loads, err := doc.Loads("z2")
		require.NoError(t, err)
		require.Contains(t, loads, "fallback-acct")
	})

	t.Run("custom fallback key", func(t *testing.T) {
		doc, err := New(map[string]map[string]float64{"shared": {"x": 1}})
		require.NoError(t, err)
		doc.SetFallbackKey("shared")

		loads, err := doc.Loads("anything")
		require.NoError(t, err)
		require.Contains(t, loads, "x")
	})

	t.Run("no entry and no fallback", func(t *testing.T) {
		doc, err := New(map[string]map[string]float64{"z1": {"a": 1}})
		require.NoError(t, err)

		_, err = doc.Loads("z9")
		require.ErrorIs(t, err, types.ErrMissingLoadData)
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loads.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"z1": {"a": 4}}`), 0o600))

	doc, err := LoadFile(path)
	require.NoError(t, err)

	loads, err := doc.Loads("z1")
	require.NoError(t, err)
	require.Equal(t, map[string]float64{"a": 4}, loads)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}
