package output

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLaysOutRunScopedTree(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Write("run-1", "core-rtr-01", "show ip route", "route table\n")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("run-1", "core-rtr-01", "show-ip-route.txt"), ref)
}

func TestWriteTwoRunsNeverCollide(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	refA, err := store.Write("run-a", "edge-01", "show version", "v1\n")
	require.NoError(t, err)
	refB, err := store.Write("run-b", "edge-01", "show version", "v2\n")
	require.NoError(t, err)
	require.NotEqual(t, refA, refB)

	data, err := os.ReadFile(filepath.Join(dir, refA))
	require.NoError(t, err)
	require.Equal(t, "v1\n", string(data))
}

func TestMarkCompleteUpdatesLatest(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.MarkComplete("run-1"))
	require.NoError(t, store.MarkComplete("run-2"))

	data, err := os.ReadFile(filepath.Join(dir, "latest"))
	require.NoError(t, err)
	require.Equal(t, "run-2\n", string(data))
}

func TestNormalizeCommand(t *testing.T) {
	cases := map[string]string{
		"show ip route":          "show-ip-route",
		"Show  BGP   Summary":    "show-bgp-summary",
		"display lldp neighbor*": "display-lldp-neighbor",
	}

	for in, want := range cases {
		require.Equal(t, want, NormalizeCommand(in))
	}
}
