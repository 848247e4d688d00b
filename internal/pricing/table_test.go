package pricing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/ptr"
)

func TestDefault(t *testing.T) {
	tbl := Default()
	assert.Equal(t, "2025-01-15", tbl.LastUpdated)
	assert.Equal(t, "USD", tbl.Currency)
	assert.ElementsMatch(t, []string{"aws", "azure", "gcp"}, tbl.CloudProviders())
}

func TestLookup(t *testing.T) {
	tbl := Default()

	tests := []struct {
		name     string
		provider string
		gpu      string
		custom   *float64
		want     float64
		ok       bool
	}{
		{name: "listed gpu", provider: "aws", gpu: "nvidia-a100-80gb", want: 4.10, ok: true},
		{name: "case insensitive", provider: "AWS", gpu: "NVIDIA-A100-80GB", want: 4.10, ok: true},
		{name: "unknown gpu falls back", provider: "gcp", gpu: "nvidia-b200", want: 3.67, ok: true},
		{name: "none", provider: "none", gpu: "nvidia-a100-80gb", ok: false},
		{name: "empty", provider: "", gpu: "nvidia-a100-80gb", ok: false},
		{name: "on-prem custom", provider: "on-prem", custom: ptr.To(2.5), want: 2.5, ok: true},
		{name: "on-prem without custom", provider: "on-prem", ok: false},
		{name: "unlisted provider", provider: "oracle", gpu: "nvidia-a100-80gb", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.Lookup(tt.provider, tt.gpu, tt.custom)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLookup_ZeroEntryIsUnpriced(t *testing.T) {
	tbl, err := Parse([]byte(`
lastUpdated: "2025-02-01"
providers:
  aws:
    nvidia-t4: 0
    unknown: 1.5
`))
	require.NoError(t, err)
	_, ok := tbl.Lookup("aws", "nvidia-t4", nil)
	assert.False(t, ok)
	rate, ok := tbl.Lookup("aws", "nvidia-l4", nil)
	assert.True(t, ok)
	assert.InDelta(t, 1.5, rate, 1e-9)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`providers: {}`))
	assert.ErrorContains(t, err, "lastUpdated")

	_, err = Parse([]byte("lastUpdated: x\nproviders:\n  aws:\n    t4: -1\n"))
	assert.ErrorContains(t, err, "negative rate")

	_, err = Parse([]byte("::"))
	assert.Error(t, err)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("lastUpdated: \"2025-03-01\"\nproviders:\n  aws:\n    unknown: 1\n"), 0o644))

	store := NewStore(nil)
	w := &Watcher{Path: path, Store: store}
	require.NoError(t, w.Load())
	assert.Equal(t, "2025-03-01", store.Table().LastUpdated)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("lastUpdated: \"2025-04-01\"\nproviders:\n  aws:\n    unknown: 2\n"), 0o644)
		return store.Table().LastUpdated == "2025-04-01"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
