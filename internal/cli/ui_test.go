package cli

import (
	"testing"

	"github.com/matzehuels/imprint/pkg/config"
)

func TestHumanBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := humanBytes(tt.n); got != tt.want {
			t.Errorf("humanBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFileCacheDir(t *testing.T) {
	cfg := config.Default()
	cfg.Cache.Dir = "/var/cache/imprint"
	c := &CLI{cfg: &cfg}
	if got, err := c.fileCacheDir(); err != nil || got != "/var/cache/imprint" {
		t.Errorf("fileCacheDir() = %q, %v, want /var/cache/imprint", got, err)
	}

	cfg.Cache.Backend = config.CacheRedis
	if _, err := c.fileCacheDir(); err == nil {
		t.Error("fileCacheDir() with redis backend succeeded, want error")
	}
}
