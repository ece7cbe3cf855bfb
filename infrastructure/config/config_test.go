package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"focuslink/domain/synergy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ServerAddress)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, StorageDynamoDB, cfg.StorageBackend)
	assert.Equal(t, 50, cfg.MatchLimit)
	assert.Equal(t, 1, cfg.MatchMinScore)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "Memory")
	t.Setenv("MATCH_LIMIT", "10")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ENABLE_TRACING", "1")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("WEBSOCKET_ENDPOINT", "abc.execute-api.us-west-2.amazonaws.com/prod")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 10, cfg.MatchLimit)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.True(t, cfg.EnableTracing)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "abc.execute-api.us-west-2.amazonaws.com/prod", cfg.WebSocketEndpoint)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:    "development",
			StorageBackend: StorageMemory,
			RateLimitRPS:   1,
			RateLimitBurst: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.StorageBackend = "postgres" }, wantErr: "STORAGE_BACKEND"},
		{name: "negative limit", mutate: func(c *Config) { c.MatchLimit = -1 }, wantErr: "MATCH_LIMIT"},
		{name: "zero rate", mutate: func(c *Config) { c.RateLimitRPS = 0 }, wantErr: "RATE_LIMIT"},
		{
			name:    "production needs secret",
			mutate:  func(c *Config) { c.Environment = "production"; c.StorageBackend = StorageDynamoDB },
			wantErr: "JWT_SECRET",
		},
		{
			name: "production rejects memory",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.JWTSecret = "s3cret"
			},
			wantErr: "dynamodb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSynergyTuning(t *testing.T) {
	path := writeTuning(t, `
version: "2"
min_score: 20
limit: 5
stopwords:
  add: [guitar]
  remove: [focus]
`)

	tuning, err := LoadSynergyTuning(path)
	require.NoError(t, err)

	words := tuning.ResolveStopwords()
	assert.Contains(t, words, "guitar")
	assert.NotContains(t, words, "focus")
	assert.Contains(t, words, "want")

	m := BuildMatcher(&Config{MatchLimit: 50, MatchMinScore: 1}, tuning)
	assert.Equal(t, 20, m.MinScore())
	assert.Equal(t, 5, m.Limit())
	assert.True(t, m.Extractor().IsStopword("guitar"))
	assert.False(t, m.Extractor().IsStopword("focus"))
}

func TestSynergyTuning_RemoveIgnoresCaseAndSpace(t *testing.T) {
	tuning := &SynergyTuning{}
	tuning.Stopwords.Add = []string{"Guitar", "piano"}
	tuning.Stopwords.Remove = []string{"Focus", " learn ", "GUITAR"}

	words := tuning.ResolveStopwords()
	assert.NotContains(t, words, "focus")
	assert.NotContains(t, words, "learn")
	assert.NotContains(t, words, "Guitar")
	assert.Contains(t, words, "piano")

	e := BuildMatcher(&Config{}, tuning).Extractor()
	assert.False(t, e.IsStopword("focus"))
	assert.False(t, e.IsStopword("learn"))
	assert.False(t, e.IsStopword("guitar"))
	assert.True(t, e.IsStopword("piano"))
	assert.True(t, e.IsStopword("want"))
}

func TestLoadSynergyTuning_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bad yaml", body: "min_score: [oops"},
		{name: "min score too high", body: "min_score: 101"},
		{name: "min score zero", body: "min_score: 0"},
		{name: "negative limit", body: "limit: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSynergyTuning(writeTuning(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadSynergyTuning(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSynergyTuning_ReplaceStopwords(t *testing.T) {
	tuning := &SynergyTuning{}
	tuning.Stopwords.Replace = true

	assert.Empty(t, tuning.ResolveStopwords())

	m := BuildMatcher(&Config{}, tuning)
	assert.Equal(t, []string{"learn", "want"}, m.Extractor().Extract("want to learn").Slice())
}

func TestBuildMatcher_NilTuningUsesEnv(t *testing.T) {
	m := BuildMatcher(&Config{MatchLimit: 7, MatchMinScore: 3}, nil)

	assert.Equal(t, 3, m.MinScore())
	assert.Equal(t, 7, m.Limit())
	assert.True(t, m.Extractor().IsStopword("want"))
}

func TestMatcherWatcher_Reload(t *testing.T) {
	path := writeTuning(t, "min_score: 10\n")
	w, err := NewMatcherWatcher(&Config{MatchLimit: 50}, path, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, 10, w.Matcher().MinScore())

	changed := make(chan int, 1)
	w.OnChange(func(m *synergy.Matcher) { changed <- m.MinScore() })

	require.NoError(t, os.WriteFile(path, []byte("min_score: 40\n"), 0o644))
	w.Reload()
	assert.Equal(t, 40, <-changed)
	assert.Equal(t, 40, w.Matcher().MinScore())

	require.NoError(t, os.WriteFile(path, []byte("min_score: 500\n"), 0o644))
	w.Reload()
	assert.Equal(t, 40, w.Matcher().MinScore(), "invalid tuning keeps the previous matcher")
}

func TestMatcherWatcher_PicksUpFileWrites(t *testing.T) {
	path := writeTuning(t, "limit: 3\n")
	w, err := NewMatcherWatcher(&Config{}, path, zap.NewNop())
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("limit: 9\n"), 0o644))

	assert.Eventually(t, func() bool {
		return w.Matcher().Limit() == 9
	}, 3*time.Second, 20*time.Millisecond)
}

func TestMatcherWatcher_StopTwice(t *testing.T) {
	w, err := NewMatcherWatcher(&Config{}, writeTuning(t, "limit: 1\n"), nil)
	require.NoError(t, err)

	w.Stop()
	assert.NotPanics(t, w.Stop)
}

func writeTuning(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "synergy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}
