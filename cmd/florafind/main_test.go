package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/config"
	"github.com/hyperjump/florafind/internal/search"
	"github.com/hyperjump/florafind/internal/storage"
)

func TestArgsReorder(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"jammi tree", "-output", "json"},
			expected: []string{"-output", "json", "jammi tree"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-output", "json", "jammi tree"},
			expected: []string{"-output", "json", "jammi tree"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"jammi tree"},
			expected: []string{"jammi tree"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"neem", "leaves", "-server", ""},
			expected: []string{"-server", "", "neem", "leaves"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := argsReorder(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("argsReorder() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"jammi"}, "jammi"},
		{"multiple words", []string{"jammi", "tree"}, "jammi tree"},
		{"telugu", []string{"వేప", "చెట్టు"}, "వేప చెట్టు"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `
debug: true
storage:
  database_path: "./test.db"
`)
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolvedCanon, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `
server:
  host: "127.0.0.1"
  port: 9000
`)
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	if err := writeDefaultConfig(path, false); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 || cfg.Storage.Provider != "sqlite" {
		t.Errorf("unexpected defaults: %+v %+v", cfg.Server, cfg.Storage)
	}
	if cfg.Search.MinQueryLength == 0 || cfg.Search.MediaTopResults == 0 {
		t.Errorf("search defaults missing: %+v", cfg.Search)
	}

	if err := writeDefaultConfig(path, false); err == nil {
		t.Error("expected an error when the config already exists")
	}
	if err := writeDefaultConfig(path, true); err != nil {
		t.Errorf("force overwrite failed: %v", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageConfig{DatabasePath: filepath.Join(t.TempDir(), "records.db")},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestOpenSource_errors(t *testing.T) {
	ctx := context.Background()
	if _, _, err := openSource(ctx, &config.StorageConfig{Provider: "postgres"}, zap.NewNop()); err == nil {
		t.Error("expected error for unknown provider")
	}
	_, _, err := openSource(ctx, &config.StorageConfig{Provider: "mongodb"}, zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), config.EnvMongoURI) {
		t.Errorf("expected missing uri error naming %s, got %v", config.EnvMongoURI, err)
	}
}

func TestLoadLexicon(t *testing.T) {
	lex, err := loadLexicon(&config.LexiconConfig{})
	if err != nil || lex == nil {
		t.Fatalf("default lexicon: %v", err)
	}
	if _, err := loadLexicon(&config.LexiconConfig{Path: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Error("expected error for missing lexicon file")
	}
}

func TestInitializeComponents_importThenAsk(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	if components.Store == nil || components.Importer == nil {
		t.Fatal("sqlite provider should be writable")
	}

	// Prime the cache with an empty snapshot; the import must invalidate it.
	resp := components.Engine.ProcessQuery(ctx, "jammi")
	if resp.TextResponse != search.NoDataMessage {
		t.Fatalf("empty store response = %q", resp.TextResponse)
	}

	path := filepath.Join(t.TempDir(), "records.json")
	writeFile(t, path, `[{"id":"j1","entry_type":"image","title":"Jammi Tree",
		"description":"The jammi tree is worshipped during Dasara.",
		"file_url":"https://example.org/j1.jpg"}]`)
	res, err := components.Importer.Import(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 1 {
		t.Fatalf("imported = %d, want 1", res.Imported)
	}

	resp = components.Engine.ProcessQuery(ctx, "జమ్మి")
	if resp.TextResponse != "The jammi tree is worshipped during Dasara." {
		t.Errorf("text response = %q", resp.TextResponse)
	}
	if len(resp.MediaFiles) != 1 {
		t.Errorf("media files = %d, want 1", len(resp.MediaFiles))
	}
	if got := len(components.Engine.History()); got != 2 {
		t.Errorf("history entries = %d, want 2", got)
	}
}

func TestInboxWatcher_importsDroppedFiles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t)
	cfg.Import.Inbox = filepath.Join(t.TempDir(), "inbox")

	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	w := newInboxWatcher(ctx, &cfg.Import, components.Importer, zap.NewNop())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	birds := filepath.Join(cfg.Import.Inbox, "birds.csv")
	writeFile(t, birds, "id,entry_type,title,description\np1,text,Peacock,National bird of India\n")
	waitForCount(t, components.Store, 1)

	if err := os.Remove(birds); err != nil {
		t.Fatal(err)
	}
	waitForCount(t, components.Store, 0)
}

func waitForCount(t *testing.T, store storage.RecordStore, want int64) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		n, err := store.CountRecords(context.Background())
		if err == nil && n == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("record count = %d (err=%v), want %d", n, err, want)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestLexiconWatcher_reloadsOnChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := testConfig(t)
	components, err := initializeComponents(ctx, cfg, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer components.Close()

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	writeFile(t, path, "languages:\n  - name: en\n")
	before := components.Lexicon.Get()

	w := newLexiconWatcher(path, components.Lexicon, zap.NewNop())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	writeFile(t, path, "languages:\n  - name: en\n    stopwords: [the]\n")

	deadline := time.Now().Add(5 * time.Second)
	for components.Lexicon.Get() == before {
		if time.Now().After(deadline) {
			t.Fatal("lexicon was not reloaded")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if !components.Lexicon.Get().IsStopword("the") {
		t.Error("reloaded lexicon should carry the new stopword")
	}
}
