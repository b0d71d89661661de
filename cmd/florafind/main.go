// Package main is the florafind CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/florafind/internal/cli"
	"github.com/hyperjump/florafind/internal/config"
	"github.com/hyperjump/florafind/internal/importer"
	"github.com/hyperjump/florafind/internal/keyword"
	"github.com/hyperjump/florafind/internal/lexicon"
	"github.com/hyperjump/florafind/internal/metrics"
	"github.com/hyperjump/florafind/internal/models"
	"github.com/hyperjump/florafind/internal/search"
	"github.com/hyperjump/florafind/internal/server"
	"github.com/hyperjump/florafind/internal/storage"
	"github.com/hyperjump/florafind/internal/watcher"
	"github.com/hyperjump/florafind/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/florafind/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "init":
		runInit()
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "search":
		runSearch()
	case "import":
		runImport()
	case "stats":
		runStats()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("florafind version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, builds the logger and initializes components. It exits on failure.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("provider", cfg.Storage.Provider),
		zap.Bool("debug", cfg.Debug || *debug),
	)
	metrics.Register()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()

	if cfg.Lexicon.Path != "" && cfg.Lexicon.Watch {
		lexWatch := newLexiconWatcher(cfg.Lexicon.Path, components.Lexicon, logger)
		if err := lexWatch.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start lexicon watcher", zap.Error(err))
		}
		defer lexWatch.Stop()
	}

	if cfg.Import.Inbox != "" {
		if components.Importer == nil {
			logger.Warn("import inbox ignored: storage provider is read-only",
				zap.String("provider", cfg.Storage.Provider))
		} else {
			inbox := newInboxWatcher(watchCtx, &cfg.Import, components.Importer, logger)
			if err := inbox.Start(watchCtx); err != nil {
				logger.Fatal("Failed to start import inbox watcher", zap.Error(err))
			}
			defer inbox.Stop()
			inbox.SyncExistingFiles()
		}
	}

	srv := server.NewServer(components.Engine, components.Store, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newLexiconWatcher reloads the lexicon whenever the file at path changes. A file
// that fails to load leaves the previous lexicon in place.
func newLexiconWatcher(path string, live *lexicon.Live, logger *zap.Logger) *watcher.Watcher {
	return watcher.ForFile(path, func(changed string) {
		err := live.Reload(changed)
		metrics.ObserveLexiconReload(err)
		if err != nil {
			logger.Warn("lexicon reload failed", zap.String("path", changed), zap.Error(err))
			return
		}
		logger.Info("lexicon reloaded", zap.String("path", changed))
	}, watcher.WithLogger(logger))
}

// newInboxWatcher imports record files dropped into the configured inbox and drops
// the records of files removed from it.
func newInboxWatcher(ctx context.Context, cfg *config.ImportConfig, imp *importer.Importer, logger *zap.Logger) *watcher.Watcher {
	return watcher.NewWatcher(
		[]string{cfg.Inbox},
		func(path string) {
			if _, err := imp.ImportFile(ctx, path, importer.SupportedExtensions); err != nil {
				logger.Warn("inbox import failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithExtensions(importer.SupportedExtensions...),
		watcher.WithRecursive(cfg.RecursiveOrDefault()),
		watcher.WithLogger(logger),
		watcher.OnRemove(func(path string) {
			if _, err := imp.RemoveFile(ctx, path); err != nil {
				logger.Warn("inbox removal failed", zap.String("path", path), zap.Error(err))
			}
		}),
	)
}

// printQueryUsage prints usage for the ask and search subcommands.
func printQueryUsage(fs *flag.FlagSet, name string) {
	fmt.Fprintf(fs.Output(), "Usage: florafind %s [flags] <query>\n\n", name)
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. English and Telugu both work.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  florafind %[1]s jammi tree
  florafind %[1]s "show me photos of peacocks"
  florafind %[1]s --server "" వేప చెట్టు      # query the store directly
  florafind %[1]s --output json neem
`, name)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

type queryFlags struct {
	configPath string
	serverURL  string
	format     cli.OutputFormat
	query      string
}

func parseQueryFlags(name string, args []string) queryFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = query the store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printQueryUsage(fs, name) }
	_ = fs.Parse(argsReorder(args))

	query := buildQuery(fs.Args())
	if query == "" {
		printQueryUsage(fs, name)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return queryFlags{configPath: *configPath, serverURL: *serverURL, format: format, query: query}
}

func runAsk() {
	qf := parseQueryFlags("ask", os.Args[2:])

	var response *models.QueryResponse
	if qf.serverURL != "" {
		response = &models.QueryResponse{}
		if err := postJSON(qf.serverURL+"/api/v1/query", map[string]string{"query": qf.query}, response); err != nil {
			fmt.Fprintf(os.Stderr, "Query failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(qf.configPath, false)
		defer logger.Sync()
		defer components.Close()
		response = components.Engine.ProcessQuery(context.Background(), qf.query)
	}
	if err := cli.WriteQueryResponse(os.Stdout, response, qf.format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSearch() {
	qf := parseQueryFlags("search", os.Args[2:])

	var results *models.SearchResults
	if qf.serverURL != "" {
		results = &models.SearchResults{}
		if err := postJSON(qf.serverURL+"/api/v1/search", map[string]string{"query": qf.query}, results); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(qf.configPath, false)
		defer logger.Sync()
		defer components.Close()
		results = components.Engine.Search(context.Background(), qf.query)
	}
	if err := cli.WriteSearchResults(os.Stdout, results, qf.format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: florafind import [flags] <file-or-directory>")
		fmt.Printf("Supported formats: %s\n", strings.Join(importer.SupportedExtensions, ", "))
		os.Exit(1)
	}

	cfg, _, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	if components.Importer == nil {
		fmt.Fprintf(os.Stderr, "Import requires a writable store; provider %q is read-only\n", cfg.Storage.Provider)
		os.Exit(1)
	}
	res, err := components.Importer.Import(context.Background(), fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d record(s) from %d file(s), skipped %d invalid row(s), removed %d stale record(s)\n",
		res.Imported, res.Files, res.Skipped, res.Removed)
	if total, err := components.Store.CountRecords(context.Background()); err == nil {
		fmt.Printf("Store now holds %d record(s)\n", total)
	}
}

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read the store directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	stats := &models.Statistics{}
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/statistics", stats); err != nil {
			fmt.Fprintf(os.Stderr, "Statistics failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		stats, err = components.Engine.Statistics(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Statistics failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteStatistics(os.Stdout, stats, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// runHistory reads the conversation log of a running server; the log is in memory only.
func runInit() {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "overwrite an existing config file")
	_ = fs.Parse(os.Args[2:])

	if err := writeDefaultConfig(*configPath, *force); err != nil {
		fmt.Fprintf(os.Stderr, "Init failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote default config to %s\n", *configPath)
}

// writeDefaultConfig writes a config with every default filled in. An existing
// file is left alone unless force is set.
func writeDefaultConfig(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return config.Save(path, cfg)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	clearHistory := fs.Bool("clear", false, "clear the server's query history")
	_ = fs.Parse(os.Args[2:])

	if *clearHistory {
		if err := deleteURL(*serverURL + "/api/v1/history"); err != nil {
			fmt.Fprintf(os.Stderr, "Clear history failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("History cleared")
		return
	}

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	var out struct {
		Entries []models.ConversationEntry `json:"entries"`
	}
	if err := getJSON(*serverURL+"/api/v1/history", &out); err != nil {
		fmt.Fprintf(os.Stderr, "History failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteHistory(os.Stdout, out.Entries, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func postJSON(url string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, out)
}

func deleteURL(url string) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return nil
}

func decodeResponse(resp *http.Response, out interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Components holds initialized services.
type Components struct {
	Source storage.RecordSource
	// Store is nil when the provider is read-only.
	Store     storage.RecordStore
	Cache     *storage.RecordCache
	Lexicon   *lexicon.Live
	Suggester *keyword.Suggester
	Engine    *search.Engine
	Importer  *importer.Importer
}

func (c *Components) Close() {
	if c.Suggester != nil {
		_ = c.Suggester.Close()
	}
	if c.Source != nil {
		_ = c.Source.Close()
	}
}

// openSource opens the record source named by cfg.Provider. The returned store is
// nil for read-only providers.
func openSource(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (storage.RecordSource, storage.RecordStore, error) {
	switch cfg.Provider {
	case storage.ProviderSQLite:
		store, err := storage.NewSQLiteStore(cfg.DatabasePath, storage.WithSQLiteLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, store, nil
	case storage.ProviderMongoDB:
		if cfg.MongoURI == "" {
			return nil, nil, fmt.Errorf("mongodb provider requires mongodb_uri or %s", config.EnvMongoURI)
		}
		source, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection,
			storage.WithMongoLogger(logger))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		return source, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func loadLexicon(cfg *config.LexiconConfig) (*lexicon.Lexicon, error) {
	if cfg.Path == "" {
		return lexicon.Default(), nil
	}
	lex, err := lexicon.Load(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon: %w", err)
	}
	return lex, nil
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	lex, err := loadLexicon(&cfg.Lexicon)
	if err != nil {
		return nil, err
	}
	live := lexicon.NewLive(lex)

	source, store, err := openSource(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	cache := storage.NewRecordCache(source,
		storage.WithCacheTTL(cfg.Cache.TTL),
		storage.WithFetchTimeout(cfg.Cache.FetchTimeout),
		storage.WithCacheLogger(logger),
		storage.WithRefreshObserver(metrics.ObserveRefresh),
	)

	opts := []search.Option{
		search.WithLexicon(live),
		search.WithObserver(metrics.QueryObserver{}),
		search.WithHistory(search.NewConversationLog(cfg.History.Capacity, cfg.History.Keep)),
		search.WithLogger(logger),
	}
	var suggester *keyword.Suggester
	if cfg.Search.SuggestionsOrDefault() {
		suggester = keyword.NewSuggester(
			[]keyword.SuggesterOption{
				keyword.WithSuggesterLogger(logger),
				keyword.WithMaxTerms(cfg.Search.MaxSuggestions),
			},
			keyword.WithMaxDistance(cfg.Search.SuggestionMaxDistance),
			keyword.WithMinFrequency(cfg.Search.SuggestionMinFrequency),
		)
		opts = append(opts, search.WithSuggester(suggester))
	}
	engine := search.NewEngine(cache, source, &cfg.Search, opts...)

	var imp *importer.Importer
	if store != nil {
		imp = importer.NewImporter(store,
			importer.WithLogger(logger),
			importer.OnImport(func(r importer.Result) {
				metrics.ObserveImport(r.Imported, r.Skipped, r.Removed)
				engine.Invalidate()
			}),
		)
	}

	return &Components{
		Source:    source,
		Store:     store,
		Cache:     cache,
		Lexicon:   live,
		Suggester: suggester,
		Engine:    engine,
		Importer:  imp,
	}, nil
}

func printUsage() {
	fmt.Println(`florafind - Bilingual (English/Telugu) search over flora and fauna records

Usage:
  florafind init [flags]              Write a default config file
  florafind server [flags]            Start the HTTP server
  florafind ask [flags] <query>       Answer a question with text and media
  florafind search [flags] <query>    Show ranked records with score breakdowns
  florafind import [flags] <path>     Import records from .json, .csv or .xlsx files
  florafind stats [flags]             Show record counts by type
  florafind history [flags]           Show (or --clear) recent queries on a running server
  florafind version                   Show version
  florafind help                      Show this help

Init Flags:
  --config string    Config file path to write (default: /usr/local/etc/florafind/config.yaml)
  --force            Overwrite an existing file

Server Flags:
  --config string    Config file path (default: /usr/local/etc/florafind/config.yaml)
  --debug            Enable debug logging

Ask/Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to query the store directly.
  --output string    Output format: text or json (default: text)

Stats/History Flags:
  --server string    Server URL (default: http://localhost:8080)
  --output string    Output format: text or json (default: text)

Environment:
  FLORAFIND_MONGODB_URI     MongoDB connection string (overrides storage.mongodb_uri)
  FLORAFIND_DATABASE_PATH   SQLite database path (overrides storage.database_path)

Examples:
  florafind init --config ./config.yaml
  florafind server
  florafind ask "where can I find the jammi tree"
  florafind ask --output json "నెమలి ఫోటోలు"
  florafind search --server "" neem
  florafind import ./records.csv
  florafind stats --output json`)
}
