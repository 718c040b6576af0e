// Package main is the newsrec CLI entry point.
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
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/smartnews/newsrec/internal/catalog"
	"github.com/smartnews/newsrec/internal/cli"
	"github.com/smartnews/newsrec/internal/config"
	"github.com/smartnews/newsrec/internal/engine"
	"github.com/smartnews/newsrec/internal/interactions"
	"github.com/smartnews/newsrec/internal/models"
	"github.com/smartnews/newsrec/internal/server"
	"github.com/smartnews/newsrec/internal/similarity"
	"github.com/smartnews/newsrec/internal/watcher"
	"github.com/smartnews/newsrec/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/newsrec/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used, so that "newsrec server" from the project dir uses the project's
// config (including debug). Returns the config and the path actually loaded.
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
	case "server":
		runServer()
	case "search":
		runSearch()
	case "similar":
		runSimilar()
	case "recommend":
		runRecommend()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("newsrec version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (data reloads, per-request detail)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	holder := engine.NewHolder(components.Engine)
	rl := &reloader{
		holder:     holder,
		components: components,
		build:      func() (*Components, error) { return initializeComponents(cfg, logger) },
		logger:     logger,
	}
	defer rl.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Data.WatchOrDefault() {
		watchOpts := []watcher.Option{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		watchSvc := watcher.New(
			[]string{cfg.Data.CatalogPath, cfg.Data.SimilarityPath, cfg.Data.InteractionsPath},
			rl.reload,
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(holder, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
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

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting (e.g. "stock markets" vs stock markets).
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "newsrec search query -limit 5"
// would otherwise leave -limit unparsed.
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

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load data files directly)")
	limit := fs.Int("limit", 0, "number of results (default from config, capped at 10)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	// An empty query is legal and returns the fallback sample, so no
	// positional-arg check here.
	queryStr := buildQuery(fs.Args())
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	searchQuery := &models.SearchQuery{Query: queryStr, Limit: *limit}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, searchQuery)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			response = components.Engine.Search(searchQuery)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load data files directly)")
	k := fs.Int("k", 5, "number of similar articles")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	title := buildQuery(fs.Args())
	if title == "" {
		fmt.Println("Usage: newsrec similar [flags] <article title>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var response *models.SimilarResponse
	if *serverURL != "" {
		response, err = similarViaHTTP(*serverURL, title, *k)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			response, err = components.Engine.FindSimilar(title, *k)
			if errors.Is(err, engine.ErrUnknownTitle) {
				response = &models.SimilarResponse{Title: title, Results: nil}
				err = nil
			}
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Similar lookup failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSimilarResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load data files directly)")
	topK := fs.Int("top-k", 0, "number of recommendations (default from config; 0 = none)")
	alpha := fs.Float64("alpha", 0, "rating weight override (default from config)")
	beta := fs.Float64("beta", 0, "time-spent weight override (default from config)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	if fs.NArg() < 1 {
		fmt.Println("Usage: newsrec recommend [flags] <user-id>")
		os.Exit(1)
	}
	userID := fs.Arg(0)
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Only flags the user actually set become overrides; an explicit 0 is
	// honored, an untouched flag leaves the config default in charge.
	req := &models.RecommendRequest{UserID: userID}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "top-k":
			req.TopK = topK
		case "alpha":
			req.Alpha = alpha
		case "beta":
			req.Beta = beta
		}
	})

	var response *models.RecommendResponse
	if *serverURL != "" {
		response, err = recommendViaHTTP(*serverURL, req)
	} else {
		var components *Components
		components, err = directComponents(*configPath)
		if err == nil {
			defer components.Close()
			response, err = components.Engine.Recommend(context.Background(), req)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteRecommendations(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	dbPath := fs.String("db", "", "SQLite database path (default: interactions_path from config)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: newsrec import [flags] <interactions.csv|.xlsx>")
		os.Exit(1)
	}
	source := fs.Arg(0)

	target := *dbPath
	if target == "" {
		cfg, _, err := loadConfig(*configPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v\n", err)
			os.Exit(1)
		}
		target = cfg.Data.InteractionsPath
	}
	if !isSQLitePath(target) {
		fmt.Printf("Import target %q is not a SQLite database (.db or .sqlite)\n", target)
		os.Exit(1)
	}

	records, err := interactions.ReadFile(source)
	if err != nil {
		fmt.Printf("Failed to read %s: %v\n", source, err)
		os.Exit(1)
	}
	store, err := interactions.OpenSQLite(target)
	if err != nil {
		fmt.Printf("Failed to open %s: %v\n", target, err)
		os.Exit(1)
	}
	defer store.Close()

	n, err := store.Import(context.Background(), records)
	if err != nil {
		fmt.Printf("Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d interaction(s) into %s\n", n, target)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "http://localhost:8080", "server URL (empty = load data files directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status engine.Status
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		components, err := directComponents(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		res, err := components.Engine.Stat(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("articles:      %d   # catalog size\n", status.Articles)
		fmt.Printf("vocab_size:    %d   # distinct terms in the title index\n", status.VocabSize)
		fmt.Printf("users:         %d   # distinct users in the interaction log\n", status.Users)
		fmt.Printf("interactions:  %d   # interaction records\n", status.Interactions)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func similarViaHTTP(serverURL, title string, k int) (*models.SimilarResponse, error) {
	endpoint := fmt.Sprintf("%s/api/v1/similar?title=%s&k=%d", serverURL, url.QueryEscape(title), k)
	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.SimilarResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func recommendViaHTTP(serverURL string, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	params := url.Values{}
	if req.TopK != nil {
		params.Set("top_k", strconv.Itoa(*req.TopK))
	}
	if req.Alpha != nil {
		params.Set("alpha", strconv.FormatFloat(*req.Alpha, 'g', -1, 64))
	}
	if req.Beta != nil {
		params.Set("beta", strconv.FormatFloat(*req.Beta, 'g', -1, 64))
	}
	endpoint := serverURL + "/api/v1/recommendations/" + url.PathEscape(req.UserID)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var response models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func statusViaHTTP(serverURL string) (*engine.Status, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var s engine.Status
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &s, nil
}

// Components holds the loaded data snapshot and the engine built from it.
type Components struct {
	Catalog *catalog.Catalog
	Matrix  *similarity.Matrix
	Store   interactions.Store
	Engine  *engine.Engine
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
}

// reloader rebuilds the engine when a data file changes and publishes the
// result through the holder. Rebuilds are serialized: one data refresh
// touching several files fires one debounced watcher callback per file, and
// running those concurrently would race on the current snapshot and leak
// stores.
type reloader struct {
	mu         sync.Mutex
	holder     *engine.Holder
	components *Components
	build      func() (*Components, error)
	logger     *zap.Logger
}

func (r *reloader) reload(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("data file changed, rebuilding engine", zap.String("path", path))
	rebuilt, err := r.build()
	if err != nil {
		// Keep serving the previous snapshot on a bad reload.
		r.logger.Warn("engine rebuild failed", zap.String("path", path), zap.Error(err))
		return
	}
	old := r.components
	r.holder.Swap(rebuilt.Engine)
	r.components = rebuilt
	old.Close()
	r.logger.Info("engine swapped", zap.Int("articles", rebuilt.Catalog.Len()))
}

// Close closes whichever snapshot is current.
func (r *reloader) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.components.Close()
}

// isSQLitePath reports whether path looks like a SQLite database file.
func isSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	cat, err := catalog.Load(cfg.Data.CatalogPath, cfg.Columns)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	matrix, err := similarity.Load(cfg.Data.SimilarityPath, cat.Len())
	if err != nil {
		return nil, fmt.Errorf("failed to load similarity matrix: %w", err)
	}

	var store interactions.Store
	if isSQLitePath(cfg.Data.InteractionsPath) {
		store, err = interactions.OpenSQLite(cfg.Data.InteractionsPath)
	} else {
		store, err = interactions.LoadFile(cfg.Data.InteractionsPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}

	opts := []engine.Option{}
	if logger != nil {
		opts = append(opts, engine.WithLogger(logger))
	}
	eng, err := engine.New(cat, matrix, store, &cfg.Search, &cfg.Recommend, opts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to build engine: %w", err)
	}

	if logger != nil {
		logger.Info("engine initialized",
			zap.Int("articles", cat.Len()),
			zap.Int("matrix_dim", matrix.Dim()),
		)
	}
	return &Components{Catalog: cat, Matrix: matrix, Store: store, Engine: eng}, nil
}

// directComponents loads config and builds components for CLI commands that
// read the data files directly instead of going through a running server.
func directComponents(configPath string) (*Components, error) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return initializeComponents(cfg, logger)
}

func printUsage() {
	fmt.Println(`newsrec - News article search and recommendation engine

Usage:
  newsrec server [flags]               Start the HTTP server
  newsrec search [flags] <query>       Keyword-search article titles
  newsrec similar [flags] <title>      Find articles similar to a title
  newsrec recommend [flags] <user-id>  Personalized recommendations for a user
  newsrec import [flags] <file>        Import a CSV/XLSX interaction log into SQLite
  newsrec status [flags]               Show engine/data status
  newsrec version                      Show version
  newsrec help                         Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/newsrec/config.yaml)
  --debug            Enable debug logging (data reloads, per-request detail)

Search Flags:
  --config string    Config file path (for direct mode)
  --server string    Server URL (default: http://localhost:8080). Use empty (--server "") to load data files directly.
  --limit int        Number of results (default from config, capped at 10)
  --output string    Output format: text or json (default: text)

Similar Flags:
  --k int            Number of similar articles (default: 5)
  --server string    Server URL, --config, --output as above

Recommend Flags:
  --top-k int        Number of recommendations (default from config)
  --alpha float      Rating weight override
  --beta float       Time-spent weight override
  --server string    Server URL, --config, --output as above

Import Flags:
  --config string    Config file path (target database taken from interactions_path)
  --db string        SQLite database path override

Examples:
  newsrec server
  newsrec search stock markets
  newsrec search --output json "climate policy"
  newsrec similar "Global markets rally on earnings"
  newsrec recommend --top-k 10 u42
  newsrec import data/interactions.xlsx
  newsrec status --output json`)
}
