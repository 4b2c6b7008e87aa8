// Package main is the Gazo CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/gazo/internal/cli"
	"github.com/hyperjump/gazo/internal/config"
	"github.com/hyperjump/gazo/internal/imagefile"
	"github.com/hyperjump/gazo/internal/models"
	"github.com/hyperjump/gazo/internal/server"
	"github.com/hyperjump/gazo/internal/storage"
	"github.com/hyperjump/gazo/internal/watcher"
	"github.com/hyperjump/gazo/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/gazo/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

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
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("gazo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and creates the logger shared by every local command.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger, string) {
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
	return cfg, logger, resolved
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger, resolved := setup(*configPath, *debug)
	defer logger.Sync()
	logger.Info("config loaded",
		zap.String("config_path", resolved),
		zap.Strings("image_directories", cfg.Images.Directories),
		zap.Float64("text_threshold", cfg.Search.TextThreshold),
		zap.Float64("image_threshold", cfg.Search.ImageThreshold))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if cfg.Watch.Enabled {
		engine := components.Engine
		watchSvc := watcher.NewWatcher(
			engine.Roots(),
			cfg.Images.Patterns,
			func(paths []string) {
				logger.Info("image directories changed, rebuilding index", zap.Int("changed_paths", len(paths)))
				if _, err := engine.Rebuild(ctx); err != nil {
					logger.Warn("rebuild after change failed", zap.Error(err))
				}
			},
			watcher.WithLogger(logger),
			watcher.WithDebounce(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	var store storage.EmbeddingStore
	if components.Store != nil {
		store = components.Store
	}
	srv := server.NewServer(components.Engine, store, cfg, logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: gazo search [flags] <query>\n       gazo search --image <file> [flags]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Text queries default to the text similarity threshold (0.15), image queries to
the image similarity threshold (0.85). Pass --threshold to override either.

Examples:
  gazo search red bicycle
  gazo search --count 5 --output compact "sunset over water"
  gazo search --image ~/Downloads/cat.jpg
  gazo search --filename --fuzzy holliday
  gazo search --server "" beach      # build the index in-process
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
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

// flagWasSet reports whether name was given on the command line.
func flagWasSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// searchMode selects which engine operation a search command runs.
type searchMode int

const (
	modeText searchMode = iota
	modeImage
	modeFilename
)

type searchArgs struct {
	mode      searchMode
	query     string
	imagePath string
	count     int
	threshold *float64
	fuzzy     bool
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = build the index in-process)")
	imagePath := fs.String("image", "", "search by image: path to a query image")
	filename := fs.Bool("filename", false, "match the query against file and folder names")
	fuzzy := fs.Bool("fuzzy", false, "typo-tolerant filename matching (with --filename)")
	count := fs.Int("count", 0, "number of nearest images to consider (0 = server default)")
	threshold := fs.Float64("threshold", 0, "minimum score (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact, or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := searchArgs{
		query:     buildSearchQuery(fs.Args()),
		imagePath: *imagePath,
		count:     *count,
		fuzzy:     *fuzzy,
	}
	switch {
	case args.imagePath != "":
		args.mode = modeImage
	case *filename:
		args.mode = modeFilename
	}
	if args.mode != modeImage && args.query == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	if flagWasSet(fs, "threshold") {
		args.threshold = threshold
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		response, err = newClient(*serverURL).search(context.Background(), args)
	} else {
		response, err = searchInProcess(*configPath, args)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format, *serverURL); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func searchInProcess(configPath string, args searchArgs) (*models.SearchResponse, error) {
	cfg, logger, _ := setup(configPath, false)
	defer logger.Sync()

	ctx := context.Background()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()
	engine := components.Engine

	start := time.Now()
	var results []*models.SearchResult
	switch args.mode {
	case modeImage:
		img, _, loadErr := imagefile.Load(args.imagePath)
		if loadErr != nil {
			return nil, loadErr
		}
		threshold := cfg.Search.ImageThreshold
		if args.threshold != nil {
			threshold = *args.threshold
		}
		results, err = engine.SearchByImage(ctx, img, args.count, threshold)
	case modeFilename:
		results, err = engine.SearchByFilename(ctx, args.query, args.count, args.fuzzy)
	default:
		threshold := cfg.Search.TextThreshold
		if args.threshold != nil {
			threshold = *args.threshold
		}
		results, err = engine.SearchByText(ctx, args.query, args.count, threshold)
	}
	if err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     args.query,
	}, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, logger, _ := setup(*configPath, *debug)
	defer logger.Sync()
	if fs.NArg() > 0 {
		cfg.Images.Directories = fs.Args()
	}

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Indexing failed: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	status := localStatus(context.Background(), cfg, components)
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (in-process mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = build the index in-process)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var status *models.StatusResponse
	if *serverURL != "" {
		status, err = newClient(*serverURL).status(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, logger, _ := setup(*configPath, false)
		defer logger.Sync()
		components, err := initializeComponents(context.Background(), cfg, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
			os.Exit(1)
		}
		defer components.Close()
		status = localStatus(context.Background(), cfg, components)
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// localStatus mirrors GET /api/v1/status for an in-process engine.
func localStatus(ctx context.Context, cfg *config.Config, c *Components) *models.StatusResponse {
	status := &models.StatusResponse{
		Images:         c.Engine.Size(),
		IndexType:      c.Engine.IndexType(),
		EmbeddingModel: c.Engine.Model(),
		Roots:          c.Engine.Roots(),
		LastBuild:      c.Engine.Report(),
	}
	if c.Store != nil {
		if n, err := c.Store.Count(ctx); err == nil {
			status.CachedEmbeddings = &n
		}
		path := c.Store.Path()
		if diskBytes, err := storage.DiskUsageBytes(path, path+"-wal", path+"-shm"); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}
	return status
}

func printUsage() {
	fmt.Println(`gazo - Content-addressed image search

Usage:
  gazo server [flags]           Index the image directories and start the HTTP server
  gazo search [flags] <query>   Search images by text, by example image, or by filename
  gazo index [flags] [dir...]   Build the index once and print the build report
  gazo status [flags]           Show index status
  gazo version                  Show version
  gazo help                     Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/gazo/config.yaml, then ./config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string    Server URL (default: http://localhost:8080). Use --server "" to build in-process.
  --image string     Search by example image
  --filename         Match file and folder names instead of image content
  --fuzzy            Typo-tolerant filename matching
  --count int        Number of nearest images to consider (default: 24)
  --threshold float  Minimum score (default: 0.15 text, 0.85 image)
  --output string    text, compact, or json (default: text)

Environment:
  IMAGE_DIR                    Comma separated image directories (default: ./data)
  TEXT_SIMILARITY_THRESHOLD    Default threshold for text queries
  IMAGE_SIMILARITY_THRESHOLD   Default threshold for image queries

Examples:
  gazo server
  IMAGE_DIR=/srv/photos,/mnt/camera gazo server --debug
  gazo search "a dog on a beach"
  gazo search --image query.jpg --output json
  gazo status --output json`)
}
