package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/codewithboateng/trendline/internal/api"
	"github.com/codewithboateng/trendline/internal/gate"
	"github.com/codewithboateng/trendline/internal/health"
	"github.com/codewithboateng/trendline/internal/history"
	"github.com/codewithboateng/trendline/internal/ingest"
	"github.com/codewithboateng/trendline/internal/reporting"
	"github.com/codewithboateng/trendline/internal/security"
	"github.com/codewithboateng/trendline/internal/shared"
	"github.com/codewithboateng/trendline/internal/storage"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "ingest":
		ingestCmd(os.Args[2:])
	case "trend":
		trendCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	case "useradd":
		useraddCmd(os.Args[2:])
	case "version":
		fmt.Println("trendline", version)
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `trendline – build quality trend service

Usage:
  trendline ingest  --payload <file|-> --out <reports-dir> [--db ./trendline.db] [--config ./configs/trendline.yaml]
  trendline trend   --job <job> --build <n> --out <reports-dir> [--tool checkline] [--db ./trendline.db] [--config ./configs/trendline.yaml]
  trendline serve   [--addr :8080] [--db ./trendline.db] [--config ./configs/trendline.yaml]
  trendline useradd --username <name> --password <pw> [--role viewer] [--db ./trendline.db]
  trendline version
`)
}

func ingestCmd(args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	payloadPath := fs.String("payload", "", "Tool payload JSON file ('-' for stdin)")
	outDir := fs.String("out", "", "Output directory for reports")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	// precedence: flags > config > defaults
	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *payloadPath == "" {
		fmt.Fprintln(os.Stderr, "ingest: --payload is required")
		os.Exit(2)
	}

	in := os.Stdin
	if *payloadPath != "-" {
		f, err := os.Open(*payloadPath)
		if err != nil {
			slog.Error("payload open error", "err", err)
			os.Exit(1)
		}
		defer f.Close()
		in = f
	}
	payload, diags, err := ingest.ParsePayload(in)
	if err != nil {
		slog.Error("payload parse error", "err", err)
		os.Exit(1)
	}
	if len(diags.Warnings) > 0 {
		slog.Warn("payload warnings", "warnings", diags.Warnings)
	}

	db := openDB(*dbPath)
	defer db.Close()

	applyGateSettings(cfg)
	pipe := &ingest.Pipeline{
		DB:               db,
		Health:           health.Thresholds{Healthy: cfg.Health.Healthy, Unhealthy: cfg.Health.Unhealthy},
		UsePreviousBuild: cfg.Reference.UsePreviousBuild,
		UseStableBuild:   cfg.Reference.UseStableBuild,
	}
	outcome, err := pipe.Run(payload)
	if err != nil {
		slog.Error("ingest error", "err", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	jsonPath, _ := reporting.WriteTrendJSON(outcome.Job, outcome.Build, outcome.Tool, outcome.ReferenceBuild, *outDir, outcome.Delta)
	htmlPath, _ := reporting.WriteTrendHTML(outcome.Job, outcome.Build, outcome.Tool, outcome.ReferenceBuild, *outDir, outcome.Delta)
	slog.Info("ingest complete",
		"job", outcome.Job,
		"build", outcome.Build,
		"tool", outcome.Tool,
		"status", outcome.Verdict.Status.String(),
		"health", outcome.Health,
		"json", jsonPath,
		"html", htmlPath,
		"db", filepath.Clean(*dbPath),
	)
	fmt.Printf("Ingest OK\n  Build: %s#%d\n  Status: %s\n  Health: %d\n  New: %d  Fixed: %d  Outstanding: %d\n  JSON: %s\n  HTML: %s\n",
		outcome.Job, outcome.Build, outcome.Verdict.Status, outcome.Health,
		outcome.Summary.NewCount, outcome.Summary.FixedCount, outcome.Summary.OutstandingCount,
		jsonPath, htmlPath)
	if !outcome.Verdict.Successful() {
		os.Exit(3)
	}
}

func trendCmd(args []string) {
	fs := flag.NewFlagSet("trend", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	job := fs.String("job", "", "Job name")
	build := fs.Int("build", 0, "Build number")
	tool := fs.String("tool", "", "Analysis tool")
	outDir := fs.String("out", "", "Output directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *outDir == "" {
		*outDir = cfg.Reporting.OutDir
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *tool == "" {
		*tool = cfg.Reference.Tool
	}
	if *job == "" || *build <= 0 {
		fmt.Fprintln(os.Stderr, "trend: --job and --build are required")
		os.Exit(2)
	}

	db := openDB(*dbPath)
	defer db.Close()

	chain, err := db.Chain()
	if err != nil {
		slog.Error("chain error", "err", err)
		os.Exit(1)
	}
	baseline, err := chain.Build(*job, *build)
	if err != nil {
		slog.Error("load build error", "err", err)
		os.Exit(1)
	}
	selector := chain.Selector(*tool)
	current := selector.Select(baseline)
	if current == nil {
		slog.Error("no result for build", "job", *job, "build", *build, "tool", *tool)
		os.Exit(1)
	}

	resolver := history.NewResolver(baseline, selector,
		cfg.Reference.UsePreviousBuild, cfg.Reference.UseStableBuild)
	ref, hasRef := resolver.Reference()
	delta := reporting.BaselineDelta(current.Issues)
	refBuild := 0
	if hasRef {
		delta = reporting.Delta(resolver.Issues(), current.Issues)
		refBuild = ref.Number()
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		slog.Error("cannot create out dir", "err", err)
		os.Exit(1)
	}
	jsonPath, _ := reporting.WriteTrendJSON(*job, *build, *tool, refBuild, *outDir, delta)
	htmlPath, _ := reporting.WriteTrendHTML(*job, *build, *tool, refBuild, *outDir, delta)
	resultPath := ""
	if row, err := db.LoadResult(*job, *build, *tool); err == nil {
		resultPath, _ = reporting.WriteResultJSON(*outDir, &row)
	}
	s := delta.Summary()
	fmt.Printf("Trend OK\n  Build: %s#%d\n  Reference: %d\n  New: %d  Fixed: %d  Outstanding: %d\n  JSON: %s\n  HTML: %s\n  Result: %s\n",
		*job, *build, refBuild, s.NewCount, s.FixedCount, s.OutstandingCount, jsonPath, htmlPath, resultPath)
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	addr := fs.String("addr", "", "Listen address")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	logger := shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}

	db := openDB(*dbPath)
	defer db.Close()

	applyGateSettings(cfg)
	chain, err := db.Chain()
	if err != nil {
		slog.Error("chain error", "err", err)
		os.Exit(1)
	}
	srv := &api.Server{
		DB:               db,
		Chain:            chain,
		UserStore:        db,
		Logger:           logger,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		SessionDuration:  time.Duration(cfg.Server.SessionMinutes) * time.Minute,
		DefaultTool:      cfg.Reference.Tool,
		UsePreviousBuild: cfg.Reference.UsePreviousBuild,
		UseStableBuild:   cfg.Reference.UseStableBuild,
	}
	slog.Info("listening", "addr", *addr, "db", filepath.Clean(*dbPath))
	if err := http.ListenAndServe(*addr, srv.Routes()); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}

func useraddCmd(args []string) {
	fs := flag.NewFlagSet("useradd", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config (optional)")
	username := fs.String("username", "", "Username")
	password := fs.String("password", "", "Password")
	role := fs.String("role", "viewer", "Role (viewer|admin)")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	cfg, _ := shared.LoadConfig(*configPath)
	shared.InitLogger(cfg.Logging.Format, cfg.Logging.Level)

	if *dbPath == "" {
		*dbPath = cfg.Database.DSN
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "useradd: --username and --password are required")
		os.Exit(2)
	}
	if *role != "viewer" && *role != "admin" {
		fmt.Fprintln(os.Stderr, "useradd: --role must be viewer or admin")
		os.Exit(2)
	}

	db := openDB(*dbPath)
	defer db.Close()

	hash, err := security.HashPassword(*password)
	if err != nil {
		slog.Error("hash error", "err", err)
		os.Exit(1)
	}
	id, err := db.CreateUser(*username, hash, *role)
	if err != nil {
		slog.Error("create user error", "err", err)
		os.Exit(1)
	}
	fmt.Printf("User OK\n  ID: %d\n  Username: %s\n  Role: %s\n", id, *username, *role)
}

func openDB(path string) *storage.DB {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		slog.Error("db open error", "err", err)
		os.Exit(1)
	}
	if err := db.CreateSchema(); err != nil {
		slog.Error("db schema error", "err", err)
		os.Exit(1)
	}
	return db
}

func applyGateSettings(cfg shared.Config) {
	disabled := make(map[string]bool, len(cfg.Gates.Disabled))
	for _, id := range cfg.Gates.Disabled {
		disabled[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	gate.SetSettings(gate.Settings{
		TotalUnstable: cfg.Gates.TotalUnstable,
		TotalFailure:  cfg.Gates.TotalFailure,
		NewUnstable:   cfg.Gates.NewUnstable,
		NewFailure:    cfg.Gates.NewFailure,
		Disabled:      disabled,
	})
}
