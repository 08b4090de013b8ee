package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/runningwild/kfinder/pkg/agent"
	"github.com/runningwild/kfinder/pkg/cluster"
	"github.com/runningwild/kfinder/pkg/config"
	"github.com/runningwild/kfinder/pkg/dataset"
	"github.com/runningwild/kfinder/pkg/engine"
	"github.com/runningwild/kfinder/pkg/finder"
	"github.com/runningwild/kfinder/pkg/stats"
)

func main() {
	// Dispatch subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "find":
			runFindCmd("find", os.Args[2:], false)
			return
		case "fit":
			runFindCmd("fit", os.Args[2:], true)
			return
		case "blobs":
			runBlobsCmd(os.Args[2:])
			return
		case "agent":
			runAgentCmd(os.Args[2:])
			return
		case "remote":
			runRemoteCmd()
			return
		}
	}

	// Default behavior (flags -> find)
	runFindCmd("kfinder", os.Args[1:], false)
}

// Flags holds pointers to all supported CLI flags
type Flags struct {
	// Config File (optional)
	ConfigFile  *string
	WriteConfig *string

	// Dataset
	Data   *string
	Header *bool

	// Search
	MaxK    *int
	Workers *int

	// Forwarded to every fit
	Seed      *int64
	NInit     *int
	MaxIter   *int
	Tolerance *float64
	Init      *string

	// Reporting
	ReportFile *string
	Verbose    *bool
}

func SetupFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	f.ConfigFile = fs.String("config", "", "Path to configuration file (disables other flags)")
	f.WriteConfig = fs.String("write-config", "", "Save the generated configuration to this YAML file")

	f.Data = fs.String("data", "", "CSV file of numeric columns")
	f.Header = fs.Bool("header", false, "Skip the first CSV record")

	f.MaxK = fs.Int("max-k", config.DefaultMaxK, "Largest number of clusters to try (at least 3)")
	f.Workers = fs.Int("workers", 1, "Number of k values to fit concurrently")

	f.Seed = fs.Int64("seed", 0, "Random seed forwarded to every fit")
	f.NInit = fs.Int("n-init", 10, "k-means restarts per fit")
	f.MaxIter = fs.Int("max-iter", 300, "Lloyd iterations per restart")
	f.Tolerance = fs.Float64("tol", 1e-4, "Relative centroid shift that ends a restart")
	f.Init = fs.String("init", engine.InitKMeansPP, "Centroid seeding: 'k-means++' or 'random'")

	f.ReportFile = fs.String("report", "", "Write results to JSON file")
	f.Verbose = fs.Bool("v", false, "Log every fit")
	return f
}

// LoadConfig determines the config source (file or flags) and returns a Config object.
func (f *Flags) LoadConfig() (*config.Config, error) {
	if *f.ConfigFile != "" {
		cfg, err := config.Load(*f.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		// Note: We currently don't allow overriding config file values with other flags.
		return cfg, nil
	}

	if *f.Data == "" {
		return nil, fmt.Errorf("-data is required when using flags")
	}

	cfg := &config.Config{
		Data:    *f.Data,
		Header:  *f.Header,
		MaxK:    *f.MaxK,
		Workers: *f.Workers,
		Report:  *f.ReportFile,
		Fitter: config.Fitter{
			Params: engine.Params{
				Seed:      *f.Seed,
				NInit:     *f.NInit,
				MaxIter:   *f.MaxIter,
				Tolerance: *f.Tolerance,
				Init:      *f.Init,
			},
		},
	}
	cfg.SetDefaults()
	return cfg, nil
}

func (f *Flags) MaybeWriteConfig(cfg *config.Config) {
	if *f.WriteConfig == "" {
		return
	}
	data, err := cfg.Marshal()
	if err != nil {
		slog.Warn("failed to marshal config", "error", err)
		return
	}
	if err := os.WriteFile(*f.WriteConfig, data, 0644); err != nil {
		slog.Warn("failed to write config file", "error", err)
		return
	}
	slog.Info("configuration written", "path", *f.WriteConfig)
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		}),
	))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

// runFindCmd handles "kfinder [find|fit] [flags]"
func runFindCmd(name string, args []string, fit bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	f := SetupFlags(fs)
	fs.Parse(args)
	setupLogger(*f.Verbose)

	if *f.ConfigFile == "" && *f.Data == "" {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := f.LoadConfig()
	if err != nil {
		fatal("invalid configuration", err)
	}
	f.MaybeWriteConfig(cfg)
	runFindLogic(cfg, fit)
}

// runRemoteCmd handles "kfinder remote [find|fit] -nodes ... [flags]"
func runRemoteCmd() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kfinder remote <find|fit> -nodes host:port[,host:port] [flags]")
		os.Exit(1)
	}
	subCmd := os.Args[2]

	fs := flag.NewFlagSet("remote "+subCmd, flag.ExitOnError)
	f := SetupFlags(fs)
	nodesFlag := fs.String("nodes", "", "Comma-separated list of kfinder agent nodes (e.g. host1:9000)")
	timeout := fs.Duration("timeout", config.DefaultTimeout, "Per-fit request timeout")
	fs.Parse(os.Args[3:])
	setupLogger(*f.Verbose)

	cfg, err := f.LoadConfig()
	if err != nil {
		fatal("invalid configuration", err)
	}
	if *nodesFlag != "" {
		cfg.Nodes = strings.Split(*nodesFlag, ",")
	}
	if *f.ConfigFile == "" {
		cfg.Fitter.Timeout = *timeout
	}
	cfg.Fitter.Engine = "remote"
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}
	f.MaybeWriteConfig(cfg)

	slog.Info("using remote engine", "nodes", len(cfg.Nodes))
	switch subCmd {
	case "find":
		runFindLogic(cfg, false)
	case "fit":
		runFindLogic(cfg, true)
	default:
		fmt.Printf("Unknown remote command '%s'. Use 'find' or 'fit'.\n", subCmd)
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config) (engine.Engine, error) {
	if cfg.Fitter.Engine == "remote" {
		return cluster.New(cfg.Nodes).WithTimeout(cfg.Fitter.Timeout), nil
	}
	return engine.New(cfg.Fitter.Engine)
}

func runFindLogic(cfg *config.Config, fit bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	data, err := dataset.Load(cfg.Data, cfg.Header)
	if err != nil {
		fatal("failed to load dataset", err)
	}
	slog.Info("dataset loaded", "path", cfg.Data, "rows", data.Rows(), "cols", data.Cols())

	eng, err := newEngine(cfg)
	if err != nil {
		fatal("failed to create engine", err)
	}

	hist := stats.NewHistogram()
	kf, err := finder.New(eng, data,
		finder.WithMaxK(cfg.MaxK),
		finder.WithParams(cfg.Fitter.Params),
		finder.WithWorkers(cfg.Workers),
		finder.WithHistogram(hist),
	)
	if err != nil {
		fatal("invalid configuration", err)
	}

	var model *engine.Model
	if fit {
		model, err = kf.FitBest(ctx)
	} else {
		_, err = kf.FindBestK(ctx)
	}
	if err != nil {
		fatal("search failed", err)
	}

	res, _ := kf.Result()
	rep := report{Result: res, Timing: hist.Summary(), Model: model}
	printReport(os.Stdout, rep)

	if cfg.Report != "" {
		writeReport(cfg.Report, rep)
	}
}

// runBlobsCmd handles "kfinder blobs [flags]"
func runBlobsCmd(args []string) {
	fs := flag.NewFlagSet("blobs", flag.ExitOnError)
	centers := fs.Int("centers", 4, "Number of clusters")
	perCluster := fs.Int("per-cluster", 50, "Points per cluster")
	dim := fs.Int("dim", 2, "Number of features")
	spread := fs.Float64("spread", 1, "Standard deviation of each cluster")
	sep := fs.Float64("separation", 10, "Distance between neighbouring centers")
	seed := fs.Int64("seed", 0, "Random seed")
	out := fs.String("output", "blobs.csv", "Output CSV file")
	fs.Parse(args)
	setupLogger(false)

	m, _ := dataset.Blobs(dataset.BlobParams{
		Centers:    *centers,
		PerCluster: *perCluster,
		Dim:        *dim,
		Spread:     *spread,
		Separation: *sep,
		Seed:       *seed,
	})

	file, err := os.Create(*out)
	if err != nil {
		fatal("failed to create output", err)
	}
	defer file.Close()
	if err := dataset.Write(file, m); err != nil {
		fatal("failed to write dataset", err)
	}
	slog.Info("dataset written", "path", *out, "rows", m.Rows(), "centers", *centers)
}

// runAgentCmd handles "kfinder agent [flags]"
func runAgentCmd(args []string) {
	agentCmd := flag.NewFlagSet("agent", flag.ExitOnError)
	port := agentCmd.Int("port", 9000, "Port to listen on")
	verbose := agentCmd.Bool("v", false, "Log every fit")
	agentCmd.Parse(args)
	setupLogger(*verbose)

	eng, err := engine.New("lloyd")
	if err != nil {
		fatal("failed to create engine", err)
	}
	srv := agent.NewServer(eng, slog.Default())
	if err := srv.ListenAndServe(*port); err != nil {
		fatal("agent failed", err)
	}
}
