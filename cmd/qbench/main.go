// Package main provides the CLI entry point for qbench, a statevector
// simulator benchmarking tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/weiihann/qbench/backend"
	"github.com/weiihann/qbench/compiler"
	"github.com/weiihann/qbench/config"
	"github.com/weiihann/qbench/harness"
	"github.com/weiihann/qbench/report"
	"github.com/weiihann/qbench/workload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("qbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "qbench",
		Short: "Statevector simulator benchmarking tool",
		Long: `Qbench builds small quantum circuits (single gates, CNOT, Toffoli and a
QCBM ansatz), compiles them through transpile and assemble, and times how long
the statevector simulator takes to execute the compiled job.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "",
		"Path to a YAML config file")

	root.AddCommand(
		newRunCmd(logger),
		newGenerateCmd(),
		newShowCmd(logger),
		newBackendsCmd(),
		newConfigCmd(),
	)

	return root
}

// suiteFlags registers the flags shared by every command that builds a
// suite, and binds them to v under the config key names.
func suiteFlags(flags *pflag.FlagSet, v *viper.Viper) {
	d := config.Default()

	flags.StringSlice("groups", d.Groups,
		"Benchmark groups: X, H, T, CNOT, Toffoli, QCBM")
	flags.Int("min-qubits", d.MinQubits,
		"Smallest register size")
	flags.Int("max-qubits", d.MaxQubits,
		"Largest register size")
	flags.Int("qcbm-depth", d.QCBMDepth,
		"Number of entangler layers in the QCBM circuit")

	bind(v, flags, "groups", "groups")
	bind(v, flags, "min_qubits", "min-qubits")
	bind(v, flags, "max_qubits", "max-qubits")
	bind(v, flags, "qcbm_depth", "qcbm-depth")
}

func bind(v *viper.Viper, flags *pflag.FlagSet, key, flag string) {
	if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}

	return config.Load(v, path)
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		workloadPath string
		outputJSON   bool
		metricsAddr  string
	)

	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark suite against a backend",
		Long: `Generate the benchmark suite (or read a pre-generated workload), compile
every case, and time the backend controller on each compiled job.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, cfg, runOptions{
				workloadPath: workloadPath,
				outputJSON:   outputJSON,
				metricsAddr:  metricsAddr,
				out:          cmd.OutOrStdout(),
			})
		},
	}

	flags := cmd.Flags()
	suiteFlags(flags, v)

	d := config.Default()
	flags.String("backend", d.Backend,
		"Backend to benchmark")
	flags.Int("rounds", d.Rounds,
		"Minimum timed rounds per case")
	flags.Int("warmup", d.Warmup,
		"Untimed warmup rounds per case")
	flags.Duration("min-time", d.MinTime,
		"Keep timing each case until this much time has been measured")
	flags.Duration("timeout", d.Timeout,
		"Timeout per case")
	flags.Int("threads", d.Threads,
		"Goroutines per gate kernel (1 = single-threaded)")
	flags.Int("optimization-level", d.OptimizationLevel,
		"Transpiler optimization level (0 or 1)")
	flags.Int("shots", d.Shots,
		"Shots recorded in the assembled job")

	bind(v, flags, "backend", "backend")
	bind(v, flags, "rounds", "rounds")
	bind(v, flags, "warmup", "warmup")
	bind(v, flags, "min_time", "min-time")
	bind(v, flags, "timeout", "timeout")
	bind(v, flags, "threads", "threads")
	bind(v, flags, "optimization_level", "optimization-level")
	bind(v, flags, "shots", "shots")

	flags.StringVar(&workloadPath, "workload", "",
		"Path to pre-generated workload file (skip generation)")
	flags.BoolVar(&outputJSON, "json", false,
		"Output results as JSON instead of tables")
	flags.StringVar(&metricsAddr, "metrics-addr", "",
		"Serve Prometheus metrics on this address while running")

	return cmd
}

type runOptions struct {
	workloadPath string
	outputJSON   bool
	metricsAddr  string
	out          io.Writer
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.Config,
	opts runOptions,
) error {
	logger.InfoContext(ctx, "starting benchmark",
		slog.String("backend", cfg.Backend),
		slog.Any("groups", cfg.Groups),
		slog.Int("min_qubits", cfg.MinQubits),
		slog.Int("max_qubits", cfg.MaxQubits),
		slog.Int("rounds", cfg.Rounds),
		slog.Int("threads", cfg.Threads),
	)

	// Step 1: Build the suite (or read a pre-generated file).
	cases, err := loadCases(cfg, opts.workloadPath)
	if err != nil {
		return err
	}

	// Step 2: Resolve the backend, with metrics if requested.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	simCfg := backend.Config{Threads: cfg.Threads}
	if opts.metricsAddr != "" {
		simCfg.Metrics = backend.NewMetrics(reg)

		stop := serveMetrics(logger, opts.metricsAddr, reg)
		defer stop()
	}

	sim, err := backend.Get(cfg.Backend, simCfg, logger)
	if err != nil {
		return err
	}

	// Step 3: Run each case sequentially.
	runner := harness.NewRunner(sim, compileConfig(cfg), logger)

	results, err := runner.RunAll(ctx, cases, harness.RunConfig{
		Warmup:  cfg.Warmup,
		Rounds:  cfg.Rounds,
		MinTime: cfg.MinTime,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return err
	}

	// Step 4: Generate report.
	if opts.outputJSON {
		if err := report.GenerateJSON(opts.out, results); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(opts.out, results); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete",
		slog.Int("cases", len(results)),
	)

	return nil
}

func compileConfig(cfg config.Config) harness.CompileConfig {
	return harness.CompileConfig{
		Transpile: compiler.TranspileConfig{OptimizationLevel: cfg.OptimizationLevel},
		Assemble:  compiler.AssembleConfig{Shots: cfg.Shots},
	}
}

func loadCases(cfg config.Config, path string) ([]workload.Case, error) {
	if path == "" {
		return generator(cfg).Cases()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workload %s: %w", path, err)
	}
	defer f.Close()

	cases, err := workload.Read(f)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}

	return cases, nil
}

func generator(cfg config.Config) *workload.Generator {
	return workload.NewGenerator(workload.Config{
		Groups:    cfg.Groups,
		MinQubits: cfg.MinQubits,
		MaxQubits: cfg.MaxQubits,
		QCBMDepth: cfg.QCBMDepth,
	})
}

func serveMetrics(logger *slog.Logger, addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("serving metrics", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
	}
}

func newGenerateCmd() *cobra.Command {
	var output string

	v := viper.New()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the benchmark suite as a JSONL workload",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()

				w = f
			}

			summary, err := generator(cfg).Generate(w)
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(),
				"wrote %d cases across %d groups (%d gates, up to %d qubits)\n",
				summary.TotalCases, summary.Groups,
				summary.TotalGates, summary.MaxQubits)

			return nil
		},
	}

	suiteFlags(cmd.Flags(), v)
	cmd.Flags().StringVarP(&output, "output", "o", "",
		"Output file (default: stdout)")

	return cmd
}

func newShowCmd(logger *slog.Logger) *cobra.Command {
	var (
		group      string
		nqubits    int
		depth      int
		transpiled bool
	)

	v := viper.New()

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the transpiled OpenQASM of a benchmark case",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			c, err := workload.NewCase(group, nqubits, depth)
			if err != nil {
				return err
			}

			circ, err := c.Circuit()
			if err != nil {
				return err
			}

			if transpiled {
				circ, err = compiler.Transpile(circ, compileConfig(cfg).Transpile)
				if err != nil {
					return err
				}
			}

			logger.Debug("showing case",
				slog.String("case", c.Name()),
				slog.Int("gates", circ.Len()),
				slog.Int("depth", circ.Depth()),
			)

			_, err = io.WriteString(cmd.OutOrStdout(), circ.QASM())

			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&group, "group", workload.GroupQCBM,
		"Benchmark group")
	flags.IntVar(&nqubits, "nqubits", workload.DefaultMinQubits,
		"Register size")
	flags.IntVar(&depth, "depth", workload.DefaultQCBMDepth,
		"QCBM depth")
	flags.BoolVar(&transpiled, "transpiled", true,
		"Show the circuit after transpilation (--transpiled=false for the raw circuit)")
	flags.Int("optimization-level", config.Default().OptimizationLevel,
		"Transpiler optimization level (0 or 1)")

	bind(v, flags, "optimization_level", "optimization-level")

	return cmd
}

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List available backends",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range backend.Known() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}

			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			return cfg.WriteYAML(cmd.OutOrStdout())
		},
	}

	suiteFlags(cmd.Flags(), v)

	return cmd
}
