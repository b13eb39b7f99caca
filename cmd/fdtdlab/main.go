package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fdtdlab/fdtdlab/internal/config"
	"github.com/fdtdlab/fdtdlab/internal/operator"
	"github.com/fdtdlab/fdtdlab/internal/runner"
	"github.com/fdtdlab/fdtdlab/internal/storage"
	"github.com/fdtdlab/fdtdlab/internal/tui"
)

var (
	dataDir    string
	verbose    bool
	engineName string
	threads    int
	noSim      bool
	noDumps    bool
	debugMat   bool
	debugOp    bool
	debugPEC   bool
	live       bool
)

var logger *zap.SugaredLogger

func main() {
	rootCmd := &cobra.Command{
		Use:   "fdtdlab",
		Short: "time-domain electromagnetic field solver",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			cfg.Encoding = "console"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			l, err := cfg.Build()
			if err != nil {
				return err
			}
			logger = l.Sugar()
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fdtdlab", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [config.yaml]",
		Short: "run a simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&engineName, "engine", "basic", "engine variant (basic, vector, vector-compressed, multithread, fastest)")
	runCmd.Flags().IntVar(&threads, "threads", 0, "worker threads for the multithreaded engine (0 = all CPUs)")
	runCmd.Flags().BoolVar(&noSim, "no-simulation", false, "preprocessing only: build and bake the operator, skip the run loop")
	runCmd.Flags().BoolVar(&noDumps, "disable-dumps", false, "disable all field dumps")
	runCmd.Flags().BoolVar(&debugMat, "debug-material", false, "dump material assignment")
	runCmd.Flags().BoolVar(&debugOp, "debug-operator", false, "dump raw update coefficients")
	runCmd.Flags().BoolVar(&debugPEC, "debug-pec", false, "dump PEC classification")
	runCmd.Flags().BoolVar(&live, "live", false, "live progress view")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [probe]",
		Short: "plot a probe time series",
		Args:  cobra.ExactArgs(2),
		RunE:  plotProbe,
	}

	validateCmd := &cobra.Command{
		Use:   "validate [config.yaml]",
		Short: "check a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE:  validateConfig,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, plotCmd, validateCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func engineType(name string) (operator.Type, error) {
	switch name {
	case "basic", "":
		return operator.TypeBasic, nil
	case "vector":
		return operator.TypeVector, nil
	case "vector-compressed":
		return operator.TypeVectorCompressed, nil
	case "multithread", "fastest":
		return operator.TypeMultithread, nil
	}
	return operator.TypeBasic, fmt.Errorf("unknown engine %q", name)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	et, err := engineType(engineName)
	if err != nil {
		return err
	}
	var debug operator.DebugFlags
	if debugMat {
		debug |= operator.DebugMaterial
	}
	if debugOp {
		debug |= operator.DebugOperator
	}
	if debugPEC {
		debug |= operator.DebugPEC
	}

	store := storage.New(dataDir)
	sess := runner.NewSession(cfg, runner.Options{
		EngineType:   et,
		Threads:      threads,
		NoSimulation: noSim,
		DisableDumps: noDumps,
		Debug:        debug,
	}, store, logger)

	if err := sess.Setup(); err != nil {
		return err
	}
	if noSim {
		logger.Info("preprocessing done, simulation skipped")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if live {
		return runLive(ctx, sess)
	}

	rep, err := sess.Run(ctx)
	if err != nil {
		return err
	}
	logger.Infow("done", "run_id", sess.RunID(), "state", rep.State.String())
	return nil
}

func runLive(ctx context.Context, sess *runner.Session) error {
	p := tea.NewProgram(tui.NewModel())
	sess.Progress = func(rep runner.Report) {
		p.Send(tui.ReportMsg(rep))
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := sess.Run(ctx)
		p.Send(tui.DoneMsg{})
		errCh <- err
	}()

	if _, err := p.Run(); err != nil {
		sess.Cancel()
		<-errCh
		return err
	}
	sess.Cancel() // detached before the run ended
	return <-errCh
}

func plotProbe(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	_, values, err := store.LoadSeries(args[0], args[1])
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no samples in probe %q of run %q", args[1], args[0])
	}
	fmt.Println(asciigraph.Plot(values, asciigraph.Height(16), asciigraph.Caption(args[1])))
	return nil
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d timesteps, end criteria %g, oversampling %d\n",
		cfg.FDTD.Timesteps, cfg.FDTD.EndCriteria, cfg.FDTD.OverSampling)
	for f, token := range cfg.Boundaries.Faces() {
		bt, depth, err := operator.ParseBoundary(token)
		if err != nil {
			fmt.Printf("  %s: %q unknown, would default to PEC\n", operator.FaceNames[f], token)
			continue
		}
		if bt == operator.PML {
			fmt.Printf("  %s: PML depth %d\n", operator.FaceNames[f], depth)
		} else {
			fmt.Printf("  %s: %s\n", operator.FaceNames[f], bt)
		}
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%-24s %-20s %12d steps %10.1f MC/s\n", r.ID, r.State, r.Timesteps, r.MCellsPerSec)
	}
	return nil
}
