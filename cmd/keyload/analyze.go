package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/keyload/internal/config"
	"github.com/verte-zerg/keyload/internal/corpus"
	"github.com/verte-zerg/keyload/internal/export"
	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
	"github.com/verte-zerg/keyload/internal/queue"
	"github.com/verte-zerg/keyload/internal/runner"
	"github.com/verte-zerg/keyload/internal/stats"
	"github.com/verte-zerg/keyload/internal/store"
)

var (
	analyzeChunkSize    int
	analyzeStrategy     string
	analyzeWorkers      int
	analyzeLayouts      string
	analyzeMaxAttempts  int
	analyzeTimeout      time.Duration
	analyzeLocalWorkers int
	analyzeOut          string
	analyzeNoSave       bool
	analyzeResume       string

	queueAddr     string
	queuePassword string
	queueDB       int
	queuePrefix   string
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <corpus>",
		Short: "Score a corpus file against every layout",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyzeCmd,
	}
	addAnalyzeFlags(cmd)
	cmd.Flags().IntVar(&analyzeLocalWorkers, "local-workers", 0, "in-process workers next to a Redis queue")
	cmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "also write the snapshot to a .json/.yaml[.zst] file")
	cmd.Flags().BoolVar(&analyzeNoSave, "no-save", false, "do not record the run in the history database")
	cmd.Flags().StringVar(&analyzeResume, "resume", "", "continue an interrupted queue run by id")
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&analyzeChunkSize, "chunk-size", defaultChunkSize, "characters per chunk")
	cmd.Flags().StringVarP(&analyzeStrategy, "strategy", "s", defaultStrategy, "sequential, pool, or queue")
	cmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", defaultWorkers, "parallel workers for pool and in-memory queue")
	cmd.Flags().StringVarP(&analyzeLayouts, "layouts", "l", "all", "comma-separated layout ids")
	cmd.Flags().IntVar(&analyzeMaxAttempts, "max-attempts", defaultMaxAttempts, "attempts per chunk in queue mode")
	cmd.Flags().DurationVar(&analyzeTimeout, "timeout", defaultTimeout, "wait for the next queue completion")
	addQueueFlags(cmd)
}

func addQueueFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&queueAddr, "redis-addr", "", "Redis address for the queue strategy (empty: in memory)")
	cmd.Flags().StringVar(&queuePassword, "redis-password", "", "Redis password")
	cmd.Flags().IntVar(&queueDB, "redis-db", 0, "Redis database")
	cmd.Flags().StringVar(&queuePrefix, "prefix", queue.DefaultPrefix, "namespace for Redis keys")
}

// loadAnalyzeConfig merges the config file under the flags and validates the result.
func loadAnalyzeConfig(cmd *cobra.Command, source string) (model.AnalyzeConfig, model.QueueConfig, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return model.AnalyzeConfig{}, model.QueueConfig{}, err
	}
	applyIntConfig(cmd, "chunk-size", &analyzeChunkSize, fileCfg.Analyze.ChunkSize)
	applyStringConfig(cmd, "strategy", &analyzeStrategy, fileCfg.Analyze.Strategy)
	applyIntConfig(cmd, "workers", &analyzeWorkers, fileCfg.Analyze.Workers)
	applyStringConfig(cmd, "layouts", &analyzeLayouts, fileCfg.Analyze.Layouts)
	applyIntConfig(cmd, "max-attempts", &analyzeMaxAttempts, fileCfg.Analyze.MaxAttempts)
	if err := applyDurationConfig(cmd, "timeout", &analyzeTimeout, fileCfg.Analyze.Timeout); err != nil {
		return model.AnalyzeConfig{}, model.QueueConfig{}, err
	}
	qcfg := applyQueueConfig(cmd, fileCfg)

	cfg := model.AnalyzeConfig{
		Source:      source,
		ChunkSize:   analyzeChunkSize,
		Strategy:    analyzeStrategy,
		Workers:     analyzeWorkers,
		Layouts:     strings.Split(analyzeLayouts, ","),
		MaxAttempts: analyzeMaxAttempts,
		Timeout:     analyzeTimeout,
		Resume:      strings.TrimSpace(analyzeResume),
		Ephemeral:   analyzeNoSave,
	}
	if err := validateConfig(cfg); err != nil {
		return model.AnalyzeConfig{}, model.QueueConfig{}, err
	}
	return cfg, qcfg, nil
}

func applyQueueConfig(cmd *cobra.Command, fileCfg config.FileConfig) model.QueueConfig {
	applyStringConfig(cmd, "redis-addr", &queueAddr, fileCfg.Queue.RedisAddr)
	applyStringConfig(cmd, "redis-password", &queuePassword, fileCfg.Queue.RedisPassword)
	applyIntConfig(cmd, "redis-db", &queueDB, fileCfg.Queue.RedisDB)
	applyStringConfig(cmd, "prefix", &queuePrefix, fileCfg.Queue.Prefix)
	return model.QueueConfig{Addr: queueAddr, Password: queuePassword, DB: queueDB, Prefix: queuePrefix}
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, qcfg, err := loadAnalyzeConfig(cmd, args[0])
	if err != nil {
		return err
	}

	run, res, err := scoreCorpus(ctx, cfg, qcfg, analyzeLocalWorkers, logger)
	if err != nil {
		return err
	}

	if !analyzeNoSave {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore(st)
		if err := st.InsertRun(ctx, run, res.Chunks); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		logger.Info("run saved", "id", run.ID)
	}
	if analyzeOut != "" {
		if err := export.WriteFile(analyzeOut, run.Totals); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", analyzeOut)
	}
	return printSummary(cmd.OutOrStdout(), run.Totals)
}

// scoreCorpus runs one analysis with the configured strategy. localWorkers
// only matters for a Redis-backed queue.
func scoreCorpus(ctx context.Context, cfg model.AnalyzeConfig, qcfg model.QueueConfig, localWorkers int, logger *log.Logger) (model.Run, runner.Result, error) {
	ids, err := layout.ParseList(strings.Join(cfg.Layouts, ","))
	if err != nil {
		return model.Run{}, runner.Result{}, err
	}
	strategy, err := runner.ParseStrategy(cfg.Strategy)
	if err != nil {
		return model.Run{}, runner.Result{}, err
	}

	runID := cfg.Resume
	if runID == "" {
		runID = uuid.NewString()
	}
	run := model.Run{
		ID:        runID,
		Source:    absPath(cfg.Source),
		Strategy:  string(strategy),
		ChunkSize: cfg.ChunkSize,
		StartedAt: time.Now().UTC(),
	}
	opts := runner.Options{
		RunID:       run.ID,
		Layouts:     ids,
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
		Timeout:     cfg.Timeout,
		Prefix:      qcfg.Prefix,
		Logger:      logger,
	}

	prog := newProgress(logger)
	logger.Debug("starting run", "id", run.ID, "strategy", strategy, "source", cfg.Source)
	var res runner.Result
	switch strategy {
	case runner.Sequential, runner.Pool:
		f, err := corpus.Open(cfg.Source, cfg.ChunkSize)
		if err != nil {
			return model.Run{}, runner.Result{}, err
		}
		defer func() {
			// Best-effort close for a read-only corpus.
			_ = f.Close()
		}()
		if strategy == runner.Sequential {
			res, err = runner.RunSequential(ctx, f, opts)
		} else {
			res, err = runner.RunPool(ctx, f, opts)
		}
		if err != nil {
			return model.Run{}, runner.Result{}, err
		}
	case runner.Queue:
		chunks, err := corpus.ReadFile(cfg.Source, cfg.ChunkSize)
		if err != nil {
			return model.Run{}, runner.Result{}, err
		}
		if qcfg.Addr == "" {
			res, err = runMemoryQueue(ctx, chunks, opts, cfg.Ephemeral)
		} else {
			res, err = runRedisQueue(ctx, chunks, qcfg, localWorkers, opts)
		}
		if err != nil {
			return model.Run{}, runner.Result{}, err
		}
	}
	prog.done(fmt.Sprintf("Scored %d chunks", res.Count))

	run.EndedAt = time.Now().UTC()
	run.Chunks = res.Count
	run.Totals = res.Totals
	return run, res, nil
}

// runMemoryQueue drives the queue protocol in process with opts.Workers
// goroutine workers. Partials go to the history database unless ephemeral.
func runMemoryQueue(ctx context.Context, chunks []corpus.Chunk, opts runner.Options, ephemeral bool) (runner.Result, error) {
	// Every attempt of every chunk fits in the queues, so publishing never
	// waits on the coordinator.
	broker := queue.NewMemory(len(chunks) * max(opts.MaxAttempts, 1))
	var partials runner.PartialIndex = store.NewMemory()
	if !ephemeral {
		st, err := openStore()
		if err != nil {
			return runner.Result{}, err
		}
		defer closeStore(st)
		partials = st
	}
	res, err := withWorkers(ctx, broker, partials, opts.Workers, opts, func() (runner.Result, error) {
		return runner.RunQueue(ctx, runner.NewSliceSource(chunks), broker, partials, opts)
	})
	if err != nil {
		if !ephemeral {
			opts.Logger.Warn("partials kept", "resume", "--resume "+opts.RunID)
		}
		return runner.Result{}, err
	}
	cleanupPartials(ctx, partials, opts)
	return res, nil
}

func runRedisQueue(ctx context.Context, chunks []corpus.Chunk, qcfg model.QueueConfig, localWorkers int, opts runner.Options) (runner.Result, error) {
	client, err := queue.Dial(ctx, qcfg)
	if err != nil {
		return runner.Result{}, err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logErrf("failed to close redis: %v\n", cerr)
		}
	}()
	broker := queue.NewRedis(client, qcfg.Prefix)
	partials := store.NewRedisKV(client)
	if localWorkers == 0 {
		opts.Logger.Info("waiting for workers", "tasks", broker.TasksKey())
	}
	res, err := withWorkers(ctx, broker, partials, localWorkers, opts, func() (runner.Result, error) {
		return runner.RunQueue(ctx, runner.NewSliceSource(chunks), broker, partials, opts)
	})
	if err != nil {
		opts.Logger.Warn("partials kept", "resume", "--resume "+opts.RunID)
		return runner.Result{}, err
	}
	cleanupPartials(ctx, partials, opts)
	return res, nil
}

// cleanupPartials drops a finished run's partials. Failures only leave
// stale keys behind.
func cleanupPartials(ctx context.Context, ps runner.PartialIndex, opts runner.Options) {
	removed, err := runner.Cleanup(ctx, ps, opts.Prefix, opts.RunID)
	if err != nil {
		opts.Logger.Warn("failed to clean up partials", "err", err)
		return
	}
	opts.Logger.Debug("removed partials", "count", removed)
}

// withWorkers runs n workers on b while coordinate runs, then stops them.
func withWorkers(ctx context.Context, b runner.Broker, ps runner.PartialStore, n int, opts runner.Options, coordinate func() (runner.Result, error)) (runner.Result, error) {
	wctx, stop := context.WithCancel(ctx)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		wopts := opts
		wopts.Logger = opts.Logger.With("worker", i)
		g.Go(func() error {
			return runner.Worker(wctx, b, ps, wopts)
		})
	}
	res, err := coordinate()
	stop()
	if werr := g.Wait(); err == nil && werr != nil {
		err = werr
	}
	return res, err
}

func printSummary(w io.Writer, snap model.Snapshot) error {
	if err := stats.RenderFingerLoads(w, snap); err != nil {
		return err
	}
	if err := stats.RenderPresses(w, snap); err != nil {
		return err
	}
	if err := stats.RenderComparison(w, snap, layout.Qwer); err != nil {
		return err
	}
	return stats.RenderHandBalance(w, snap)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

var (
	workerLayouts     string
	workerMaxAttempts int
)

func newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume chunk tasks from a Redis queue",
		Args:  cobra.NoArgs,
		RunE:  runWorkerCmd,
	}
	cmd.Flags().StringVarP(&workerLayouts, "layouts", "l", "all", "comma-separated layout ids")
	cmd.Flags().IntVar(&workerMaxAttempts, "max-attempts", defaultMaxAttempts, "attempts to store a partial")
	addQueueFlags(cmd)
	return cmd
}

func runWorkerCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "layouts", &workerLayouts, fileCfg.Analyze.Layouts)
	applyIntConfig(cmd, "max-attempts", &workerMaxAttempts, fileCfg.Analyze.MaxAttempts)
	qcfg := applyQueueConfig(cmd, fileCfg)
	if qcfg.Addr == "" {
		return fmt.Errorf("--redis-addr is required for a worker")
	}
	ids, err := layout.ParseList(workerLayouts)
	if err != nil {
		return fmt.Errorf("--layouts: %w", err)
	}

	client, err := queue.Dial(ctx, qcfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logErrf("failed to close redis: %v\n", cerr)
		}
	}()

	return runner.Worker(ctx, queue.NewRedis(client, qcfg.Prefix), store.NewRedisKV(client), runner.Options{
		Layouts:     ids,
		MaxAttempts: workerMaxAttempts,
		Prefix:      qcfg.Prefix,
		Logger:      logger.With("redis", qcfg.Addr),
	})
}
