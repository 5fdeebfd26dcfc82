package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lugondev/go-soflotto/internal/ledger"
	"github.com/lugondev/go-soflotto/internal/metrics"
	"github.com/lugondev/go-soflotto/internal/oracle"
	"github.com/lugondev/go-soflotto/internal/processor"
	"github.com/lugondev/go-soflotto/internal/program"
	"github.com/lugondev/go-soflotto/internal/receipt"
	"github.com/lugondev/go-soflotto/internal/scenario"
	"github.com/lugondev/go-soflotto/internal/storage"
	_ "github.com/lugondev/go-soflotto/internal/storage/mongo"
	_ "github.com/lugondev/go-soflotto/internal/storage/postgres"
)

const journalBatchSize = 50

var simulateCmd = &cobra.Command{
	Use:   "simulate [scenario.yaml]",
	Short: "Run a scenario against an in-memory ledger",
	Long: `Deploy the program on a fresh in-memory ledger, fund the scenario's wallets
and execute its steps in order. Receipts feed the configured metrics backend
and, when a database is enabled, are journaled together with a final account
snapshot.

With the prometheus backend, --hold keeps the metrics endpoint up after the
run until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		hold, _ := cmd.Flags().GetBool("hold")
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		report, err := simulate(ctx, sc, hold)
		if err != nil {
			return err
		}
		if asJSON {
			err = writeReportJSON(cmd.OutOrStdout(), report)
		} else {
			err = writeReport(cmd.OutOrStdout(), report)
		}
		if err != nil {
			return err
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("step %d (%s) failed: %w", failed[0].Index, failed[0].Op, failed[0].Err)
		}
		return nil
	},
}

// metricsBackend builds the configured metrics collection. The returned
// handler is non-nil for the prometheus backend.
func metricsBackend() (*metrics.Collection, http.Handler, error) {
	switch cfg.Metrics.Backend {
	case "", "none":
		return metrics.NewCollection(metrics.NewNoopMetrics()), nil, nil
	case "log":
		return metrics.NewCollection(metrics.NewLogMetrics(logger)), nil, nil
	case "prometheus":
		prom := metrics.NewPrometheusMetrics()
		prom.SetBuildInfo(Version, GitCommit, BuildDate)
		return metrics.NewCollection(prom), prom.Handler(), nil
	default:
		return nil, nil, fmt.Errorf("unknown metrics backend %q", cfg.Metrics.Backend)
	}
}

func simulate(ctx context.Context, sc *scenario.Scenario, hold bool) (*scenario.Report, error) {
	book, err := addressBook()
	if err != nil {
		return nil, err
	}
	o, err := oracle.FromConfig(cfg.Oracle)
	if err != nil {
		return nil, err
	}
	coll, handler, err := metricsBackend()
	if err != nil {
		return nil, err
	}
	if err := coll.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		if err := coll.Shutdown(context.Background()); err != nil {
			logger.Warn("metrics shutdown failed", "error", err)
		}
	}()

	procs := []processor.Processor[*receipt.Receipt]{
		processor.LogErrors[*receipt.Receipt](processor.NewMetricsProcessor(), logger, "metrics"),
	}
	var (
		repo  storage.Repository
		batch *processor.BatchProcessor[*receipt.Receipt]
	)
	if cfg.Database.Enabled {
		cm, err := storage.NewConnectionManager(&cfg.Database)
		if err != nil {
			return nil, err
		}
		defer cm.Close()
		repo, err = cm.Connect(ctx)
		if err != nil {
			return nil, err
		}
		var journal *processor.ChainedProcessor[*receipt.Receipt]
		journal, batch = processor.Journal(repo, logger, journalBatchSize)
		procs = append(procs, processor.LogErrors[*receipt.Receipt](journal, logger, "journal"))
		logger.Info("journaling receipts", "database", cfg.Database.Type)
	}

	prog := program.New(
		ledger.New(clockwork.NewRealClock()),
		book,
		o,
		program.ParamsFromConfig(cfg),
		program.WithLogger(logger),
		program.WithMetrics(coll),
		program.WithProcessors(procs...),
	)

	g, gctx := errgroup.WithContext(ctx)
	runCtx, finish := context.WithCancel(gctx)
	defer finish()

	if handler != nil {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	var report *scenario.Report
	g.Go(func() error {
		if handler == nil || !hold {
			defer finish()
		}
		var err error
		report, err = scenario.NewRunner(prog, cfg, logger).Run(runCtx, sc)
		if err != nil {
			return err
		}
		return persist(runCtx, prog, repo, batch, coll)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := coll.Flush(context.Background()); err != nil {
		logger.Warn("metrics flush failed", "error", err)
	}
	return report, nil
}

// persist flushes the receipt journal and writes the final ledger snapshot.
func persist(ctx context.Context, prog *program.Program, repo storage.Repository, batch *processor.BatchProcessor[*receipt.Receipt], coll *metrics.Collection) error {
	if repo == nil {
		return nil
	}
	if err := batch.FlushBatch(ctx, coll); err != nil {
		return fmt.Errorf("failed to flush receipt journal: %w", err)
	}
	n, err := storage.PersistLedger(ctx, repo, prog.Ledger(), 0)
	if err != nil {
		return err
	}
	logger.Info("ledger snapshot persisted", "accounts", n, "slot", prog.Ledger().Slot())
	return coll.IncrementCounter(ctx, metrics.MetricAccountSnapshotsPersisted, uint64(n))
}

func writeReport(w io.Writer, r *scenario.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Scenario:\t%s\n", r.Name)
	fmt.Fprintf(tw, "Mint:\t%s\n", r.Mint)
	fmt.Fprintf(tw, "Elapsed:\t%s\n\n", r.Elapsed.Round(time.Microsecond))

	fmt.Fprintln(tw, "#\tOP\tRESULT\tEVENTS")
	for _, s := range r.Steps {
		result := "ok"
		if s.Code != "" {
			result = s.Code
		}
		if s.Err != nil {
			result += " (unexpected)"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Index, s.Op, result, eventList(s.Receipts))
	}

	if gs := r.Final; gs != nil {
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Round:\t%d\n", gs.CurrentRound)
		fmt.Fprintf(tw, "Participants:\t%d\n", gs.Participants)
		fmt.Fprintf(tw, "Jackpot:\t%d\n", gs.JackpotAmount)
		fmt.Fprintf(tw, "Total burned:\t%d\n", gs.BurnedTokens)
		fmt.Fprintf(tw, "Tax collected:\t%d\n", gs.TotalTaxCollected)
		fmt.Fprintf(tw, "LP fees collected:\t%d\n", gs.TotalLpFeesCollected)
		fmt.Fprintf(tw, "Paused:\t%t\n", gs.IsEmergencyPaused)
	}

	if len(r.Balances) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "WALLET\tTOKENS")
		names := make([]string, 0, len(r.Balances))
		for name := range r.Balances {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(tw, "%s\t%d\n", name, r.Balances[name])
		}
	}
	return tw.Flush()
}

func eventList(receipts []*receipt.Receipt) string {
	var names []string
	for _, rc := range receipts {
		for _, e := range rc.Events {
			names = append(names, e.EventName())
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

type stepJSON struct {
	Index  int      `json:"index"`
	Op     string   `json:"op"`
	Code   string   `json:"code,omitempty"`
	Error  string   `json:"error,omitempty"`
	Events []string `json:"events,omitempty"`
}

func writeReportJSON(w io.Writer, r *scenario.Report) error {
	steps := make([]stepJSON, 0, len(r.Steps))
	for _, s := range r.Steps {
		sj := stepJSON{Index: s.Index, Op: string(s.Op), Code: s.Code}
		if s.Err != nil {
			sj.Error = s.Err.Error()
		}
		for _, rc := range s.Receipts {
			for _, e := range rc.Events {
				sj.Events = append(sj.Events, e.EventName())
			}
		}
		steps = append(steps, sj)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"name":     r.Name,
		"mint":     r.Mint.String(),
		"elapsed":  r.Elapsed.String(),
		"steps":    steps,
		"final":    r.Final,
		"balances": r.Balances,
	})
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().Bool("hold", false, "keep serving prometheus metrics after the run until interrupted")
	simulateCmd.Flags().Bool("json", false, "print the report as JSON")
}
