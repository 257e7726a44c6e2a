package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/clock"
	"github.com/good-yellow-bee/incidash/internal/dashboard"
	"github.com/good-yellow-bee/incidash/internal/filter"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/report"
	"github.com/good-yellow-bee/incidash/internal/scheduler"
)

var (
	simulateTicks    int
	simulateBatch    int
	simulateInterval time.Duration
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run refresh ticks on a simulated clock",
	Long: `Run the refresh scheduler against a simulated clock and print the
summary after every tick. No real time passes, so a fixed --seed gives a
reproducible sequence.

Examples:
  # Ten ticks of the default refresh
  incidashctl simulate --seed 42 --ticks 10

  # Heavier churn, P1 tickets only
  incidashctl simulate --seed 42 --ticks 20 --batch 10 --priority P1`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	bindCriteriaFlags(simulateCmd)
	simulateCmd.Flags().IntVarP(&simulateTicks, "ticks", "t", 5, "number of refresh ticks")
	simulateCmd.Flags().IntVar(&simulateBatch, "batch", 3, "tickets mutated per tick")
	simulateCmd.Flags().DurationVar(&simulateInterval, "interval", 30*time.Second, "simulated refresh interval")
}

// TickRecord is one line of simulation output.
type TickRecord struct {
	Tick    int            `json:"tick"`
	At      time.Time      `json:"at"`
	Summary models.Summary `json:"summary"`
	Firing  []string       `json:"firing,omitempty"`
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateTicks < 0 {
		return fmt.Errorf("--ticks must not be negative")
	}
	if simulateInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}
	criteria, err := filter.ParseCriteria(selection)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	clk := clock.Fake(time.Now())
	ds, err := loadDataset(clk.Now())
	if err != nil {
		return err
	}

	sched := scheduler.New(ds.store, clk, scheduler.Config{
		Interval:  simulateInterval,
		BatchSize: simulateBatch,
	}, nil)
	svc := dashboard.New(ds.store, sched, clk, ds.lookup, ds.rules, dashboard.Options{}, nil)

	ticked := make(chan time.Time, 1)
	sched.OnTick(func(at time.Time) {
		svc.HandleTick(at)
		ticked <- at
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := cmd.OutOrStdout()
	format, err := outputFormat(w)
	if err != nil {
		return err
	}
	out := newTickWriter(format, w)

	sched.Start(ctx)
	defer sched.Stop()
	clk.WaitForTickers(1)

	if err := out.write(record(0, clk.Now(), svc, criteria)); err != nil {
		return err
	}
	for i := 1; i <= simulateTicks; i++ {
		clk.Advance(simulateInterval)
		select {
		case at := <-ticked:
			if err := out.write(record(i, at, svc, criteria)); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	PrintVerbose("%d ticks, %d mutations requested", sched.Ticks(), int(sched.Ticks())*simulateBatch)
	return out.flush()
}

func record(tick int, at time.Time, svc *dashboard.Service, c models.FilterCriteria) TickRecord {
	view := svc.View(c)
	return TickRecord{
		Tick:    tick,
		At:      at,
		Summary: view.Summary,
		Firing:  firingRules(view.Rules),
	}
}

func firingRules(states []alerting.RuleState) []string {
	var names []string
	for _, s := range alerting.Firing(states) {
		names = append(names, s.Name)
	}
	return names
}

// tickWriter streams TickRecords in one format.
type tickWriter struct {
	format report.Format
	w      io.Writer
	csv    *csv.Writer
	header bool
}

func newTickWriter(format report.Format, w io.Writer) *tickWriter {
	tw := &tickWriter{format: format, w: w}
	if format == report.FormatCSV {
		tw.csv = csv.NewWriter(w)
	}
	return tw
}

func (tw *tickWriter) write(r TickRecord) error {
	s := r.Summary
	switch tw.format {
	case report.FormatJSON:
		return json.NewEncoder(tw.w).Encode(r)
	case report.FormatCSV:
		if !tw.header {
			tw.csv.Write([]string{"tick", "at", "total", "open", "in_progress", "resolved", "escalated", "sla_breached", "firing"})
			tw.header = true
		}
		tw.csv.Write([]string{
			strconv.Itoa(r.Tick),
			r.At.Format(time.RFC3339),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Open),
			strconv.Itoa(s.InProgress),
			strconv.Itoa(s.Resolved),
			strconv.Itoa(s.Escalated),
			strconv.Itoa(s.SLABreached),
			strings.Join(r.Firing, ";"),
		})
		tw.csv.Flush()
		return tw.csv.Error()
	default:
		line := fmt.Sprintf("tick %-3d %s  total=%d open=%d in_progress=%d resolved=%d escalated=%d sla_breached=%d",
			r.Tick, r.At.Format(time.TimeOnly), s.Total, s.Open, s.InProgress, s.Resolved, s.Escalated, s.SLABreached)
		if len(r.Firing) > 0 {
			line += "  firing=" + strings.Join(r.Firing, ",")
		}
		_, err := fmt.Fprintln(tw.w, line)
		return err
	}
}

func (tw *tickWriter) flush() error {
	if tw.csv == nil {
		return nil
	}
	tw.csv.Flush()
	return tw.csv.Error()
}
