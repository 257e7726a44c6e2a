// Package cmd contains the CLI commands for incidash.
package cmd

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/analytics"
	"github.com/good-yellow-bee/incidash/internal/models"
	"github.com/good-yellow-bee/incidash/internal/report"
	"github.com/good-yellow-bee/incidash/internal/store"
)

var (
	// Used for flags
	verbose     bool
	output      string
	fixtureFile string
	lookupFile  string
	rulesFile   string
	seed        uint64
	ticketCount int
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "incidashctl",
	Short: "incidash - incident ticket dashboard CLI",
	Long: `incidashctl renders the incident dashboard in the terminal and
exercises its refresh and rule logic offline.

The ticket set comes from a YAML fixture (--fixture) or is generated
from a seed (--seed, --count), exactly as the server does.

Examples:
  # Dashboard for the last 30 days, P1 only
  incidashctl report --window 30d --priority P1

  # Same data as CSV
  incidashctl report --seed 42 -o csv > dashboard.csv

  # Watch ten refresh ticks
  incidashctl simulate --seed 42 --ticks 10

  # Validate a rules file
  incidashctl rules check rules.yaml`,
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "output format (table, json, csv; default table on a terminal, json otherwise)")
	rootCmd.PersistentFlags().StringVar(&fixtureFile, "fixture", "", "YAML ticket fixture (default: generated tickets)")
	rootCmd.PersistentFlags().StringVar(&lookupFile, "lookup", "", "YAML breakdown tables")
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML threshold rules (default: built-in rules)")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed for generation and refresh (0 = random)")
	rootCmd.PersistentFlags().IntVar(&ticketCount, "count", store.DefaultTicketCount, "number of generated tickets")
}

// PrintVerbose prints a message to stderr only if verbose mode is enabled.
func PrintVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// outputFormat resolves --output for w.
func outputFormat(w io.Writer) (report.Format, error) {
	if output == "" {
		return report.DefaultFormat(w), nil
	}
	format, ok := report.ParseFormat(output)
	if !ok {
		return "", fmt.Errorf("invalid output format: %s (use table, json or csv)", output)
	}
	return format, nil
}

// dataset is the offline equivalent of the server's wiring.
type dataset struct {
	store  *store.Store
	lookup *analytics.LookupTable
	rules  *alerting.Engine
	seed   uint64
}

func loadDataset(now time.Time) (*dataset, error) {
	s := seed
	if s == 0 {
		s = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(s, s>>1|1))

	var tickets []models.Ticket
	if fixtureFile != "" {
		var err error
		tickets, err = store.LoadFile(fixtureFile, now)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
	} else {
		if ticketCount < 0 {
			return nil, fmt.Errorf("--count must not be negative")
		}
		tickets = store.Generate(rng, now, ticketCount)
	}

	lookup := analytics.DefaultLookup()
	if lookupFile != "" {
		var err error
		lookup, err = analytics.LoadLookupFile(lookupFile)
		if err != nil {
			return nil, err
		}
	}

	rules := alerting.DefaultRules()
	if rulesFile != "" {
		var err error
		rules, err = alerting.LoadRulesFromFile(rulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	PrintVerbose("loaded %d tickets (seed %d)", len(tickets), s)

	return &dataset{
		store:  store.New(tickets, rng),
		lookup: analytics.NewLookupTable(lookup),
		rules:  alerting.NewEngine(rules, nil),
		seed:   s,
	}, nil
}
