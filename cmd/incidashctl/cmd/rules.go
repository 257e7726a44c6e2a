package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/good-yellow-bee/incidash/internal/alerting"
	"github.com/good-yellow-bee/incidash/internal/analytics"
)

var rulesFailOnFiring bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect threshold rules",
	Long: `Threshold rules are expr-lang conditions over the dashboard summary,
evaluated against the whole ticket set.

Available variables:
  ` + strings.Join(alerting.Variables(), ", "),
}

var rulesCheckCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Validate a rules file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := alerting.LoadRulesFromFile(args[0])
		if err != nil {
			return err
		}
		return printRules(cmd.OutOrStdout(), rules)
	},
}

var rulesVarsCmd = &cobra.Command{
	Use:   "vars",
	Short: "List variables available to rule conditions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, v := range alerting.Variables() {
			fmt.Fprintln(cmd.OutOrStdout(), v)
		}
	},
}

var rulesEvalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate rules against the ticket set",
	Long: `Evaluate the rules (--rules, or the built-in rules) once against the
ticket set. Rules with a "for" duration report pending on a single
evaluation.

Examples:
  # Fail a CI step when any rule fires for a fixture
  incidashctl rules eval --fixture tickets.yaml --rules rules.yaml --fail-on-firing`,
	Args: cobra.NoArgs,
	RunE: runRulesEval,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesCheckCmd, rulesVarsCmd, rulesEvalCmd)

	rulesEvalCmd.Flags().BoolVar(&rulesFailOnFiring, "fail-on-firing", false, "exit non-zero when any rule fires")
}

func runRulesEval(cmd *cobra.Command, args []string) error {
	now := time.Now()
	ds, err := loadDataset(now)
	if err != nil {
		return err
	}

	all := ds.store.List()
	env := alerting.NewEnv(analytics.ComputeSummary(all), analytics.ComputeSLACompliance(all))
	states := ds.rules.Evaluate(env, now)

	w := cmd.OutOrStdout()
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(states); err != nil {
			return err
		}
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RULE\tSEVERITY\tSTATE\tCONDITION")
		for _, s := range states {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Severity, stateLabel(s), s.Condition)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if firing := alerting.Firing(states); rulesFailOnFiring && len(firing) > 0 {
		return fmt.Errorf("%d rule(s) firing", len(firing))
	}
	return nil
}

func stateLabel(s alerting.RuleState) string {
	switch {
	case s.Error != "":
		return "error: " + s.Error
	case s.Firing:
		return "FIRING"
	case s.Pending:
		return "pending"
	default:
		return "ok"
	}
}

func printRules(w io.Writer, rules []*alerting.Rule) error {
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rules)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tFOR\tENABLED\tCONDITION")
	for _, r := range rules {
		forText := r.For
		if forText == "" {
			forText = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", r.Name, r.Severity, forText, r.IsEnabled(), r.Condition)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d rule(s) valid\n", len(rules))
	return nil
}
