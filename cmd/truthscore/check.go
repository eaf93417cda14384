// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/traylinx/truthscore/internal/ledger"
	"github.com/traylinx/truthscore/internal/verify"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate news, a website or a company from the terminal",
	Long: `Run one evaluation and record it in the same ledger the API uses.

Examples:
  truthscore check news "Researchers published the study on Monday"
  truthscore check news --url https://example.com/story
  truthscore check website https://example.com
  truthscore check company "Reliance Industries Ltd"`,
}

var checkNewsCmd = &cobra.Command{
	Use:   "news <content>",
	Short: "Score news content",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asURL, _ := cmd.Flags().GetBool("url")
		source := ledger.SourceText
		if asURL {
			source = ledger.SourceURL
		}
		content := strings.Join(args, " ")
		return runCheck(cmd, func(ctx context.Context, v *verify.Verifier) (verify.Outcome, error) {
			return v.CheckNews(ctx, content, source)
		})
	},
}

var checkWebsiteCmd = &cobra.Command{
	Use:   "website <url>",
	Short: "Assess a website URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd, func(ctx context.Context, v *verify.Verifier) (verify.Outcome, error) {
			return v.CheckWebsite(ctx, args[0])
		})
	},
}

var checkCompanyCmd = &cobra.Command{
	Use:   "company <name>",
	Short: "Check a company name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")
		return runCheck(cmd, func(ctx context.Context, v *verify.Verifier) (verify.Outcome, error) {
			return v.CheckCompany(ctx, name)
		})
	},
}

func init() {
	checkCmd.PersistentFlags().Bool("no-delay", false, "Skip the simulated analysis delay")
	checkNewsCmd.Flags().Bool("url", false, "Treat the content as a URL submission")
	checkCmd.AddCommand(checkNewsCmd, checkWebsiteCmd, checkCompanyCmd)
}

type checkFunc func(ctx context.Context, v *verify.Verifier) (verify.Outcome, error)

func runCheck(cmd *cobra.Command, fn checkFunc) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if noDelay, _ := cmd.Flags().GetBool("no-delay"); noDelay {
		a.verifier.SetDelay(0)
	}

	out, err := fn(ctx, a.verifier)
	if err != nil {
		return err
	}
	printOutcome(cmd.OutOrStdout(), out)
	return nil
}

// printOutcome renders a verdict the way the result card shows it.
func printOutcome(w io.Writer, out verify.Outcome) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	rec := out.Record
	verdict := red(verdictLabel(rec))
	if rec.Verdict {
		verdict = green(verdictLabel(rec))
	}

	fmt.Fprintf(w, "%s %s\n", bold(strings.ToUpper(string(rec.Kind))), verdict)
	fmt.Fprintf(w, "  Confidence: %d%%\n", rec.Confidence)

	if out.Company != nil {
		fmt.Fprintf(w, "  Company:    %s\n", out.Company.Name)
		if out.Company.RegistrationID != "" {
			fmt.Fprintf(w, "  Reg. no.:   %s\n", out.Company.RegistrationID)
		}
		fmt.Fprintf(w, "  Status:     %s\n", out.Company.Status)
	}
	fmt.Fprintf(w, "  %s\n", rec.Explanation)

	if len(rec.RiskFactors) > 0 {
		fmt.Fprintln(w, "  Risk factors:")
		for _, f := range rec.RiskFactors {
			fmt.Fprintf(w, "    - %s\n", f)
		}
	}

	if out.Awarded > 0 {
		fmt.Fprintf(w, "%s +%d points, total %d\n", green("✓"), out.Awarded, out.Ledger.TotalScore)
	} else {
		fmt.Fprintf(w, "%s\n", gray(fmt.Sprintf("Total score %d", out.Ledger.TotalScore)))
	}
}

func verdictLabel(rec ledger.Record) string {
	switch rec.Kind {
	case ledger.KindNews:
		if rec.Verdict {
			return "Likely credible"
		}
		return "Potentially misleading"
	default:
		if rec.Verdict {
			return "Legitimate"
		}
		return "Suspicious"
	}
}
