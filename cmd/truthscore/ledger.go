// Copyright 2026 The truthscore Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/traylinx/truthscore/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Show the verification score and recent history",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		l := a.store.Read(cmd.Context())
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(l)
		}
		printLedger(cmd.OutOrStdout(), l)
		return nil
	},
}

func init() {
	ledgerCmd.Flags().Bool("json", false, "Print the ledger as JSON")
}

func printLedger(w io.Writer, l ledger.Ledger) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "%s %d\n", cyan("Verification score:"), l.TotalScore)
	if len(l.History) == 0 {
		fmt.Fprintln(w, gray("No verifications yet."))
		return
	}
	fmt.Fprintln(w)
	for _, rec := range l.History {
		mark := red("✗")
		if rec.Verdict {
			mark = green("✓")
		}
		fmt.Fprintf(w, "%s %-8s %3d%%  %s  %s\n",
			mark, rec.Kind, rec.Confidence,
			gray(rec.Timestamp.Local().Format("2006-01-02 15:04")), rec.Content)
	}
}
