// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/session"
)

// ruleRow is the printable form of a gate rule.
type ruleRow struct {
	Order       int    `json:"order"       yaml:"order"`
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type ruleTable struct {
	Kind  string    `json:"kind"  yaml:"kind"`
	Rules []ruleRow `json:"rules" yaml:"rules"`
}

func tableFor(kind gate.RouteKind) ruleTable {
	rows := make([]ruleRow, 0, len(gate.RulesFor(kind)))
	for i, rule := range gate.RulesFor(kind) {
		rows = append(rows, ruleRow{Order: i + 1, Name: rule.Name, Description: rule.Description})
	}
	return ruleTable{Kind: kind.String(), Rules: rows}
}

func newRulesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the ordered gate rules",
		Long: `Print both rule tables in evaluation order.

The first matching rule wins, so the order shown is the order the gate applies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables := []ruleTable{tableFor(gate.Protected), tableFor(gate.PublicOnly)}
			if output != formatTable {
				return writeValue(cmd.OutOrStdout(), output, tables)
			}
			return printRuleTables(cmd.OutOrStdout(), tables)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format (table, yaml, json)")
	return cmd
}

func printRuleTables(out io.Writer, tables []ruleTable) error {
	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "KIND\tORDER\tRULE\tWHEN")
	for _, table := range tables {
		for _, row := range table.Rules {
			fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n", table.Kind, row.Order, row.Name, row.Description)
		}
	}
	return writer.Flush()
}

type evaluation struct {
	Path     string        `json:"path"     yaml:"path"`
	Kind     string        `json:"kind"     yaml:"kind"`
	Decision gate.Decision `json:"decision" yaml:"decision"`
}

func newEvaluateCmd() *cobra.Command {
	var (
		statePath string
		path      string
		kindName  string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run the gate against a session record",
		Long: `Evaluate the gate for a JSON session record, as stored in Redis or
returned by GET /api/v1/session. Use --state - to read it from stdin.

The record is normalized first, exactly as the server does on load.`,
		Example: `  gatectl evaluate --state session.json --path /admin/users
  redis-cli GET gate:session:<sid> | gatectl evaluate --state - --path /tasks -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, err := gate.ParseRouteKind(kindName)
			if err != nil {
				return err
			}

			raw, err := readState(cmd.InOrStdin(), statePath)
			if err != nil {
				return err
			}

			state, err := session.Decode(raw)
			if err != nil {
				return fmt.Errorf("decode session record: %w", err)
			}

			return writeValue(cmd.OutOrStdout(), output, evaluation{
				Path:     path,
				Kind:     kind.String(),
				Decision: gate.Evaluate(kind, state, path),
			})
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "-", "Session record file, or - for stdin")
	cmd.Flags().StringVar(&path, "path", gate.PathHome, "Requested path")
	cmd.Flags().StringVar(&kindName, "kind", gate.Protected.String(), "Route kind (protected, public)")
	cmd.Flags().StringVarP(&output, "output", "o", formatYAML, "Output format (yaml, json)")
	return cmd
}

func readState(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(io.LimitReader(stdin, 1<<20))
	}
	return os.ReadFile(path)
}
