// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command gatectl is the operator tool for the session gate.
//
// It prints and dry-runs the gate rules, inspects or ends stored sessions,
// and drives schema migrations. Every command reads the same environment as
// the server (see internal/platform/config).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taibuivan/sessiongate/internal/platform/constants"
)

// Version information (set via ldflags at build time)
var (
	version   = constants.AppVersion
	commit    = "unknown"
	buildDate = "unknown"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// newRootCmd assembles the command tree. Tests build a fresh tree per case.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gatectl",
		Short: "Operate the session gate",
		Long: `gatectl inspects and operates the session gate.

  rules     print the ordered rule tables
  evaluate  run the gate against a session record without a server
  session   read or end a stored session
  migrate   apply or roll back the account schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newRulesCmd(),
		newEvaluateCmd(),
		newSessionCmd(),
		newMigrateCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
