// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taibuivan/sessiongate/internal/gate"
	"github.com/taibuivan/sessiongate/internal/platform/config"
	redisstore "github.com/taibuivan/sessiongate/internal/platform/redis"
	"github.com/taibuivan/sessiongate/internal/session"
)

// commandTimeout bounds every round trip a command makes.
const commandTimeout = 10 * time.Second

func cliLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// withSessionStore connects to Redis with the server's configuration.
func withSessionStore(ctx context.Context, fn func(*session.RedisStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	client, err := redisstore.NewClient(ctx, cfg.RedisURL, cliLogger())
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(session.NewRedisStore(client, cfg.SessionTTL))
}

type sessionReport struct {
	ID        string        `json:"id"         yaml:"id"`
	ExpiresIn string        `json:"expires_in" yaml:"expires_in"`
	State     session.State `json:"state"      yaml:"state"`
	Home      gate.Decision `json:"home"       yaml:"home"`
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or end stored sessions",
	}

	var output string
	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a stored session record",
		Long: `Print the record stored for a session id, the remaining lifetime and the
decision the gate would take for "/".

Reading a session slides its expiry, like any request carrying the cookie.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			return withSessionStore(ctx, func(store *session.RedisStore) error {
				state, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}

				ttl, err := store.TTL(ctx, args[0])
				if err != nil {
					return err
				}

				report := sessionReport{
					ID:        args[0],
					ExpiresIn: "absent",
					State:     state,
					Home:      gate.Evaluate(gate.Protected, state, gate.PathHome),
				}
				if ttl > 0 {
					report.ExpiresIn = ttl.Round(time.Second).String()
				}
				return writeValue(cmd.OutOrStdout(), output, report)
			})
		},
	}
	show.Flags().StringVarP(&output, "output", "o", formatYAML, "Output format (yaml, json)")

	logout := &cobra.Command{
		Use:   "logout <session-id>",
		Short: "End a session",
		Long: `Reset a session to the logged-out record. Open tabs of that browser are
notified through the session event stream and fall back to the login page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			return withSessionStore(ctx, func(store *session.RedisStore) error {
				if err := session.NewManager(store).Logout(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s logged out\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(show, logout)
	return cmd
}
