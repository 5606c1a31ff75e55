package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/victorarias/todos/internal/session"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	staleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect or prune stored sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Session.Store == session.StoreMemory {
			fmt.Fprintln(cmd.OutOrStdout(), "memory store: sessions live inside the server process only")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := openStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(ctx)
		if err != nil {
			return err
		}
		printSessions(cmd.OutOrStdout(), records, cfg.Session.MaxAge(), time.Now())
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions idle past max_age_hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Session.Store == session.StoreMemory {
			fmt.Fprintln(cmd.OutOrStdout(), "memory store: the running server prunes its own sessions")
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		store, err := openStore(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := store.Prune(ctx, time.Now().Add(-cfg.Session.MaxAge()))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", countStyle.Render(humanize.Comma(int64(n))+" sessions"))
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsPruneCmd)
}

type sessionSummary struct {
	Token    string
	Lists    int
	Todos    int
	LastSeen time.Time
	Stale    bool
}

func summarizeSession(rec session.Record, maxAge time.Duration, now time.Time) sessionSummary {
	summary := sessionSummary{
		Token:    rec.Token,
		LastSeen: rec.UpdatedAt,
		Stale:    now.Sub(rec.UpdatedAt) > maxAge,
	}
	var data session.Data
	if err := json.Unmarshal(rec.Payload, &data); err == nil {
		summary.Lists = len(data.Lists)
		for _, list := range data.Lists {
			summary.Todos += len(list.Todos)
		}
	}
	return summary
}

func printSessions(out io.Writer, records []session.Record, maxAge time.Duration, now time.Time) {
	if len(records) == 0 {
		fmt.Fprintln(out, "no sessions stored")
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%-10s %6s %6s  %s", "SESSION", "LISTS", "TODOS", "LAST SEEN")))
	for _, rec := range records {
		s := summarizeSession(rec, maxAge, now)
		token := s.Token
		if len(token) > 8 {
			token = token[:8]
		}
		line := fmt.Sprintf("%-10s %6d %6d  %s", token, s.Lists, s.Todos, humanize.RelTime(s.LastSeen, now, "ago", "from now"))
		if s.Stale {
			line = staleStyle.Render(line + "  (expired)")
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%s sessions\n", humanize.Comma(int64(len(records))))
}
