package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lhartley/sparring/internal/logging"
	"github.com/lhartley/sparring/internal/session"
	"github.com/lhartley/sparring/internal/util"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage recorded debate sessions",
	Long:  `Commands for listing and inspecting recorded debate sessions.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one recorded session",
	Long: `Show the metadata and summary of a recorded session. The name is
the record's file name, with or without the .json extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runSessionsShow,
}

var showTranscript bool

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)

	sessionsShowCmd.Flags().BoolVar(&showTranscript, "transcript", false, "print the full transcript")
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	sessions, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	fmt.Println(strings.Repeat("─", 70))
	fmt.Println("Recorded sessions")
	fmt.Println(strings.Repeat("─", 70))

	if len(sessions) == 0 {
		fmt.Println("\nNo sessions found.")
		fmt.Println("Run 'sparring run --topic <topic>' to start one.")
		return nil
	}

	fmt.Printf("\nFound %d session(s):\n\n", len(sessions))
	for _, s := range sessions {
		fmt.Printf("  %s\n", s.Name)
		fmt.Printf("    Topic:   %s\n", util.Preview(s.Topic, 60))
		fmt.Printf("    Turns:   %d\n", s.TurnCount)
		fmt.Printf("    Started: %s\n", s.StartTime)
		fmt.Println()
	}

	fmt.Println("To inspect a session: sparring sessions show <name>")
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	rec, err := store.Load(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	fmt.Println(strings.Repeat("─", 70))
	fmt.Printf("Topic:    %s\n", rec.Topic)
	fmt.Printf("Agents:   %s vs %s\n", rec.AgentA, rec.AgentB)
	fmt.Printf("Turns:    %d\n", rec.TurnCount)
	fmt.Printf("Duration: %s\n", rec.Duration().Round(time.Second))
	fmt.Printf("Trims:    %d\n", rec.TrimCount)
	fmt.Println(strings.Repeat("─", 70))

	if rec.Summary != "" {
		fmt.Println()
		fmt.Println(rec.Summary)
	}

	if showTranscript {
		fmt.Println()
		fmt.Println(strings.Repeat("─", 70))
		for _, msg := range rec.Messages {
			fmt.Printf("%s: %s\n\n", msg.Role, msg.Content)
		}
	}
	return nil
}

// openStore opens the session store at the configured history
// directory.
func openStore() (*session.FileStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(cfg.HistoryDir(), logging.NewNop())
}
