package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "sparring" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "sparring")
	}

	expectedCmds := []string{"run", "sessions", "version"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestRunRequiresTopic(t *testing.T) {
	t.Setenv("SPARRING_STORAGE_DIR", t.TempDir())

	output, err := executeCommand(rootCmd, "run")
	if err == nil {
		t.Fatalf("run without --topic succeeded\nOutput: %s", output)
	}
	if !strings.Contains(err.Error(), "topic") {
		t.Errorf("error = %v, want a missing-topic complaint", err)
	}
}

func TestSessionsListEmpty(t *testing.T) {
	t.Setenv("SPARRING_STORAGE_DIR", t.TempDir())

	output, err := executeCommand(rootCmd, "sessions", "list")
	if err != nil {
		t.Fatalf("sessions list failed: %v\nOutput: %s", err, output)
	}
}

func TestSessionsShowMissing(t *testing.T) {
	t.Setenv("SPARRING_STORAGE_DIR", t.TempDir())

	_, err := executeCommand(rootCmd, "sessions", "show", "no-such-session")
	if err == nil {
		t.Error("sessions show for a missing record succeeded")
	}
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(rootCmd, "version")
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, output)
	}
}
