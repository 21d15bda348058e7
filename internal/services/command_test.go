package services_test

import (
	"context"
	"os/exec"
	"strings"
	"testing"

	"seedkeeper/internal/services"
)

func TestCommandExecutorForwardsOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var lines []string
	err := services.CommandExecutor{}.Run(context.Background(), "sh", []string{"-c", "echo out; echo err 1>&2"}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	joined := strings.Join(lines, ",")
	if !strings.Contains(joined, "out") || !strings.Contains(joined, "err") {
		t.Fatalf("expected stdout and stderr lines, got %v", lines)
	}
}

func TestCommandExecutorReportsExitStatus(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	if err := (services.CommandExecutor{}).Run(context.Background(), "sh", []string{"-c", "exit 3"}, nil); err == nil {
		t.Fatal("expected error for non-zero exit")
	}
}
