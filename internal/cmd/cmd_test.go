package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yourday/internal/auth"
	"yourday/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "token", "owner-7")
	require.NoError(t, err)
	assert.Contains(t, out, "userId: owner-7")

	var token string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "token:") {
			token = strings.TrimSpace(strings.TrimPrefix(line, "token:"))
		}
	}
	owner, err := auth.NewTokenService("cli-secret", time.Hour).Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-7", owner)
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "token")
	assert.Error(t, err)
}

func TestAuditCommand(t *testing.T) {
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "audit.db"))
	t.Setenv("LOG_LEVEL", "error")

	out, err := run(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "No overlapping tasks found")
}

func TestPrintTasks(t *testing.T) {
	var buf bytes.Buffer
	printTasks(&buf, nil)
	assert.Equal(t, "No tasks\n", buf.String())

	buf.Reset()
	printTasks(&buf, []model.Task{{
		ID:        "t1",
		Title:     "Standup",
		Category:  model.CategoryMeeting,
		StartTime: time.Date(2025, 1, 10, 9, 0, 0, 0, time.Local),
		EndTime:   time.Date(2025, 1, 10, 9, 30, 0, 0, time.Local),
	}})
	assert.Equal(t, "t1  2025-01-10 09:00 - 09:30  meeting   Standup\n", buf.String())
}

func TestTasksCommandNeedsToken(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	_, err := run(t, "tasks", "list")
	assert.ErrorContains(t, err, "no token")
}
