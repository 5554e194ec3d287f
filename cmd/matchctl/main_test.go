package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
jobs:
  - id: job-1
    title: Warehouse picker
    status: open
    required_skills:
      - {name: picking}
workers:
  - id: w-1
    name: Sari
    status: available
    skills:
      - {name: Picking, level: 2}
  - id: w-2
    name: Andi
    status: available
    skills:
      - {name: welding}
`

func setEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_NAME", "staff-match")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("JWT_ACCESS_SECRET", "cli-secret")
	for _, k := range []string{"DB_HOST", "DB_NAME", "REDIS_HOST", "MATCH_CRITERIA_FILE", "LOG_JSON", "LOG_DEBUG"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMatchCommand_WithFixture(t *testing.T) {
	setEnv(t)
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	out, err := run(t, "match", "job", "job-1", "--fixture", path, "--min-score", "0")
	require.NoError(t, err)

	var res struct {
		SubjectKind string `json:"subject_kind"`
		Matches     []struct {
			CandidateID string `json:"candidate_id"`
			Rank        int    `json:"rank"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "job", res.SubjectKind)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "w-1", res.Matches[0].CandidateID)
	assert.Equal(t, 1, res.Matches[0].Rank)
}

func TestMatchCommand_Errors(t *testing.T) {
	setEnv(t)

	_, err := run(t, "match", "team", "x")
	assert.Error(t, err)

	_, err = run(t, "match", "job")
	assert.Error(t, err)

	_, err = run(t, "match", "job", "missing")
	assert.Error(t, err)

	_, err = run(t, "match", "job", "job-1", "--min-score", "2")
	assert.Error(t, err)
}

func TestDatabaseCommandsRequireDatabase(t *testing.T) {
	setEnv(t)

	_, err := run(t, "migrate")
	assert.ErrorIs(t, err, errNoDatabase)

	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))
	_, err = run(t, "seed", "--file", path)
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestTokenAndInvalidate(t *testing.T) {
	setEnv(t)

	out, err := run(t, "token", "recruiter-1")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))

	out, err = run(t, "invalidate", "worker", "w-1")
	require.NoError(t, err)
	assert.Contains(t, out, "invalidated worker w-1")
}
