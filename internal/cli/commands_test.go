package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// withDB prefixes args with a per-test SQLite database.
func withDB(t *testing.T) func(args ...string) []string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "remit.db")
	return func(args ...string) []string {
		return append([]string{"--db", db}, args...)
	}
}

func decodeResponse(t *testing.T, out string) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp
}

func TestLedgerCommands_SQLiteLifecycle(t *testing.T) {
	db := withDB(t)

	out, stderr, err := execute(t, db("--as", "alice", "send", "alice", "bob", "100", "USD")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
	assert.Contains(t, stderr, "remittance created")

	out, _, err = execute(t, db("--as", "alice", "send", "alice", "carol", "25", "EUR")...)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, _, err = execute(t, db("--as", "proc", "complete", "1", "proc")...)
	require.NoError(t, err)
	assert.Equal(t, "remittance 1 completed\n", out)

	out, _, err = execute(t, db("get", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "id:        1\n")
	assert.Contains(t, out, "sender:    alice\n")
	assert.Contains(t, out, "amount:    100\n")
	assert.Contains(t, out, "status:    COMPLETE\n")

	out, _, err = execute(t, db("get", "2")...)
	require.NoError(t, err)
	assert.Contains(t, out, "status:    PENDING\n")

	out, _, err = execute(t, db("total")...)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestSend_JSON(t *testing.T) {
	db := withDB(t)

	out, _, err := execute(t, db("--format", "json", "--as", "A", "send", "A", "B", "100", "USD")...)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"id": float64(1)}, resp.Data)
}

func TestSend_Unauthorized(t *testing.T) {
	db := withDB(t)

	out, stderr, err := execute(t, db("--as", "mallory", "send", "alice", "bob", "100", "USD")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [UNAUTHORIZED]")
	assert.Contains(t, stderr, "sender not authorized")

	out, _, err = execute(t, db("total")...)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestSend_InvalidAmount(t *testing.T) {
	db := withDB(t)

	for _, amount := range []string{"0", "1.5", "abc"} {
		t.Run(amount, func(t *testing.T) {
			out, _, err := execute(t, db("--format", "json", "--as", "A", "send", "A", "B", amount, "USD")...)
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))

			resp := decodeResponse(t, out)
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "INVALID_AMOUNT", resp.Error.Code)
		})
	}

	out, _, err := execute(t, db("total")...)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestSend_StrictCurrencyFromEnv(t *testing.T) {
	t.Setenv("REMIT_STRICT_CURRENCY", "true")
	db := withDB(t)

	out, _, err := execute(t, db("--as", "A", "send", "A", "B", "10", "XYZ1")...)
	require.Error(t, err)
	assert.Contains(t, out, "Error [INVALID_ARGUMENT]")

	out, _, err = execute(t, db("--as", "A", "send", "A", "B", "10", "KES")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestComplete_Twice(t *testing.T) {
	db := withDB(t)

	_, _, err := execute(t, db("--as", "A", "send", "A", "B", "100", "USD")...)
	require.NoError(t, err)
	_, _, err = execute(t, db("--as", "P", "complete", "1", "P")...)
	require.NoError(t, err)

	out, _, err := execute(t, db("--format", "json", "--as", "P", "complete", "1", "P")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "ALREADY_PROCESSED", resp.Error.Code)
	assert.Equal(t, map[string]any{"tx_id": float64(1)}, resp.Error.Details)
}

func TestComplete_UnknownID(t *testing.T) {
	db := withDB(t)

	out, _, err := execute(t, db("--as", "P", "complete", "9", "P")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [NOT_FOUND]: transaction not found\n", out)
}

func TestComplete_BadID(t *testing.T) {
	db := withDB(t)

	out, _, err := execute(t, db("--as", "P", "complete", "abc", "P")...)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
	assert.Contains(t, out, `invalid id "abc"`)
}

func TestGet_NotFound(t *testing.T) {
	db := withDB(t)

	out, _, err := execute(t, db("--format", "json", "get", "42")...)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, data["found"])
	record, ok := data["record"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "NOTFOUND", record["status"])
	assert.Equal(t, "NOTFOUND", record["currency"])
	assert.Equal(t, float64(0), record["tx_id"])
	assert.Equal(t, "0", record["amount"])
}

func TestNamespaces_AreIsolated(t *testing.T) {
	db := withDB(t)

	_, _, err := execute(t, db("--namespace", "east", "--as", "A", "send", "A", "B", "1", "USD")...)
	require.NoError(t, err)

	out, _, err := execute(t, db("--namespace", "west", "total")...)
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	out, _, err = execute(t, db("--namespace", "east", "total")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
}

func TestVerbose_LogsOpenedNamespace(t *testing.T) {
	db := withDB(t)

	_, stderr, err := execute(t, db("-v", "--namespace", "east", "total")...)
	require.NoError(t, err)
	assert.Contains(t, stderr, `msg="database ready"`)
	assert.Contains(t, stderr, "namespace=east")
}

func TestMemoryBackend(t *testing.T) {
	out, _, err := execute(t, "--backend", "memory", "--as", "A", "send", "A", "B", "1", "USD")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	// Each invocation gets a fresh in-memory ledger.
	out, _, err = execute(t, "--backend", "memory", "total")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	redisArgs := []string{"--backend", "redis", "--redis-addr", mr.Addr()}

	out, _, err := execute(t, append(redisArgs, "--as", "A", "send", "A", "B", "100", "USD")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, _, err = execute(t, append(redisArgs, "total")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	assert.True(t, mr.Exists("remit:remittance"))
}

func TestRedisBackend_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	out, _, err := execute(t, "--backend", "redis", "--redis-addr", addr, "total")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "remit.cue")
	db := filepath.Join(dir, "ledger.db")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
backend: "sqlite"
sqlite: path: "`+db+`"
namespace: "payouts"
`), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "--as", "A", "send", "A", "B", "7", "GBP")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)
	assert.FileExists(t, db)

	// Flags override the file.
	out, _, err = execute(t, "--config", cfgPath, "--namespace", "other", "total")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "remit.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`backend: "postgres"`), 0o644))

	out, _, err := execute(t, "--config", cfgPath, "total")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestBackendFlag_Invalid(t *testing.T) {
	_, _, err := execute(t, "--backend", "postgres", "total")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTokenAuth(t *testing.T) {
	t.Setenv("REMIT_AUTH_MODE", "token")
	t.Setenv("REMIT_AUTH_SECRET", "s3cret")
	db := withDB(t)

	out, _, err := execute(t, "token", "alice")
	require.NoError(t, err)
	tok := strings.TrimSpace(out)
	require.NotEmpty(t, tok)

	out, _, err = execute(t, db("--token", tok, "send", "alice", "bob", "5", "EUR")...)
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	// The token only authorizes its subject.
	out, _, err = execute(t, db("--token", tok, "send", "bob", "alice", "5", "EUR")...)
	require.Error(t, err)
	assert.Contains(t, out, "Error [UNAUTHORIZED]")

	// --as is ignored in token mode.
	out, _, err = execute(t, db("--as", "alice", "send", "alice", "bob", "5", "EUR")...)
	require.Error(t, err)
	assert.Contains(t, out, "Error [UNAUTHORIZED]")
}

func TestTokenCommand_JSON(t *testing.T) {
	t.Setenv("REMIT_AUTH_MODE", "token")
	t.Setenv("REMIT_AUTH_SECRET", "s3cret")

	out, _, err := execute(t, "--format", "json", "token", "alice", "--ttl", "5m")
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", data["identity"])
	assert.NotEmpty(t, data["token"])
	assert.NotZero(t, data["expires_at"])
}

func TestTokenCommand_RequiresTokenMode(t *testing.T) {
	out, _, err := execute(t, "token", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
}

func TestTokenMode_RequiresSecret(t *testing.T) {
	t.Setenv("REMIT_AUTH_MODE", "token")

	out, _, err := execute(t, "token", "alice")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "auth.secret")
}

func TestParseID(t *testing.T) {
	id, err := parseID("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), id)

	for _, bad := range []string{"", "-1", "1.0", "18446744073709551616"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
