package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

const groupJSON = `[
  {"sender":"小李","content":"会员多少钱","timestamp":1709258400},
  {"sender":"客服小王","content":"月卡三十元","timestamp":1709258460}
]`

func writeTranscript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func noTerminal(t *testing.T) {
	t.Helper()
	orig := stdoutIsTerminal
	stdoutIsTerminal = func() bool { return false }
	t.Cleanup(func() { stdoutIsTerminal = orig })
}

func TestIngestCmd_Flags(t *testing.T) {
	assert.NotNil(t, ingestCmd.Flags().Lookup("conversation"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("format"))
	assert.NotNil(t, ingestCmd.Flags().Lookup("json"))
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest")

	assert.Error(t, err)
}

func TestIngestCmd_NoService(t *testing.T) {
	setupTestServices(t)
	ingestService = nil

	_, err := executeCommand(t, "ingest", "group.json")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest service not configured")
}

func TestIngestCmd_File(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	path := writeTranscript(t, "group.json", groupJSON)

	out, err := executeCommand(t, "ingest", path)

	require.NoError(t, err)
	require.Len(t, ts.ingest.conversations, 1)
	conv := ts.ingest.conversations[0]
	assert.Equal(t, "group", conv.ID)
	assert.Equal(t, path, conv.SourceFile)
	assert.Len(t, conv.Messages, 2)
	assert.Contains(t, out, "group: 2 accepted, 0 replaced, 0 duplicates, 0 rejected")
	assert.Contains(t, out, "Total: 2 accepted")
}

func TestIngestCmd_ConversationOverride(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	path := writeTranscript(t, "group.json", groupJSON)

	_, err := executeCommand(t, "ingest", path, "-c", "vip-group")

	require.NoError(t, err)
	require.Len(t, ts.ingest.conversations, 1)
	assert.Equal(t, "vip-group", ts.ingest.conversations[0].ID)
}

func TestIngestCmd_ConversationNeedsSingleInput(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest", "a.json", "b.json", "-c", "x")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestCmd_UnknownFormat(t *testing.T) {
	setupTestServices(t)

	_, err := executeCommand(t, "ingest", "-", "--format", "pdf")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngestCmd_Stdin(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	rootCmd.SetIn(strings.NewReader(groupJSON))

	_, err := executeCommand(t, "ingest", "-", "--format", "json", "-c", "piped")

	require.NoError(t, err)
	require.Len(t, ts.ingest.conversations, 1)
	assert.Equal(t, "piped", ts.ingest.conversations[0].ID)
}

func TestIngestCmd_StdinNeedsFormat(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	rootCmd.SetIn(strings.NewReader(groupJSON))

	out, err := executeCommand(t, "ingest", "-")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 inputs failed")
	assert.Contains(t, out, "needs --format")
	assert.Empty(t, ts.ingest.conversations)
}

func TestIngestCmd_PartialFailure(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	good := writeTranscript(t, "group.json", groupJSON)
	bad := writeTranscript(t, "report.pdf", "%PDF")

	out, err := executeCommand(t, "ingest", good, bad)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 inputs failed")
	assert.Len(t, ts.ingest.conversations, 1)
	assert.Contains(t, out, "supported: .json, .html, .txt")
}

func TestIngestCmd_BatchFailureReported(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	ts.ingest.failures = map[string]error{"group": domain.ErrMalformedInput}
	path := writeTranscript(t, "group.json", groupJSON)

	out, err := executeCommand(t, "ingest", path)

	require.Error(t, err)
	assert.Contains(t, out, "group: failed:")
}

func TestIngestCmd_ServiceError(t *testing.T) {
	ts := setupTestServices(t)
	noTerminal(t)
	ts.ingest.err = errors.New("disk full")
	path := writeTranscript(t, "group.json", groupJSON)

	_, err := executeCommand(t, "ingest", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest failed: disk full")
}

func TestIngestCmd_JSON(t *testing.T) {
	setupTestServices(t)
	noTerminal(t)
	path := writeTranscript(t, "group.json", groupJSON)

	out, err := executeCommand(t, "ingest", path, "--json")

	require.NoError(t, err)
	var report struct {
		Batch domain.BatchResult `json:"batch"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Batch.Results, 1)
	assert.Equal(t, "group", report.Batch.Results[0].ConversationID)
}
