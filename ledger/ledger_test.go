package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"group-inactivity-bot/logger"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()

	log, err := logger.New("", "info")
	require.NoError(t, err)

	return New(filepath.Join(t.TempDir(), "activity.json"), log)
}

func TestRecordResetsWarnedAndAdvancesLastSeen(t *testing.T) {
	led := newTestLedger(t)

	earlier := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	later := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	led.now = func() time.Time { return earlier }
	led.Record(100, 1, "@alice")
	led.MarkWarned(100, 1)

	entries := led.EntriesFor(100)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Record.Warned)

	led.now = func() time.Time { return later }
	led.Record(100, 1, "@alice_renamed")

	entries = led.EntriesFor(100)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Record.Warned, "new activity must reset the warning cycle")
	assert.True(t, entries[0].Record.LastSeen.Equal(later))
	assert.Equal(t, "@alice_renamed", entries[0].Record.DisplayName)
}

func TestMarkWarnedUnknownMemberIsNoop(t *testing.T) {
	led := newTestLedger(t)

	led.MarkWarned(100, 42)

	assert.Empty(t, led.EntriesFor(100))
}

func TestRemoveIsIdempotent(t *testing.T) {
	led := newTestLedger(t)

	led.Record(100, 1, "@alice")
	led.Remove(100, 1)
	led.Remove(100, 1) // second remove must be a no-op, not an error

	assert.Empty(t, led.EntriesFor(100))
}

func TestEntriesForFiltersByChat(t *testing.T) {
	led := newTestLedger(t)

	led.Record(100, 1, "@alice")
	led.Record(100, 2, "@bob")
	led.Record(200, 1, "@alice")

	assert.Len(t, led.EntriesFor(100), 2)
	assert.Len(t, led.EntriesFor(200), 1)
	assert.Empty(t, led.EntriesFor(300))
	assert.Len(t, led.All(), 3)
	assert.Equal(t, []int64{100, 200}, led.Chats())
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	log, err := logger.New("", "info")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity.json")

	seen := time.Date(2025, 5, 20, 8, 30, 15, 0, time.UTC)
	led := New(path, log)
	led.now = func() time.Time { return seen }
	led.Record(100, 1, "@alice")
	led.Record(-100200300, 2, "Bob Smith")
	led.MarkWarned(-100200300, 2)

	reloaded := New(path, log)
	require.NoError(t, reloaded.Load())

	entries := reloaded.All()
	require.Len(t, entries, 2)

	byUser := make(map[int64]Entry)
	for _, e := range entries {
		byUser[e.UserID] = e
	}

	alice := byUser[1]
	assert.Equal(t, int64(100), alice.ChatID)
	assert.Equal(t, "@alice", alice.Record.DisplayName)
	assert.True(t, alice.Record.LastSeen.Equal(seen))
	assert.False(t, alice.Record.Warned)

	bob := byUser[2]
	assert.Equal(t, int64(-100200300), bob.ChatID)
	assert.Equal(t, "Bob Smith", bob.Record.DisplayName)
	assert.True(t, bob.Record.Warned)
}

func TestPersistedLayoutUsesFlatKeys(t *testing.T) {
	led := newTestLedger(t)
	led.Record(-1001234, 42, "@carol")

	data, err := os.ReadFile(led.Path())
	require.NoError(t, err)

	var raw map[string]Record
	require.NoError(t, json.Unmarshal(data, &raw))

	rec, ok := raw["-1001234|42"]
	require.True(t, ok, "expected flat <chat_id>|<member_id> key")
	assert.Equal(t, "@carol", rec.DisplayName)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	led := newTestLedger(t)

	require.NoError(t, led.Load())
	assert.Empty(t, led.All())
}

func TestLoadSkipsMalformedKeys(t *testing.T) {
	log, err := logger.New("", "info")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity.json")
	content := `{
		"100|1": {"last_seen": "2025-05-20T08:30:15Z", "display_name": "@alice", "warned": false},
		"not-a-key": {"last_seen": "2025-05-20T08:30:15Z", "display_name": "@ghost", "warned": false}
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	led := New(path, log)
	require.NoError(t, led.Load())

	entries := led.All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].UserID)
}

func TestLoadCorruptFileFails(t *testing.T) {
	log, err := logger.New("", "info")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0600))

	led := New(path, log)
	assert.Error(t, led.Load())
}
