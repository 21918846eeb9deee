package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"group-inactivity-bot/logger"
)

// Record is the stored activity state for one member in one chat.
type Record struct {
	LastSeen    time.Time `json:"last_seen"`
	DisplayName string    `json:"display_name"`
	Warned      bool      `json:"warned"`
}

// Entry is a snapshot item returned by EntriesFor and All.
type Entry struct {
	ChatID int64
	UserID int64
	Record Record
}

type memberKey struct {
	chatID int64
	userID int64
}

// Ledger tracks last activity per (chat, member) and persists the full map
// to a flat JSON file after every mutation. All access goes through the
// mutex; Telegram calls never happen while it is held.
type Ledger struct {
	mu      sync.Mutex
	path    string
	entries map[memberKey]Record
	logger  *logger.Logger
	now     func() time.Time
}

func New(path string, log *logger.Logger) *Ledger {
	return &Ledger{
		path:    path,
		entries: make(map[memberKey]Record),
		logger:  log,
		now:     time.Now,
	}
}

// Path returns the canonical ledger file location.
func (l *Ledger) Path() string {
	return l.path
}

// Load reads the ledger file once at startup. A missing file means an empty
// ledger; a corrupt file is a startup error.
func (l *Ledger) Load() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger file: %w", err)
	}

	var raw map[string]Record
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse ledger file: %w", err)
	}

	for k, rec := range raw {
		key, err := parseKey(k)
		if err != nil {
			l.logger.Errorf("Skipping malformed ledger key %q: %v", k, err)
			continue
		}
		l.entries[key] = rec
	}

	return nil
}

// Record inserts or overwrites the entry for (chat, member): last seen moves
// to now, the display name refreshes, and any pending warning is cleared so a
// returning member gets a fresh warning cycle. Persistence errors are logged
// and never surfaced to the caller.
func (l *Ledger) Record(chatID, userID int64, displayName string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[memberKey{chatID, userID}] = Record{
		LastSeen:    l.now().UTC(),
		DisplayName: displayName,
		Warned:      false,
	}
	l.persistLocked()
}

// MarkWarned flags the current inactivity episode as warned without touching
// last seen. No-op for unknown members.
func (l *Ledger) MarkWarned(chatID, userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := memberKey{chatID, userID}
	rec, ok := l.entries[key]
	if !ok {
		return
	}
	rec.Warned = true
	l.entries[key] = rec
	l.persistLocked()
}

// Remove deletes the entry for (chat, member). No-op if absent.
func (l *Ledger) Remove(chatID, userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := memberKey{chatID, userID}
	if _, ok := l.entries[key]; !ok {
		return
	}
	delete(l.entries, key)
	l.persistLocked()
}

// EntriesFor returns a point-in-time snapshot of one chat's entries.
func (l *Ledger) EntriesFor(chatID int64) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var entries []Entry
	for key, rec := range l.entries {
		if key.chatID != chatID {
			continue
		}
		entries = append(entries, Entry{ChatID: key.chatID, UserID: key.userID, Record: rec})
	}
	return entries
}

// All returns a snapshot of every entry across all chats.
func (l *Ledger) All() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries := make([]Entry, 0, len(l.entries))
	for key, rec := range l.entries {
		entries = append(entries, Entry{ChatID: key.chatID, UserID: key.userID, Record: rec})
	}
	return entries
}

// Chats returns the distinct chat IDs currently present in the ledger.
func (l *Ledger) Chats() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[int64]bool)
	var chats []int64
	for key := range l.entries {
		if !seen[key.chatID] {
			seen[key.chatID] = true
			chats = append(chats, key.chatID)
		}
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats
}

// persistLocked writes the full ledger to a temp file and atomically swaps it
// into place. Callers must hold the mutex. Failures are logged; the in-memory
// map stays authoritative for the rest of the process lifetime.
func (l *Ledger) persistLocked() {
	raw := make(map[string]Record, len(l.entries))
	for key, rec := range l.entries {
		raw[formatKey(key)] = rec
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		l.logger.Errorf("Failed to marshal ledger: %v", err)
		return
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		l.logger.Errorf("Failed to create ledger directory: %v", err)
		return
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		l.logger.Errorf("Failed to create temp ledger file: %v", err)
		return
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		l.logger.Errorf("Failed to write temp ledger file: %v", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		l.logger.Errorf("Failed to close temp ledger file: %v", err)
		return
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		l.logger.Errorf("Failed to replace ledger file: %v", err)
	}
}

func formatKey(key memberKey) string {
	return fmt.Sprintf("%d|%d", key.chatID, key.userID)
}

func parseKey(s string) (memberKey, error) {
	parts := strings.SplitN(s, "|", 2)
	if len(parts) != 2 {
		return memberKey{}, fmt.Errorf("expected <chat_id>|<member_id>")
	}

	chatID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return memberKey{}, fmt.Errorf("invalid chat id: %w", err)
	}
	userID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return memberKey{}, fmt.Errorf("invalid member id: %w", err)
	}

	return memberKey{chatID: chatID, userID: userID}, nil
}
