package auditstore

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
)

func sampleEvents() []audit.SecurityEvent {
	return []audit.SecurityEvent{
		audit.NewEvent("delete_file", "alice", "/data/a.txt").Denied("delete_disabled"),
		audit.NewEvent("move_file", "bob", "/data/b.txt").
			WithResolved("/srv/data/b.txt").
			WithDestination("/srv/data/c.txt").
			Succeeded(),
		audit.NewEvent("create_file", "alice", "/data/d.txt").
			WithResolved("/srv/data/d.txt").
			Failed(audit.OutcomeConflict, "destination_exists"),
	}
}

func TestFileSinkFieldOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "security.log")
	sink, err := OpenFile(path)
	require.NoError(t, err)

	ctx := context.Background()
	for _, e := range sampleEvents() {
		require.NoError(t, sink.Record(ctx, e))
	}
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)

	assert.Regexp(t, `^\{"id":"evt_[0-9A-Z]{26}","ts":"[^"]+","operation":"delete_file","outcome":"denied","reason":"delete_disabled","actor":"alice","requested":"/data/a.txt"\}$`, lines[0])
	assert.Regexp(t, `"outcome":"success","actor":"bob","requested":"/data/b.txt","resolved":"/srv/data/b.txt","destination":"/srv/data/c.txt"\}$`, lines[1])

	var decoded audit.SecurityEvent
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &decoded))
	assert.Equal(t, audit.OutcomeConflict, decoded.Outcome)
	assert.Equal(t, "destination_exists", decoded.Reason)
	assert.False(t, decoded.Timestamp.IsZero())
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "security.log")
	for i := 0; i < 2; i++ {
		sink, err := OpenFile(path)
		require.NoError(t, err)
		require.NoError(t, sink.Record(context.Background(), sampleEvents()[0]))
		require.NoError(t, sink.Close())
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	for sc := bufio.NewScanner(f); sc.Scan(); {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestFileSinkRequiresPath(t *testing.T) {
	_, err := OpenFile("")
	assert.ErrorIs(t, err, ErrPathRequired)
}

func TestNewFileSinkBuffer(t *testing.T) {
	var buf bytes.Buffer
	sink := NewFileSink(zapcore.AddSync(&buf), nil)
	require.NoError(t, sink.Record(context.Background(), sampleEvents()[1]))
	assert.True(t, strings.HasPrefix(buf.String(), `{"id":"evt_`))
	require.NoError(t, sink.Close())
}

func TestSQLStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "audit.db")
	store, err := OpenSQL(ctx, path)
	require.NoError(t, err)

	events := sampleEvents()
	for _, e := range events {
		require.NoError(t, store.Record(ctx, e))
	}

	all, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, events[2].ID, all[0].ID, "newest first")
	assert.Equal(t, events[1].Destination, all[1].Destination)
	assert.True(t, events[0].Timestamp.Equal(all[2].Timestamp))

	byActor, err := store.Query(ctx, Filter{Actor: "alice"})
	require.NoError(t, err)
	assert.Len(t, byActor, 2)

	denied, err := store.Query(ctx, Filter{Outcome: audit.OutcomeDenied, Operation: "delete_file"})
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.Equal(t, "delete_disabled", denied[0].Reason)

	limited, err := store.Query(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	future, err := store.Query(ctx, Filter{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)

	require.NoError(t, store.Close())

	// Reopening does not re-apply migrations or lose rows.
	store, err = OpenSQL(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	var applied int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, len(migrations), applied)

	again, err := store.Query(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, again, 3)
}

func TestSQLStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQL(ctx, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	e := sampleEvents()[0]
	require.NoError(t, store.Record(ctx, e))
	assert.ErrorIs(t, store.Record(ctx, e), ErrInsertEvent)
}

func TestMemoryQuerier(t *testing.T) {
	mem := audit.NewMemory(10)
	ctx := context.Background()
	for _, e := range sampleEvents() {
		require.NoError(t, mem.Record(ctx, e))
	}

	q := MemoryQuerier{Memory: mem}
	got, err := q.Query(ctx, Filter{Actor: "alice"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "create_file", got[0].Operation)

	got, err = q.Query(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLoggedReportsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	logger := &logging.Logger{Logger: zap.New(core)}
	boom := errors.New("disk full")

	rec := Logged(audit.RecorderFunc(func(context.Context, audit.SecurityEvent) error { return boom }), logger)
	err := rec.Record(context.Background(), sampleEvents()[0])

	assert.ErrorIs(t, err, boom)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Audit sink failed", logs.All()[0].Message)

	ok := Logged(audit.Nop, logger)
	assert.NoError(t, ok.Record(context.Background(), sampleEvents()[0]))
	assert.Equal(t, 1, logs.Len())
}

func TestGuardedDropsWhileOpen(t *testing.T) {
	boom := errors.New("database is locked")
	var calls int
	failing := audit.RecorderFunc(func(context.Context, audit.SecurityEvent) error {
		calls++
		return boom
	})
	g := NewGuarded(failing, resilience.New("audit-db", resilience.Settings{FailureThreshold: 2, Cooldown: time.Hour}))
	ctx := context.Background()
	event := sampleEvents()[0]

	assert.ErrorIs(t, g.Record(ctx, event), boom)
	assert.ErrorIs(t, g.Record(ctx, event), boom)

	assert.NoError(t, g.Record(ctx, event))
	assert.NoError(t, g.Record(ctx, event))
	assert.Equal(t, 2, calls)
	assert.EqualValues(t, 2, g.Dropped())
}
