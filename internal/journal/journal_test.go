package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/five82/splashwatch/internal/software"
)

func record(name string, seq uint64, status software.Status) software.Record {
	return software.Record{
		Identity:  software.Identity{Name: name, Version: "1.0"},
		Status:    status,
		Source:    "jamf",
		Seq:       seq,
		UpdatedAt: time.Unix(1700000000, int64(seq)),
	}
}

func TestNewSession_IsUUID(t *testing.T) {
	if _, err := uuid.Parse(NewSession()); err != nil {
		t.Fatalf("NewSession() is not a UUID: %v", err)
	}
}

func TestSQLite_SendAndRecent(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i, st := range []software.Status{software.StatusInstalling, software.StatusSuccess} {
		if err := db.Send(ctx, NewEntry("s1", record("Foo", uint64(i+1), st))); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	entries, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() = %d entries, want 2", len(entries))
	}
	if entries[0].Status != "success" || entries[0].Seq != 2 {
		t.Fatalf("newest entry = %#v, want success seq 2", entries[0])
	}
	if !entries[1].OccurredAt.Equal(time.Unix(1700000000, 1)) {
		t.Fatalf("OccurredAt = %v", entries[1].OccurredAt)
	}

	limited, err := db.Recent(ctx, 1)
	if err != nil || len(limited) != 1 {
		t.Fatalf("Recent(1) = %d, %v; want 1 entry", len(limited), err)
	}
}

func TestSQLite_FileCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("journal file missing: %v", err)
	}
}

func TestJSONLines_AppendsOneObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink, err := OpenJSONLines(path)
	if err != nil {
		t.Fatalf("OpenJSONLines: %v", err)
	}

	observe := Observer(sink, "s1", nil)
	observe(context.Background(), record("Foo", 1, software.StatusInstalling))
	observe(context.Background(), record("Foo", 2, software.StatusFailed))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var got []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %q is not JSON: %v", scanner.Text(), err)
		}
		got = append(got, e)
	}
	if len(got) != 2 || got[1].Status != "failed" || got[1].Session != "s1" || got[1].Name != "Foo" {
		t.Fatalf("entries = %#v", got)
	}
}

type failingSink struct{ closed bool }

func (f *failingSink) Send(context.Context, Entry) error { return errors.New("disk full") }
func (f *failingSink) Close() error                      { f.closed = true; return nil }

func TestMulti_JoinsErrorsAndClosesAll(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	bad := &failingSink{}
	m := Multi{db, bad}

	err = m.Send(context.Background(), NewEntry("s", record("Foo", 1, software.StatusSuccess)))
	if err == nil || err.Error() != "disk full" {
		t.Fatalf("Send() error = %v, want disk full", err)
	}
	entries, _ := db.Recent(context.Background(), 5)
	if len(entries) != 1 {
		t.Fatalf("healthy sink got %d entries, want 1", len(entries))
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !bad.closed {
		t.Fatalf("Multi.Close did not close every sink")
	}
}
