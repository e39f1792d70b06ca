package state

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/five82/splashwatch/internal/software"
)

func event(name, version string, status software.Status) software.Event {
	return software.Event{
		Identity: software.Identity{Name: name, Version: version},
		Status:   status,
		Source:   "jamf",
	}
}

func TestStore_UpsertMergePolicy(t *testing.T) {
	tests := []struct {
		name        string
		sequence    []software.Status
		want        software.Status
		lastChanged bool
	}{
		{"absent to installing", []software.Status{software.StatusInstalling}, software.StatusInstalling, true},
		{"installing to success", []software.Status{software.StatusInstalling, software.StatusSuccess}, software.StatusSuccess, true},
		{"installing to failed", []software.Status{software.StatusInstalling, software.StatusFailed}, software.StatusFailed, true},
		{"success is sticky", []software.Status{software.StatusSuccess, software.StatusInstalling}, software.StatusSuccess, false},
		{"failed is sticky", []software.Status{software.StatusFailed, software.StatusInstalling}, software.StatusFailed, false},
		{"failed then success", []software.Status{software.StatusFailed, software.StatusSuccess}, software.StatusSuccess, true},
		{"success then failed", []software.Status{software.StatusSuccess, software.StatusFailed}, software.StatusFailed, true},
		{"repeat success", []software.Status{software.StatusSuccess, software.StatusSuccess}, software.StatusSuccess, false},
		{"repeat installing", []software.Status{software.StatusInstalling, software.StatusInstalling}, software.StatusInstalling, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Store
			var changed bool
			for _, st := range tt.sequence {
				_, changed = s.Upsert(event("EnterpriseConnect", "1.5.3", st))
			}
			all := s.All()
			if len(all) != 1 {
				t.Fatalf("All() = %d records, want 1", len(all))
			}
			if all[0].Status != tt.want {
				t.Fatalf("Status = %s, want %s", all[0].Status, tt.want)
			}
			if changed != tt.lastChanged {
				t.Fatalf("last Upsert changed = %v, want %v", changed, tt.lastChanged)
			}
		})
	}
}

func TestStore_UnknownStatusIgnored(t *testing.T) {
	var s Store
	if _, changed := s.Upsert(event("a", "1", software.StatusUnknown)); changed {
		t.Fatalf("Upsert(unknown) changed = true, want false")
	}
	if got := s.All(); got != nil {
		t.Fatalf("All() = %#v, want nil", got)
	}
}

func TestStore_IdentityIsExactMatch(t *testing.T) {
	var s Store
	s.Upsert(event("Office", "16.0", software.StatusInstalling))
	s.Upsert(event("Office ", "16.0", software.StatusInstalling))
	s.Upsert(event("Office", "16.0.1", software.StatusInstalling))

	if got := len(s.All()); got != 3 {
		t.Fatalf("All() = %d records, want 3", got)
	}
}

func TestStore_InsertionOrderAndSeq(t *testing.T) {
	var s Store
	s.Upsert(event("b", "1", software.StatusInstalling))
	s.Upsert(event("a", "1", software.StatusInstalling))
	s.Upsert(event("b", "1", software.StatusSuccess))

	all := s.All()
	if all[0].Identity.Name != "b" || all[1].Identity.Name != "a" {
		t.Fatalf("order = [%s %s], want [b a]", all[0].Identity.Name, all[1].Identity.Name)
	}
	if all[0].Seq != 3 || all[1].Seq != 2 {
		t.Fatalf("seq = [%d %d], want [3 2]", all[0].Seq, all[1].Seq)
	}
}

func TestStore_AllReturnsCopy(t *testing.T) {
	var s Store
	s.Upsert(event("a", "1", software.StatusInstalling))

	all := s.All()
	all[0].Status = software.StatusFailed

	rec, ok := s.Get(software.Identity{Name: "a", Version: "1"})
	if !ok || rec.Status != software.StatusInstalling {
		t.Fatalf("stored status = %s, want installing", rec.Status)
	}
}

func TestStore_SnapshotCountsAndDone(t *testing.T) {
	var s Store
	snap := s.Snapshot()
	if snap.Done() {
		t.Fatalf("empty snapshot Done() = true, want false")
	}

	before := time.Now()
	s.Upsert(event("a", "1", software.StatusInstalling))
	s.Upsert(event("b", "1", software.StatusSuccess))
	s.Upsert(event("c", "1", software.StatusFailed))

	snap = s.Snapshot()
	installing, success, failed := snap.Counts()
	if installing != 1 || success != 1 || failed != 1 {
		t.Fatalf("Counts() = %d/%d/%d, want 1/1/1", installing, success, failed)
	}
	if snap.Done() {
		t.Fatalf("Done() = true with one installing")
	}
	if snap.LastUpdated.Before(before) {
		t.Fatalf("LastUpdated = %v, want >= %v", snap.LastUpdated, before)
	}

	s.Upsert(event("a", "1", software.StatusSuccess))
	if !s.Snapshot().Done() {
		t.Fatalf("Done() = false after everything resolved")
	}
}

func TestStore_SourceHealth(t *testing.T) {
	var s Store
	s.SetSourceHealth("munki", SourceHealth{State: SourceInert, Path: "/nope"})
	s.SetSourceHealth("jamf", SourceHealth{State: SourceWatching, Path: "/var/log/jamf.log"})

	snap := s.Snapshot()
	names := snap.SourceNames()
	if len(names) != 2 || names[0] != "jamf" || names[1] != "munki" {
		t.Fatalf("SourceNames() = %v, want [jamf munki]", names)
	}
	if snap.Sources["munki"].State.String() != "unreadable" {
		t.Fatalf("munki state = %q, want unreadable", snap.Sources["munki"].State)
	}

	snap.Sources["jamf"] = SourceHealth{}
	if s.Snapshot().Sources["jamf"].State != SourceWatching {
		t.Fatalf("Snapshot should clone sources map")
	}
}

func TestStore_ChangesCoalesces(t *testing.T) {
	var s Store
	changes := s.Changes()

	s.Upsert(event("a", "1", software.StatusInstalling))
	s.Upsert(event("b", "1", software.StatusInstalling))

	select {
	case <-changes:
	default:
		t.Fatalf("expected a change signal")
	}
	select {
	case <-changes:
		t.Fatalf("expected bursts to coalesce into one signal")
	default:
	}

	s.Upsert(event("a", "1", software.StatusInstalling))
	select {
	case <-changes:
		t.Fatalf("unchanged upsert should not signal")
	default:
	}
}

func TestStore_Reset(t *testing.T) {
	var s Store
	s.Upsert(event("a", "1", software.StatusSuccess))
	s.SetSourceHealth("jamf", SourceHealth{State: SourceWatching})
	s.Reset()

	snap := s.Snapshot()
	if len(snap.Records) != 0 || len(snap.Sources) != 0 {
		t.Fatalf("Reset left %d records, %d sources", len(snap.Records), len(snap.Sources))
	}
	rec, _ := s.Upsert(event("a", "1", software.StatusInstalling))
	if rec.Seq != 1 {
		t.Fatalf("Seq after reset = %d, want 1", rec.Seq)
	}
}

func TestStore_ConcurrentWritersKeepEveryRecord(t *testing.T) {
	var s Store
	var wg sync.WaitGroup
	for _, source := range []string{"jamf", "munki"} {
		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				s.Upsert(software.Event{
					Identity: software.Identity{Name: fmt.Sprintf("%s-pkg%d", source, i), Version: "1.0"},
					Status:   software.StatusSuccess,
					Source:   source,
				})
			}
		}(source)
	}
	wg.Wait()

	if got := len(s.All()); got != 400 {
		t.Fatalf("All() = %d records, want 400", got)
	}
}
