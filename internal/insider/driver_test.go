package insider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/five82/splashwatch/internal/logtail"
	"github.com/five82/splashwatch/internal/software"
	"github.com/five82/splashwatch/internal/state"
)

const jamfPrefix = "Wed Mar 16 13:31:20 François's Mac mini jamf[2874]: "

type directSubmitter struct{ store *state.Store }

func (d directSubmitter) Submit(_ context.Context, ev software.Event) error {
	d.store.Upsert(ev)
	return nil
}

type fakeProvider struct {
	name  string
	path  string
	rules []software.RuleSpec
}

func (f fakeProvider) Name() string                { return f.name }
func (f fakeProvider) LogPath() string             { return f.path }
func (f fakeProvider) Rules() []software.RuleSpec { return f.rules }

func writeLog(t *testing.T, path, data string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(data); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestProviders_DefaultsAndOverrides(t *testing.T) {
	tests := []struct {
		name string
		p    Provider
		want string
	}{
		{"jamf default", Jamf(""), DefaultJamfLogPath},
		{"jamf override", Jamf("/tmp/jamf.log"), "/tmp/jamf.log"},
		{"munki default", Munki("  "), DefaultMunkiLogPath},
		{"munki override", Munki("/tmp/msu.log"), "/tmp/msu.log"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.LogPath(); got != tt.want {
				t.Fatalf("LogPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviders_RulesClassifyGrammar(t *testing.T) {
	for _, p := range []Provider{Jamf(""), Munki("")} {
		t.Run(p.Name(), func(t *testing.T) {
			rules, errs := software.CompileRules(p.Name(), p.Rules())
			if len(errs) != 0 {
				t.Fatalf("CompileRules errors = %v", errs)
			}
			want := software.Identity{Name: "EnterpriseConnect", Version: "1.5.3"}
			cases := map[string]software.Status{
				jamfPrefix + "Installing EnterpriseConnect-1.5.3.pkg...":                                                     software.StatusInstalling,
				jamfPrefix + "Successfully installed EnterpriseConnect-1.5.3.pkg.":                                           software.StatusSuccess,
				jamfPrefix + "Installation failed. The installer reported: installer: Package name is EnterpriseConnect-1.5.3": software.StatusFailed,
			}
			for line, status := range cases {
				ev, err := software.Classify(line, rules)
				if err != nil {
					t.Fatalf("Classify(%q) error = %v", line, err)
				}
				if ev.Identity != want || ev.Status != status {
					t.Fatalf("Classify(%q) = %#v %s, want %#v %s", line, ev.Identity, ev.Status, want, status)
				}
				if ev.Source != p.Name() {
					t.Fatalf("Source = %q, want %q", ev.Source, p.Name())
				}
			}
			if _, err := software.Classify(jamfPrefix+"Executing Policy Enrollment", rules); !errors.Is(err, software.ErrNoMatch) {
				t.Fatalf("unrelated line error = %v, want ErrNoMatch", err)
			}
		})
	}
}

func TestNew_UnreadableLogIsInert(t *testing.T) {
	var store state.Store
	path := filepath.Join(t.TempDir(), "missing.log")

	d := New(Jamf(path), directSubmitter{&store}, &store)
	if !errors.Is(d.Err(), logtail.ErrUnreadable) {
		t.Fatalf("Err() = %v, want ErrUnreadable", d.Err())
	}
	h := store.Snapshot().Sources["jamf"]
	if h.State != state.SourceInert || h.Path != path {
		t.Fatalf("health = %#v, want inert at %q", h, path)
	}
	if err := d.Run(context.Background()); !errors.Is(err, logtail.ErrUnreadable) {
		t.Fatalf("Run() error = %v, want ErrUnreadable", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
}

func TestNew_AllRulesBrokenDisablesDetection(t *testing.T) {
	var store state.Store
	path := filepath.Join(t.TempDir(), "jamf.log")
	writeLog(t, path, "")

	d := New(fakeProvider{
		name:  "jamf",
		path:  path,
		rules: []software.RuleSpec{{Status: software.StatusInstalling, Pattern: `(?<=Installing )(.*)-(.*)`}},
	}, directSubmitter{&store}, &store)

	if !errors.Is(d.Err(), ErrNoRules) {
		t.Fatalf("Err() = %v, want ErrNoRules", d.Err())
	}
	if got := store.Snapshot().Sources["jamf"].State; got != state.SourceRulesDisabled {
		t.Fatalf("health = %s, want rules disabled", got)
	}
}

func TestHandleLine_AnomalyAndNoMatchSubmitNothing(t *testing.T) {
	var store state.Store
	path := filepath.Join(t.TempDir(), "jamf.log")
	writeLog(t, path, "")

	d := New(fakeProvider{
		name:  "jamf",
		path:  path,
		rules: []software.RuleSpec{{Status: software.StatusInstalling, Pattern: `Installing ([a-zA-Z]+)\.pkg`}},
	}, directSubmitter{&store}, &store)
	t.Cleanup(func() { _ = d.Close() })

	d.HandleLine(context.Background(), "Installing Foo.pkg...")
	d.HandleLine(context.Background(), "nothing to see")
	if got := store.All(); len(got) != 0 {
		t.Fatalf("All() = %#v, want empty", got)
	}
}

// ctxRecorder records whether each submit saw a cancelled context.
type ctxRecorder struct {
	events    []software.Event
	cancelled []bool
}

func (r *ctxRecorder) Submit(ctx context.Context, ev software.Event) error {
	r.events = append(r.events, ev)
	r.cancelled = append(r.cancelled, ctx.Err() != nil)
	return ctx.Err()
}

func TestHandleLine_SubmitsAfterCancellation(t *testing.T) {
	var store state.Store
	path := filepath.Join(t.TempDir(), "jamf.log")
	writeLog(t, path, "")

	rec := &ctxRecorder{}
	d := New(Jamf(path), rec, &store)
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.HandleLine(ctx, jamfPrefix+"Successfully installed EnterpriseConnect-1.5.3.pkg.")

	if len(rec.events) != 1 {
		t.Fatalf("submitted %d events, want 1", len(rec.events))
	}
	if rec.cancelled[0] {
		t.Fatalf("Submit saw a cancelled context")
	}
	if got := rec.events[0].Status; got != software.StatusSuccess {
		t.Fatalf("Status = %s, want %s", got, software.StatusSuccess)
	}
}

func TestScan_ClassifiesExistingContent(t *testing.T) {
	var store state.Store
	path := filepath.Join(t.TempDir(), "jamf.log")
	writeLog(t, path, jamfPrefix+"Installing EnterpriseConnect-1.5.3.pkg...\n"+
		jamfPrefix+"Successfully installed EnterpriseConnect-1.5.3.pkg.\n"+
		jamfPrefix+"Successfully installed EnterpriseConnect-1.5.3.pkg.\n"+
		jamfPrefix+"Installing EnterpriseConnect-1.5.3.pkg...\n")

	d := New(Jamf(path), directSubmitter{&store}, &store)
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("All() = %d records, want 1", len(all))
	}
	if all[0].Status != software.StatusSuccess {
		t.Fatalf("Status = %s, want success", all[0].Status)
	}
}

func TestRunAll_TwoToolsConcurrently(t *testing.T) {
	var store state.Store
	dispatcher, err := state.NewDispatcher(&store)
	if err != nil {
		t.Fatalf("NewDispatcher: %v", err)
	}

	dir := t.TempDir()
	jamfPath := filepath.Join(dir, "jamf.log")
	munkiPath := filepath.Join(dir, "ManagedSoftwareUpdate.log")
	writeLog(t, jamfPath, "")
	writeLog(t, munkiPath, "")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)

	jamfDriver := New(Jamf(jamfPath), dispatcher, &store, WithPollInterval(20*time.Millisecond))
	munkiDriver := New(Munki(munkiPath), dispatcher, &store, WithPollInterval(20*time.Millisecond))
	missing := New(Munki(filepath.Join(dir, "nope.log")), dispatcher, nil)

	done := make(chan struct{})
	go func() {
		RunAll(ctx, nil, jamfDriver, munkiDriver, missing)
		close(done)
	}()

	writeLog(t, jamfPath, jamfPrefix+"Installing EnterpriseConnect-1.5.3.pkg...\n")
	writeLog(t, munkiPath, "Installing Firefox-118.0.pkg...\n")
	writeLog(t, jamfPath, jamfPrefix+"Successfully installed EnterpriseConnect-1.5.3.pkg.\n")
	writeLog(t, munkiPath, "Installation failed. The installer reported: installer: Package name is Firefox-118.0\n")

	deadline := time.After(5 * time.Second)
	for {
		snap := store.Snapshot()
		_, success, failed := snap.Counts()
		if len(snap.Records) == 2 && success == 1 && failed == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("timed out; records = %#v", snap.Records)
		case <-time.After(20 * time.Millisecond):
		}
	}

	rec, ok := store.Get(software.Identity{Name: "Firefox", Version: "118.0"})
	if !ok || rec.Source != "munki" || rec.Status != software.StatusFailed {
		t.Fatalf("Firefox record = %#v, want munki failed", rec)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("RunAll did not return after cancel")
	}
}
