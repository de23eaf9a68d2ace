package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/small-frappuccino/discordmenu/pkg/menu"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store := NewStore(dbPath)
	if err := store.Init(); err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSchemaInitialized(t *testing.T) {
	store := newTempStore(t)
	rows, err := store.db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		t.Fatalf("query schema: %v", err)
	}
	defer rows.Close()

	required := map[string]bool{"menu_transitions_daily": false, "runtime_meta": false}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if _, ok := required[name]; ok {
			required[name] = true
		}
	}
	for name, found := range required {
		if !found {
			t.Fatalf("expected table %s to exist", name)
		}
	}
	if err := store.Init(); err != nil {
		t.Fatalf("second Init should be a no-op: %v", err)
	}
}

func TestDailyMenuTransitions(t *testing.T) {
	store := newTempStore(t)
	day := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := store.IncrementDailyMenuTransition(day, "TabbedMenu", "2⃣", "transitioning"); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}
	if err := store.IncrementDailyMenuTransition(day, "", "🚫", "unsupported"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := store.IncrementDailyMenuTransition(day.Add(2*time.Hour), "TabbedMenu", "2⃣", "transitioning"); err != nil {
		t.Fatalf("increment next day: %v", err)
	}

	got, err := store.GetDailyMenuTransitions(day)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %+v", got)
	}
	if got[0].MenuType != "TabbedMenu" || got[0].Count != 3 || got[0].Day != "2024-05-01" {
		t.Fatalf("unexpected first row %+v", got[0])
	}
	if got[1].MenuType != "unknown" || got[1].Outcome != "unsupported" || got[1].Count != 1 {
		t.Fatalf("unexpected second row %+v", got[1])
	}
}

func TestRecordTransitionAndPrune(t *testing.T) {
	store := newTempStore(t)
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.RecordTransition("SimpleTextMenu", "🏠", menu.Transitioning)
	store.RecordTransition("SimpleTextMenu", "🏠", menu.Transitioning)
	if err := store.IncrementDailyMenuTransition(now.AddDate(0, 0, -40), "SimpleTextMenu", "❌", "closed"); err != nil {
		t.Fatalf("increment old: %v", err)
	}

	got, err := store.GetDailyMenuTransitions(now)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].Count != 2 || got[0].Outcome != menu.Transitioning.String() {
		t.Fatalf("unexpected rows %+v", got)
	}

	removed, err := store.PruneDailyMenuTransitions(30)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
}

func TestHeartbeat(t *testing.T) {
	store := newTempStore(t)
	if _, ok, err := store.GetHeartbeat(); err != nil || ok {
		t.Fatalf("expected no heartbeat, got ok=%v err=%v", ok, err)
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.SetHeartbeat(ts); err != nil {
		t.Fatalf("set heartbeat: %v", err)
	}
	got, ok, err := store.GetHeartbeat()
	if err != nil || !ok || !got.Equal(ts) {
		t.Fatalf("unexpected heartbeat %v ok=%v err=%v", got, ok, err)
	}
}

func TestUninitializedStore(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "x.db"))
	if err := store.IncrementDailyMenuTransition(time.Now(), "m", "e", "o"); err == nil {
		t.Fatalf("expected error before Init")
	}
	if err := NewStore("").Init(); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
