package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/gnotes/internal/storage"
	"github.com/starford/gnotes/internal/tags"
)

// watcherTestEnv sets up a notes root, storage, and DB for watcher tests.
func watcherTestEnv(t *testing.T) (string, *storage.FS, *DB) {
	t.Helper()
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}
	return root, store, testDB(t)
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) record(kind, id string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+id)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func startWatch(t *testing.T, db *DB, store *storage.FS, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go Watch(ctx, db, store, quietLogger(), cb)
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewNoteIndexed(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(root, "notes"), 0o755)
	rec := &recorder{}
	startWatch(t, db, store, rec.record)

	_ = os.WriteFile(filepath.Join(root, "notes", "new"), []byte("# New"), 0o644)
	id := filepath.Join("notes", "new")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(id)
		return cs != ""
	}, "new note not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		return rec.has("created:"+id) || rec.has("updated:"+id)
	}, "expected created callback")
}

func TestWatcher_NewDirWatched(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	startWatch(t, db, store, nil)

	sub := filepath.Join(root, "ideas")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep"), []byte("deep thought"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(filepath.Join("ideas", "deep"))
		return cs != ""
	}, "note in new dir not indexed by watcher")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	id, _ := store.Append("notes", "del", "delete me")
	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatal(err)
	}
	startWatch(t, db, store, nil)

	_ = os.Remove(filepath.Join(root, id))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(id)
		return cs == ""
	}, "deleted note still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	oldID, _ := store.Append("notes", "old", "rename me")
	_ = Sync(db, store, quietLogger())
	startWatch(t, db, store, nil)

	newID := filepath.Join("notes", "renamed")
	_ = os.Rename(filepath.Join(root, oldID), filepath.Join(root, newID))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum(oldID)
		newCS, _ := db.GetChecksum(newID)
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed")
}

func TestWatcher_TagIndexMirrored(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	id, _ := store.Append("notes", "chores", "sweep")
	rec := &recorder{}
	startWatch(t, db, store, rec.record)

	if err := tags.Save(root, tags.Tags{"home": tags.NewSet(id)}); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		got, _ := db.NoteTags(id)
		return len(got) == 1 && got[0] == "home"
	}, "tag index change not mirrored")

	if !rec.has("tags:" + tags.FileName) {
		t.Error("expected tags callback")
	}
}

func TestWatcher_IgnoresHiddenDirs(t *testing.T) {
	root, store, db := watcherTestEnv(t)
	_ = os.MkdirAll(filepath.Join(root, ".git"), 0o755)
	startWatch(t, db, store, nil)

	_ = os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0o644)
	_, _ = store.Append("notes", "visible", "x")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(filepath.Join("notes", "visible"))
		return cs != ""
	}, "visible note not indexed")

	if cs, _ := db.GetChecksum(filepath.Join(".git", "HEAD")); cs != "" {
		t.Error("hidden file indexed")
	}
}
