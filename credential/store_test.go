package credential

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/MrEthical07/goAdmin/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type storeFactory struct {
	name string
	new  func(t *testing.T) Store
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func storeFactories() []storeFactory {
	return []storeFactory{
		{name: "memory", new: func(t *testing.T) Store { return NewMemoryStore() }},
		{name: "file", new: func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "credentials.json"))
			if err != nil {
				t.Fatalf("new file store: %v", err)
			}
			return s
		}},
		{name: "redis", new: func(t *testing.T) Store {
			_, rdb := newTestRedis(t)
			s, err := NewRedisStore(rdb, "test")
			if err != nil {
				t.Fatalf("new redis store: %v", err)
			}
			return s
		}},
	}
}

func sampleRecord() Record {
	return Record{
		AccessToken:  "t1",
		RefreshToken: "r1",
		User: &User{
			ID:         7,
			Username:   "admin",
			Email:      "admin@example.com",
			Role:       permission.RoleAdmin,
			FirstLogin: true,
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.new(t)

			empty, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if !empty.Empty() {
				t.Fatalf("expected empty record, got %+v", empty)
			}

			want := sampleRecord()
			if err := s.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.AccessToken != want.AccessToken || got.RefreshToken != want.RefreshToken {
				t.Fatalf("token mismatch: got %+v want %+v", got, want)
			}
			if got.User == nil || *got.User != *want.User {
				t.Fatalf("user mismatch: got %+v want %+v", got.User, want.User)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			cleared, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load after clear: %v", err)
			}
			if !cleared.Empty() {
				t.Fatalf("expected empty record after clear, got %+v", cleared)
			}
		})
	}
}

func TestStoreSaveEmptyFieldsRemovesKeys(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.new(t)

			if err := s.Save(ctx, sampleRecord()); err != nil {
				t.Fatalf("save: %v", err)
			}
			if err := s.Save(ctx, Record{AccessToken: "t2"}); err != nil {
				t.Fatalf("save partial: %v", err)
			}
			got, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.AccessToken != "t2" || got.RefreshToken != "" || got.User != nil {
				t.Fatalf("expected only access token to remain, got %+v", got)
			}
		})
	}
}

func TestClearIsIdempotent(t *testing.T) {
	for _, f := range storeFactories() {
		t.Run(f.name, func(t *testing.T) {
			ctx := context.Background()
			s := f.new(t)
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("first clear: %v", err)
			}
			if err := s.Clear(ctx); err != nil {
				t.Fatalf("second clear: %v", err)
			}
		})
	}
}

func TestMemoryStoreCorruptUserIsAbsentProfile(t *testing.T) {
	s := NewMemoryStoreFromValues(map[string]string{
		KeyToken:        "t1",
		KeyRefreshToken: "r1",
		KeyUser:         "{not-json",
	})

	rec, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.User != nil {
		t.Fatalf("expected corrupt user to load as nil, got %+v", rec.User)
	}
	if rec.AccessToken != "t1" || rec.RefreshToken != "r1" {
		t.Fatalf("tokens should survive a corrupt user value, got %+v", rec)
	}
}

func TestRedisStoreCorruptUserIsAbsentProfile(t *testing.T) {
	mr, rdb := newTestRedis(t)
	s, err := NewRedisStore(rdb, "")
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	if err := mr.Set("goadmin:token", "t1"); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := mr.Set("goadmin:user", "undefined"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.AccessToken != "t1" || rec.User != nil {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestFileStoreToleratesDamagedDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.json")

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"token":"t1","user":{"role":"admin"}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.AccessToken != "t1" || rec.User != nil {
		t.Fatalf("expected token with absent user, got %+v", rec)
	}

	if err := os.WriteFile(path, []byte(`garbage`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rec, err = s.Load(context.Background())
	if err != nil {
		t.Fatalf("load garbage: %v", err)
	}
	if !rec.Empty() {
		t.Fatalf("expected empty record for unreadable document, got %+v", rec)
	}
}

func TestFileStoreWritesPrivateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Save(context.Background(), sampleRecord()); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestReadOnlyHidesMutators(t *testing.T) {
	r := ReadOnly(NewMemoryStore())
	if _, ok := r.(Store); ok {
		t.Fatal("read-only view must not expose Store")
	}
}
