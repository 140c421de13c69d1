package character

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/ebonhold/charforge/llm"
	"github.com/ebonhold/charforge/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := migrations.Run(db, filepath.Join("..", "migrations"), zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return NewStore(db)
}

func testCharacter() *Character {
	return &Character{
		Name:      "Mira Thornwood",
		Class:     "Ranger",
		Race:      "Half-Elf",
		Alignment: "Chaotic Good",
		Level:     3,
	}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testCharacter())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got.Name != "Mira Thornwood" || got.Class != "Ranger" || got.Level != 3 {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.Background != nil {
		t.Errorf("expected empty background, got %v", got.Background)
	}
}

func TestCreateRequiresName(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Create(context.Background(), &Character{Class: "Wizard"})
	if err == nil {
		t.Fatal("expected error for missing name, got nil")
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSetGeneratedField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testCharacter())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	payload := llm.ChatResponse{
		"background":         "Raised among caravan traders.",
		"personality_traits": []any{"Wary", "Loyal"},
	}
	if err := store.SetGeneratedField(ctx, created.ID, "background", payload); err != nil {
		t.Fatalf("SetGeneratedField() returned error: %v", err)
	}

	got, err := store.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() returned error: %v", err)
	}
	if got.Background["background"] != "Raised among caravan traders." {
		t.Errorf("unexpected background payload: %v", got.Background)
	}
}

func TestSetGeneratedFieldRejectsUnknownField(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testCharacter())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if err := store.SetGeneratedField(ctx, created.ID, "inventory", llm.ChatResponse{}); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestSetGeneratedFieldNotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.SetGeneratedField(context.Background(), "no-such-id", "background", llm.ChatResponse{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"First", "Second"} {
		c := testCharacter()
		c.Name = name
		if _, err := store.Create(ctx, c); err != nil {
			t.Fatalf("Create(%s) returned error: %v", name, err)
		}
	}

	characters, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() returned error: %v", err)
	}
	if len(characters) != 2 {
		t.Fatalf("expected 2 characters, got %d", len(characters))
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, testCharacter())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if _, err := store.Get(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for double delete, got %v", err)
	}
}
