package character

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/ebonhold/charforge/llm"
)

// ErrNotFound is returned when no character exists with the requested ID.
var ErrNotFound = errors.New("character not found")

// Store handles persistence of character records in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a character store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new character and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, c *Character) (*Character, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("character name is required")
	}
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Level == 0 {
		c.Level = 1
	}

	background, equipment, spells, traits, err := marshalGenerated(c)
	if err != nil {
		return nil, err
	}

	query := sq.Insert("characters").
		Columns("id", "name", "class", "race", "alignment", "level",
			"background", "equipment", "spells", "traits", "created_at", "updated_at").
		Values(c.ID, c.Name, c.Class, c.Race, c.Alignment, c.Level,
			background, equipment, spells, traits, now.Unix(), now.Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, queryStr, args...); err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}
	return c, nil
}

// Get returns the character with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Character, error) {
	query := sq.Select("id", "name", "class", "race", "alignment", "level",
		"background", "equipment", "spells", "traits", "created_at", "updated_at").
		From("characters").
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	row := s.db.QueryRowContext(ctx, queryStr, args...)
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

// List returns all characters ordered by creation time, newest first.
func (s *Store) List(ctx context.Context) ([]*Character, error) {
	query := sq.Select("id", "name", "class", "race", "alignment", "level",
		"background", "equipment", "spells", "traits", "created_at", "updated_at").
		From("characters").
		OrderBy("created_at DESC")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	var characters []*Character
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, rows.Err()
}

// SetGeneratedField stores a generated payload under one of the character's
// generated columns: "background", "equipment", "spells" or "traits".
func (s *Store) SetGeneratedField(ctx context.Context, id, field string, payload llm.ChatResponse) error {
	switch field {
	case "background", "equipment", "spells", "traits":
	default:
		return fmt.Errorf("unknown generated field %q", field)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", field, err)
	}

	query := sq.Update("characters").
		Set(field, string(data)).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("update character %s: %w", field, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a character record.
func (s *Store) Delete(ctx context.Context, id string) error {
	query := sq.Delete("characters").Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	result, err := s.db.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func marshalGenerated(c *Character) (background, equipment, spells, traits string, err error) {
	fields := []struct {
		name    string
		payload llm.ChatResponse
		out     *string
	}{
		{"background", c.Background, &background},
		{"equipment", c.Equipment, &equipment},
		{"spells", c.Spells, &spells},
		{"traits", c.Traits, &traits},
	}
	for _, f := range fields {
		if f.payload == nil {
			*f.out = "{}"
			continue
		}
		data, merr := json.Marshal(f.payload)
		if merr != nil {
			return "", "", "", "", fmt.Errorf("marshal %s payload: %w", f.name, merr)
		}
		*f.out = string(data)
	}
	return background, equipment, spells, traits, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCharacter(row rowScanner) (*Character, error) {
	var c Character
	var background, equipment, spells, traits string
	var createdAt, updatedAt int64

	err := row.Scan(&c.ID, &c.Name, &c.Class, &c.Race, &c.Alignment, &c.Level,
		&background, &equipment, &spells, &traits, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		data string
		out  *llm.ChatResponse
	}{
		{background, &c.Background},
		{equipment, &c.Equipment},
		{spells, &c.Spells},
		{traits, &c.Traits},
	} {
		var payload llm.ChatResponse
		if err := json.Unmarshal([]byte(f.data), &payload); err != nil {
			return nil, fmt.Errorf("unmarshal generated payload: %w", err)
		}
		if len(payload) > 0 {
			*f.out = payload
		}
	}

	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}
