// Package postgres is a durable ProfileStore for the profile service.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/mcoot/battleship-go/internal/model"
	"github.com/mcoot/battleship-go/internal/storage"
)

// uniqueViolation is the SQLSTATE raised for a duplicate key
const uniqueViolation = "23505"

const schema = `CREATE TABLE IF NOT EXISTS profiles (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	total_games   INTEGER NOT NULL DEFAULT 0,
	wins          INTEGER NOT NULL DEFAULT 0,
	losses        INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

const selectColumns = `id, username, password_hash, total_games, wins, losses, created_at, updated_at`

// Storage keeps profiles in a Postgres table
type Storage struct {
	db *sql.DB
}

var _ storage.ProfileStore = (*Storage)(nil)

// New opens the database, verifies the connection and ensures the schema exists
func New(ctx context.Context, databaseURL string) (*Storage, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema creates the profiles table if it is missing
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}
	return nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) CreateProfile(ctx context.Context, p *model.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (`+selectColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		string(p.ID), p.Username, p.PasswordHash, p.TotalGames, p.Wins, p.Losses, p.CreatedAt, p.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return model.ErrUsernameExists
	}
	return err
}

func (s *Storage) SaveProfile(ctx context.Context, p *model.Profile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET username=$2, password_hash=$3, total_games=$4, wins=$5, losses=$6, updated_at=$7
		 WHERE id=$1`,
		string(p.ID), p.Username, p.PasswordHash, p.TotalGames, p.Wins, p.Losses, p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, id model.PlayerID) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM profiles WHERE id=$1`, string(id))
	return scanProfile(row)
}

func (s *Storage) GetProfileByUsername(ctx context.Context, username string) (*model.Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM profiles WHERE username=$1`, username)
	return scanProfile(row)
}

func scanProfile(row *sql.Row) (*model.Profile, error) {
	var (
		p  model.Profile
		id string
	)
	err := row.Scan(&id, &p.Username, &p.PasswordHash, &p.TotalGames, &p.Wins, &p.Losses, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}
	p.ID = model.PlayerID(id)
	return &p, nil
}
