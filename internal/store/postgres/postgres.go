// Package postgres guarda as inscrições numa tabela Postgres (lib/pq).
// A restrição UNIQUE em email é a fonte da verdade para duplicidade.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"waitlist-service/internal/pkg/logger"
	"waitlist-service/internal/waitlist"
)

const uniqueViolation = "23505"

const schema = `CREATE TABLE IF NOT EXISTS waitlist_emails (
	id          UUID PRIMARY KEY,
	email       TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL DEFAULT '',
	company     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	ip_address  TEXT NOT NULL DEFAULT '',
	user_agent  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS waitlist_emails_created_at_idx ON waitlist_emails (created_at DESC)`

const columns = `id, email, name, company, created_at, ip_address, user_agent`

type Store struct {
	db *sql.DB

	mu          sync.Mutex
	schemaReady bool
}

// Open valida o DSN (erro aqui é de configuração) sem abrir conexão.
func Open(dsn string) (*Store, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return New(db), nil
}

func New(db *sql.DB) *Store { return &Store{db: db} }

// Ping checa a conexão e, na primeira vez que ela responde, garante o schema.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	s.schemaReady = true
	logger.Info("postgres schema ready", "table", "waitlist_emails")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (waitlist.Record, error) {
	var r waitlist.Record
	err := row.Scan(&r.ID, &r.Email, &r.Name, &r.Company, &r.CreatedAt, &r.IPAddress, &r.UserAgent)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, err
}

func (s *Store) FindByEmail(ctx context.Context, email string) (waitlist.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+columns+` FROM waitlist_emails WHERE email = $1`, email)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return waitlist.Record{}, waitlist.ErrNotFound
	}
	if err != nil {
		return waitlist.Record{}, fmt.Errorf("querying email: %w", err)
	}
	return rec, nil
}

func (s *Store) Create(ctx context.Context, rec waitlist.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO waitlist_emails (`+columns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Email, rec.Name, rec.Company, rec.CreatedAt, rec.IPAddress, rec.UserAgent)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return waitlist.ErrDuplicate
		}
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]waitlist.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+columns+` FROM waitlist_emails ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var recs []waitlist.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return recs, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM waitlist_emails`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

func (s *Store) Close() error { return s.db.Close() }
