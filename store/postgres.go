package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/pkg/errors"
)

const schema = `
create table if not exists output_files (
    id          uuid primary key,
    filename    text not null,
    source      text not null default '',
    template    text not null default '',
    profile     text not null default '',
    created_at  timestamptz not null default now()
);
create index if not exists output_files_created_at_idx on output_files (created_at desc);`

// Postgres is a Registry backed by the output_files table.
type Postgres struct {
	DB *sql.DB
}

// NewPostgres wraps an open database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// OpenPostgres connects to dsn, checks the connection and creates the
// output_files table when it does not exist.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connecting to database")
	}

	p := NewPostgres(db)
	if err := p.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Migrate creates the schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "creating output_files table")
	}
	return nil
}

// Close closes the database handle.
func (p *Postgres) Close() error {
	return p.DB.Close()
}

// Record implements Registry.
func (p *Postgres) Record(ctx context.Context, f *OutputFile) error {
	if err := prepare(f); err != nil {
		return err
	}
	const q = `
insert into output_files (id, filename, source, template, profile, created_at)
values ($1, $2, $3, $4, $5, $6)`
	if _, err := p.DB.ExecContext(ctx, q, f.ID, f.Filename, f.Source, f.Template, f.Profile, f.CreatedAt); err != nil {
		return errors.Wrapf(err, "recording %s", f.Filename)
	}
	return nil
}

// Get implements Registry.
func (p *Postgres) Get(ctx context.Context, id uuid.UUID) (*OutputFile, error) {
	const q = `
select id, filename, source, template, profile, created_at
from output_files
where id = $1`
	var f OutputFile
	err := p.DB.QueryRowContext(ctx, q, id).
		Scan(&f.ID, &f.Filename, &f.Source, &f.Template, &f.Profile, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading output file")
	}
	return &f, nil
}

// List implements Registry.
func (p *Postgres) List(ctx context.Context, limit int) ([]OutputFile, error) {
	const q = `
select id, filename, source, template, profile, created_at
from output_files
order by created_at desc
limit $1`
	var arg any
	if limit > 0 {
		arg = limit
	}
	rows, err := p.DB.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, errors.Wrap(err, "listing output files")
	}
	defer rows.Close()

	var out []OutputFile
	for rows.Next() {
		var f OutputFile
		if err := rows.Scan(&f.ID, &f.Filename, &f.Source, &f.Template, &f.Profile, &f.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scanning output file")
		}
		out = append(out, f)
	}
	return out, errors.Wrap(rows.Err(), "listing output files")
}
