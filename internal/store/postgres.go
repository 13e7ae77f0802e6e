package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id              BIGSERIAL PRIMARY KEY,
	name            TEXT NOT NULL,
	address         TEXT,
	city            TEXT,
	sector          TEXT,
	website_url     TEXT,
	presence_state  TEXT,
	email           TEXT,
	message_content TEXT,
	sent_at         TIMESTAMPTZ,
	status          TEXT NOT NULL DEFAULT 'new',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	keyword       TEXT NOT NULL,
	location      TEXT NOT NULL,
	radius_meters INTEGER NOT NULL,
	sector        TEXT,
	processed     INTEGER NOT NULL DEFAULT 0,
	sent          INTEGER NOT NULL DEFAULT 0,
	dry_run       BOOLEAN NOT NULL DEFAULT false,
	status        TEXT NOT NULL DEFAULT 'running',
	started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at   TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_identity ON prospects(name, city);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertProspect(ctx context.Context, p model.Prospect) (int64, error) {
	var existing int64
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM prospects WHERE name = $1 AND city = $2`,
		p.Name, p.City,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, eris.Wrap(err, "postgres: lookup identity")
	}

	status := p.Status
	if status == "" {
		status = model.StatusNew
	}

	// City is part of the dedup identity and must stay comparable with =,
	// so an unknown city is stored as '' rather than NULL.
	var id int64
	err = s.pool.QueryRow(ctx,
		`INSERT INTO prospects (name, address, city, sector, website_url, presence_state, email, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		p.Name, textOrNil(p.Address), p.City, textOrNil(p.Sector),
		textOrNil(p.WebsiteURL), textOrNil(string(p.PresenceState)), textOrNil(p.Email),
		string(status),
	).Scan(&id)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: insert prospect %s", p.Name)
	}
	return id, nil
}

func (s *PostgresStore) GetByIdentity(ctx context.Context, name, city string) (*model.Prospect, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, address, city, sector, website_url, presence_state, email,
		        message_content, sent_at, status, created_at
		 FROM prospects WHERE name = $1 AND city = $2`,
		name, city,
	)
	p, err := scanProspectPg(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get by identity")
	}
	return p, nil
}

func (s *PostgresStore) RecordOutcome(ctx context.Context, id int64, outcome Outcome) error {
	sets := []string{"status = $1"}
	args := []any{string(outcome.Status)}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}

	if outcome.PresenceState != "" {
		add("presence_state", string(outcome.PresenceState))
	}
	if outcome.Email != "" {
		add("email", outcome.Email)
	}
	if outcome.MessageContent != "" {
		add("message_content", outcome.MessageContent)
	}
	if outcome.Status == model.StatusContacted {
		add("sent_at", time.Now().UTC())
	}
	args = append(args, id)

	tag, err := s.pool.Exec(ctx,
		`UPDATE prospects SET `+strings.Join(sets, ", ")+` WHERE id = $`+strconv.Itoa(len(args)),
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record outcome %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("prospect not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) PendingForOutreach(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, city, sector, website_url, presence_state, email,
		        message_content, sent_at, status, created_at
		 FROM prospects
		 WHERE status = 'new'
		   AND presence_state IN ('NO_SITE', 'ARCHAIC')
		   AND email IS NOT NULL
		 ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pending for outreach")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspectPg(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan pending prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "postgres: pending iterate")
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.RunSummary) (string, error) {
	id := uuid.New().String()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, keyword, location, radius_meters, sector, dry_run, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, run.Keyword, run.Location, run.RadiusMeters, textOrNil(run.Sector),
		run.DryRun, string(model.RunStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert run")
	}
	return id, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, processed, sent int, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET processed = $1, sent = $2, status = $3, finished_at = $4 WHERE id = $5`,
		processed, sent, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

// helpers

func textOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanProspectPg(row pgx.Row) (*model.Prospect, error) {
	var (
		p              model.Prospect
		address        *string
		city           *string
		sector         *string
		websiteURL     *string
		presenceState  *string
		email          *string
		messageContent *string
		sentAt         *time.Time
	)

	err := row.Scan(&p.ID, &p.Name, &address, &city, &sector, &websiteURL,
		&presenceState, &email, &messageContent, &sentAt, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Address = deref(address)
	p.City = deref(city)
	p.Sector = deref(sector)
	p.WebsiteURL = deref(websiteURL)
	p.PresenceState = model.PresenceState(deref(presenceState))
	p.Email = deref(email)
	p.MessageContent = deref(messageContent)
	p.SentAt = sentAt
	return &p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
