package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospector-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prospects (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	name            TEXT NOT NULL,
	address         TEXT,
	city            TEXT,
	sector          TEXT,
	website_url     TEXT,
	presence_state  TEXT,
	email           TEXT,
	message_content TEXT,
	sent_at         DATETIME,
	status          TEXT NOT NULL DEFAULT 'new',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	keyword       TEXT NOT NULL,
	location      TEXT NOT NULL,
	radius_meters INTEGER NOT NULL,
	sector        TEXT,
	processed     INTEGER NOT NULL DEFAULT 0,
	sent          INTEGER NOT NULL DEFAULT 0,
	dry_run       INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'running',
	started_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at   DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_prospects_identity ON prospects(name, city);
CREATE INDEX IF NOT EXISTS idx_prospects_status ON prospects(status);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProspect(ctx context.Context, p model.Prospect) (int64, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM prospects WHERE name = ? AND city = ?`,
		p.Name, p.City,
	).Scan(&existing)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return 0, eris.Wrap(err, "sqlite: lookup identity")
	}

	status := p.Status
	if status == "" {
		status = model.StatusNew
	}

	// City is part of the dedup identity and must stay comparable with =,
	// so an unknown city is stored as '' rather than NULL.
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prospects (name, address, city, sector, website_url, presence_state, email, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, nullable(p.Address), p.City, nullable(p.Sector),
		nullable(p.WebsiteURL), nullable(string(p.PresenceState)), nullable(p.Email),
		string(status),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: insert prospect %s", p.Name)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: last insert id")
}

func (s *SQLiteStore) GetByIdentity(ctx context.Context, name, city string) (*model.Prospect, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, address, city, sector, website_url, presence_state, email,
		        message_content, sent_at, status, created_at
		 FROM prospects WHERE name = ? AND city = ?`,
		name, city,
	)
	p, err := scanProspect(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get by identity")
	}
	return p, nil
}

func (s *SQLiteStore) RecordOutcome(ctx context.Context, id int64, outcome Outcome) error {
	sets := []string{"status = ?"}
	args := []any{string(outcome.Status)}

	if outcome.PresenceState != "" {
		sets = append(sets, "presence_state = ?")
		args = append(args, string(outcome.PresenceState))
	}
	if outcome.Email != "" {
		sets = append(sets, "email = ?")
		args = append(args, outcome.Email)
	}
	if outcome.MessageContent != "" {
		sets = append(sets, "message_content = ?")
		args = append(args, outcome.MessageContent)
	}
	if outcome.Status == model.StatusContacted {
		sets = append(sets, "sent_at = ?")
		args = append(args, time.Now().UTC())
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE prospects SET `+strings.Join(sets, ", ")+` WHERE id = ?`,
		args...,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record outcome %d", id)
	}
	return checkRowsAffected(res, "prospect", id)
}

func (s *SQLiteStore) PendingForOutreach(ctx context.Context) ([]model.Prospect, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, city, sector, website_url, presence_state, email,
		        message_content, sent_at, status, created_at
		 FROM prospects
		 WHERE status = 'new'
		   AND presence_state IN ('NO_SITE', 'ARCHAIC')
		   AND email IS NOT NULL
		 ORDER BY id`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pending for outreach")
	}
	defer rows.Close()

	var prospects []model.Prospect
	for rows.Next() {
		p, err := scanProspect(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pending prospect")
		}
		prospects = append(prospects, *p)
	}
	return prospects, eris.Wrap(rows.Err(), "sqlite: pending iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.RunSummary) (string, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, keyword, location, radius_meters, sector, dry_run, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.Keyword, run.Location, run.RadiusMeters, nullable(run.Sector),
		boolToInt(run.DryRun), string(model.RunStatusRunning), now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, processed, sent int, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET processed = ?, sent = ?, status = ?, finished_at = ? WHERE id = ?`,
		processed, sent, string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

// helpers

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProspect(row scannable) (*model.Prospect, error) {
	var (
		p              model.Prospect
		address        sql.NullString
		city           sql.NullString
		sector         sql.NullString
		websiteURL     sql.NullString
		presenceState  sql.NullString
		email          sql.NullString
		messageContent sql.NullString
		sentAt         sql.NullTime
	)

	err := row.Scan(&p.ID, &p.Name, &address, &city, &sector, &websiteURL,
		&presenceState, &email, &messageContent, &sentAt, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Address = address.String
	p.City = city.String
	p.Sector = sector.String
	p.WebsiteURL = websiteURL.String
	p.PresenceState = model.PresenceState(presenceState.String)
	p.Email = email.String
	p.MessageContent = messageContent.String
	if sentAt.Valid {
		t := sentAt.Time
		p.SentAt = &t
	}
	return &p, nil
}
