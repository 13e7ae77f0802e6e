package store

import (
	"context"

	"github.com/sells-group/prospector-cli/internal/model"
)

// Outcome is a partial update applied to a prospect after processing.
// Status is always written; the optional fields are written only when
// non-empty, and prior values are retained otherwise.
type Outcome struct {
	Status         model.ProspectStatus
	PresenceState  model.PresenceState
	Email          string
	MessageContent string
}

// Store is the durable, dedup-enforcing ledger for prospects, keyed by
// (name, city) business identity. A storage failure is fatal to a run:
// processing without the ledger risks duplicate outreach.
type Store interface {
	// UpsertProspect inserts the prospect and returns its new id. If a row
	// with the same (name, city) identity already exists, its id is
	// returned and nothing is written.
	UpsertProspect(ctx context.Context, p model.Prospect) (int64, error)

	// GetByIdentity returns the prospect with the given (name, city)
	// identity, or nil when absent. Matching is exact and case-sensitive.
	GetByIdentity(ctx context.Context, name, city string) (*model.Prospect, error)

	// RecordOutcome applies a partial update to a single prospect. The
	// update is atomic; sent_at is set exactly when the status becomes
	// contacted.
	RecordOutcome(ctx context.Context, id int64, outcome Outcome) error

	// PendingForOutreach returns prospects with status=new, a qualifying
	// presence state, and a known email. This is the durable equivalent of
	// the in-memory qualification filter.
	PendingForOutreach(ctx context.Context) ([]model.Prospect, error)

	// Runs
	CreateRun(ctx context.Context, run model.RunSummary) (string, error)
	CompleteRun(ctx context.Context, runID string, processed, sent int, status model.RunStatus) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
