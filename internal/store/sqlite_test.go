package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Prospects ---

func TestSQLite_Upsert_NewProspect(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.UpsertProspect(ctx, model.Prospect{
		Name:          "Le Pain Doré",
		Address:       "4 Rue des Lilas, Paris",
		City:          "Paris",
		Sector:        "bakery",
		PresenceState: model.PresenceNoSite,
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	p, err := st.GetByIdentity(ctx, "Le Pain Doré", "Paris")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, model.StatusNew, p.Status)
	assert.Equal(t, model.PresenceNoSite, p.PresenceState)
	assert.Nil(t, p.SentAt)
}

func TestSQLite_Upsert_SameIdentityReturnsExistingID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.UpsertProspect(ctx, model.Prospect{Name: "Le Pain Doré", City: "Paris"})
	require.NoError(t, err)

	// Same identity with different attributes must not create a second row
	// nor overwrite the first.
	second, err := st.UpsertProspect(ctx, model.Prospect{
		Name:       "Le Pain Doré",
		City:       "Paris",
		WebsiteURL: "http://other.example",
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p, err := st.GetByIdentity(ctx, "Le Pain Doré", "Paris")
	require.NoError(t, err)
	assert.Empty(t, p.WebsiteURL)
}

func TestSQLite_Upsert_SameNameDifferentCity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	paris, err := st.UpsertProspect(ctx, model.Prospect{Name: "Le Pain Doré", City: "Paris"})
	require.NoError(t, err)
	lyon, err := st.UpsertProspect(ctx, model.Prospect{Name: "Le Pain Doré", City: "Lyon"})
	require.NoError(t, err)
	assert.NotEqual(t, paris, lyon)
}

func TestSQLite_Upsert_EmptyCityIdentity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	// A candidate with no address derives an empty city; the identity must
	// still dedup and be retrievable.
	first, err := st.UpsertProspect(ctx, model.Prospect{Name: "Sans Adresse"})
	require.NoError(t, err)
	second, err := st.UpsertProspect(ctx, model.Prospect{Name: "Sans Adresse"})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	p, err := st.GetByIdentity(ctx, "Sans Adresse", "")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, first, p.ID)
}

func TestSQLite_GetByIdentity_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	p, err := st.GetByIdentity(context.Background(), "Nobody", "Nowhere")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSQLite_GetByIdentity_CaseSensitive(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.UpsertProspect(ctx, model.Prospect{Name: "Le Pain Doré", City: "Paris"})
	require.NoError(t, err)

	p, err := st.GetByIdentity(ctx, "le pain doré", "paris")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSQLite_RecordOutcome_ContactedSetsSentAt(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.UpsertProspect(ctx, model.Prospect{Name: "Vieille Boutique", City: "Paris"})
	require.NoError(t, err)

	err = st.RecordOutcome(ctx, id, Outcome{
		Status:         model.StatusContacted,
		PresenceState:  model.PresenceArchaic,
		Email:          "contact@vieille-boutique-1998.com",
		MessageContent: "Bonjour,\n\nVotre site mérite mieux.",
	})
	require.NoError(t, err)

	p, err := st.GetByIdentity(ctx, "Vieille Boutique", "Paris")
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, p.Status)
	assert.Equal(t, model.PresenceArchaic, p.PresenceState)
	assert.Equal(t, "contact@vieille-boutique-1998.com", p.Email)
	assert.Contains(t, p.MessageContent, "Bonjour")
	require.NotNil(t, p.SentAt)
}

func TestSQLite_RecordOutcome_PartialKeepsPriorValues(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.UpsertProspect(ctx, model.Prospect{
		Name:          "Vieille Boutique",
		City:          "Paris",
		PresenceState: model.PresenceArchaic,
		Email:         "contact@vieille-boutique-1998.com",
	})
	require.NoError(t, err)

	// Status-only update: presence state and email must survive, and
	// sent_at stays unset for non-contacted statuses.
	err = st.RecordOutcome(ctx, id, Outcome{Status: model.StatusFailed})
	require.NoError(t, err)

	p, err := st.GetByIdentity(ctx, "Vieille Boutique", "Paris")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, p.Status)
	assert.Equal(t, model.PresenceArchaic, p.PresenceState)
	assert.Equal(t, "contact@vieille-boutique-1998.com", p.Email)
	assert.Nil(t, p.SentAt)
}

func TestSQLite_RecordOutcome_UnknownID(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.RecordOutcome(context.Background(), 9999, Outcome{Status: model.StatusSkipped})
	require.Error(t, err)
}

func TestSQLite_PendingForOutreach(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seed := []model.Prospect{
		{Name: "No Site Bakery", City: "Paris", PresenceState: model.PresenceNoSite, Email: "a@example.com"},
		{Name: "Archaic Shop", City: "Paris", PresenceState: model.PresenceArchaic, Email: "b@example.com"},
		{Name: "Modern Startup", City: "Paris", PresenceState: model.PresenceModern, Email: "c@example.com"},
		{Name: "No Email Shop", City: "Paris", PresenceState: model.PresenceArchaic},
		{Name: "Already Contacted", City: "Paris", PresenceState: model.PresenceArchaic, Email: "d@example.com", Status: model.StatusContacted},
	}
	for _, p := range seed {
		_, err := st.UpsertProspect(ctx, p)
		require.NoError(t, err)
	}

	pending, err := st.PendingForOutreach(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "No Site Bakery", pending[0].Name)
	assert.Equal(t, "Archaic Shop", pending[1].Name)
}

// --- Runs ---

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateRun(ctx, model.RunSummary{
		Keyword:      "boulangerie",
		Location:     "48.8566,2.3522",
		RadiusMeters: 5000,
		DryRun:       true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	err = st.CompleteRun(ctx, id, 12, 3, model.RunStatusComplete)
	require.NoError(t, err)
}

func TestSQLite_CompleteRun_Unknown(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteRun(context.Background(), "no-such-run", 0, 0, model.RunStatusFailed)
	require.Error(t, err)
}
