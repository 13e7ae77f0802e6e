package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sells-group/prospector-cli/internal/detect"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/pkg/composer"
	"github.com/sells-group/prospector-cli/pkg/places"
)

// mockStore implements store.Store with an in-memory ledger keyed by
// (name, city).
type mockStore struct {
	prospects     map[string]*model.Prospect
	nextID        int64
	createdRunID  string
	completedRuns []string
	failedRuns    []string
	upsertErr     error
	outcomeErr    error
	lookupErr     error
}

func newMockStore() *mockStore {
	return &mockStore{
		prospects:    make(map[string]*model.Prospect),
		createdRunID: "run-1",
	}
}

func identityKey(name, city string) string { return name + "|" + city }

func (m *mockStore) UpsertProspect(_ context.Context, p model.Prospect) (int64, error) {
	if m.upsertErr != nil {
		return 0, m.upsertErr
	}
	key := identityKey(p.Name, p.City)
	if existing, ok := m.prospects[key]; ok {
		return existing.ID, nil
	}
	m.nextID++
	p.ID = m.nextID
	if p.Status == "" {
		p.Status = model.StatusNew
	}
	p.CreatedAt = time.Now()
	m.prospects[key] = &p
	return p.ID, nil
}

func (m *mockStore) GetByIdentity(_ context.Context, name, city string) (*model.Prospect, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	p, ok := m.prospects[identityKey(name, city)]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (m *mockStore) RecordOutcome(_ context.Context, id int64, outcome store.Outcome) error {
	if m.outcomeErr != nil {
		return m.outcomeErr
	}
	for _, p := range m.prospects {
		if p.ID != id {
			continue
		}
		p.Status = outcome.Status
		if outcome.PresenceState != "" {
			p.PresenceState = outcome.PresenceState
		}
		if outcome.Email != "" {
			p.Email = outcome.Email
		}
		if outcome.MessageContent != "" {
			p.MessageContent = outcome.MessageContent
		}
		if outcome.Status == model.StatusContacted {
			now := time.Now()
			p.SentAt = &now
		}
		return nil
	}
	return errors.New("prospect not found")
}

func (m *mockStore) PendingForOutreach(_ context.Context) ([]model.Prospect, error) {
	var pending []model.Prospect
	for _, p := range m.prospects {
		if p.Status == model.StatusNew && p.PresenceState.Qualifies() && p.Email != "" {
			pending = append(pending, *p)
		}
	}
	return pending, nil
}

func (m *mockStore) CreateRun(_ context.Context, _ model.RunSummary) (string, error) {
	return m.createdRunID, nil
}

func (m *mockStore) CompleteRun(_ context.Context, runID string, _, _ int, status model.RunStatus) error {
	if status == model.RunStatusFailed {
		m.failedRuns = append(m.failedRuns, runID)
	} else {
		m.completedRuns = append(m.completedRuns, runID)
	}
	return nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }

func (m *mockStore) byIdentity(name, city string) *model.Prospect {
	return m.prospects[identityKey(name, city)]
}

// mockSearcher implements places.Client.
type mockSearcher struct {
	results []model.PlaceRecord
	err     error
}

func (m *mockSearcher) Search(_ context.Context, _ places.Query) ([]model.PlaceRecord, error) {
	return m.results, m.err
}

// mockResolver implements Resolver with canned URLs per business name.
type mockResolver struct {
	urls map[string]string
}

func (m *mockResolver) Resolve(_ context.Context, name, declaredWebsite string) (string, bool) {
	if declaredWebsite != "" {
		return detect.NormalizeURL(declaredWebsite), false
	}
	return m.urls[name], true
}

// mockProber implements Prober with canned results per URL.
type mockProber struct {
	results map[string]detect.ProbeResult
}

func (m *mockProber) Probe(_ context.Context, url string) detect.ProbeResult {
	return m.results[url]
}

// mockClassifier implements Classifier with canned verdicts per body.
type mockClassifier struct {
	verdicts map[string]model.ClassificationResult
}

func (m *mockClassifier) Classify(html string) model.ClassificationResult {
	if v, ok := m.verdicts[html]; ok {
		return v
	}
	return model.ClassificationResult{State: model.PresenceUnknown}
}

// mockContacts implements hunter.Client.
type mockContacts struct {
	emails map[string]string
	err    error
	calls  []string
}

func (m *mockContacts) Find(_ context.Context, domain, _ string) (string, error) {
	m.calls = append(m.calls, domain)
	if m.err != nil {
		return "", m.err
	}
	return m.emails[domain], nil
}

// mockComposer implements composer.Composer.
type mockComposer struct {
	message string
	calls   []composer.Prospect
}

func (m *mockComposer) Generate(_ context.Context, p composer.Prospect) string {
	m.calls = append(m.calls, p)
	if m.message != "" {
		return m.message
	}
	return "Bonjour " + p.Name
}

// mockMailer implements mailer.Mailer.
type mockMailer struct {
	ok    bool
	sends []string
}

func (m *mockMailer) Send(toEmail, _, _ string) bool {
	m.sends = append(m.sends, toEmail)
	return m.ok
}
