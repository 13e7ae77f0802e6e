// Package pipeline drives the lead-qualification stages: resolve a web
// presence, probe it, classify it, filter, resolve a contact, compose and
// dispatch outreach, and record the prospect in the ledger.
package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/detect"
	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/pkg/composer"
	"github.com/sells-group/prospector-cli/pkg/hunter"
	"github.com/sells-group/prospector-cli/pkg/mailer"
	"github.com/sells-group/prospector-cli/pkg/places"
)

// Resolver determines a usable website URL for a business name.
type Resolver interface {
	Resolve(ctx context.Context, name, declaredWebsite string) (url string, guessed bool)
}

// Prober fetches a URL and reports reachability.
type Prober interface {
	Probe(ctx context.Context, url string) detect.ProbeResult
}

// Classifier scores markup and assigns a presence state.
type Classifier interface {
	Classify(html string) model.ClassificationResult
}

// Params configures a single pipeline run.
type Params struct {
	Keyword      string
	Location     string
	RadiusMeters int
	Type         string
	MaxResults   int
	DryRun       bool
}

// Summary is the per-run outcome, always produced when a run completes.
type Summary struct {
	RunID     string `json:"run_id"`
	Processed int    `json:"processed"`
	Sent      int    `json:"sent"`
}

// Pipeline processes candidates sequentially, one end-to-end at a time:
// the external APIs are rate-limited and each outcome must be durable
// before the next candidate is read.
type Pipeline struct {
	store      store.Store
	searcher   places.Client
	resolver   Resolver
	prober     Prober
	classifier Classifier
	contacts   hunter.Client
	composer   composer.Composer
	mailer     mailer.Mailer
}

// New creates a Pipeline with all collaborators.
func New(
	st store.Store,
	searcher places.Client,
	resolver Resolver,
	prober Prober,
	classifier Classifier,
	contacts hunter.Client,
	comp composer.Composer,
	m mailer.Mailer,
) *Pipeline {
	return &Pipeline{
		store:      st,
		searcher:   searcher,
		resolver:   resolver,
		prober:     prober,
		classifier: classifier,
		contacts:   contacts,
		composer:   comp,
		mailer:     m,
	}
}

// Run searches for candidates and processes each one. Per-candidate
// failures are logged and recorded, never raised; only a rejected search
// or a ledger failure aborts the run. Zero candidates is success.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Summary, error) {
	runID, err := p.store.CreateRun(ctx, model.RunSummary{
		Keyword:      params.Keyword,
		Location:     params.Location,
		RadiusMeters: params.RadiusMeters,
		Sector:       params.Type,
		DryRun:       params.DryRun,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	summary := &Summary{RunID: runID}

	candidates, err := p.searcher.Search(ctx, places.Query{
		Location:     params.Location,
		RadiusMeters: params.RadiusMeters,
		Keyword:      params.Keyword,
		Type:         params.Type,
		MaxResults:   params.MaxResults,
	})
	if err != nil {
		p.failRun(ctx, runID, summary)
		return nil, eris.Wrap(err, "pipeline: search candidates")
	}

	zap.L().Info("pipeline: candidates found",
		zap.String("keyword", params.Keyword),
		zap.Int("count", len(candidates)),
	)

	sector := params.Type
	if sector == "" {
		sector = params.Keyword
	}

	for _, candidate := range candidates {
		sent, err := p.processCandidate(ctx, candidate, sector, params.DryRun)
		if err != nil {
			// Only ledger failures escape processCandidate; without the
			// dedup ledger, continuing risks duplicate outreach.
			p.failRun(ctx, runID, summary)
			return nil, err
		}
		summary.Processed++
		if sent {
			summary.Sent++
		}
	}

	if err := p.store.CompleteRun(ctx, runID, summary.Processed, summary.Sent, model.RunStatusComplete); err != nil {
		return nil, eris.Wrap(err, "pipeline: complete run")
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
	)
	return summary, nil
}

func (p *Pipeline) failRun(ctx context.Context, runID string, summary *Summary) {
	if err := p.store.CompleteRun(ctx, runID, summary.Processed, summary.Sent, model.RunStatusFailed); err != nil {
		zap.L().Warn("pipeline: failed to mark run failed", zap.String("run_id", runID), zap.Error(err))
	}
}

// processCandidate runs stages 2-9 for one candidate. The returned error
// is non-nil only for ledger failures.
func (p *Pipeline) processCandidate(ctx context.Context, candidate model.PlaceRecord, sector string, dryRun bool) (bool, error) {
	log := zap.L().With(zap.String("prospect", candidate.Name))

	if candidate.Name == "" {
		log.Warn("pipeline: candidate without name, skipping")
		return false, nil
	}

	siteURL, guessed := p.resolver.Resolve(ctx, candidate.Name, candidate.Website)

	state := model.PresenceNoSite
	var reasons []string

	if siteURL != "" {
		probe := p.prober.Probe(ctx, siteURL)
		if probe.Reachable {
			result := p.classifier.Classify(probe.Body)
			state = result.State
			reasons = result.Reasons
			siteURL = probe.FinalURL
			log.Info("pipeline: website classified",
				zap.String("url", siteURL),
				zap.String("state", string(state)),
				zap.Strings("reasons", reasons),
			)
		} else {
			// A declared-but-dead site collapses into NO_SITE outwardly;
			// the distinction stays visible in the logs.
			log.Info("pipeline: website unreachable",
				zap.String("url", siteURL),
				zap.Bool("declared", !guessed),
			)
		}
	} else {
		log.Info("pipeline: no website found")
	}

	city := candidate.City()

	existing, err := p.store.GetByIdentity(ctx, candidate.Name, city)
	if err != nil {
		return false, eris.Wrap(err, "pipeline: ledger lookup")
	}
	if existing != nil {
		log.Info("pipeline: already in ledger, skipping",
			zap.Int64("id", existing.ID),
			zap.String("status", string(existing.Status)),
		)
		return false, nil
	}

	var email string
	if state.Qualifies() {
		email, err = p.contacts.Find(ctx, hostOf(siteURL), candidate.Name)
		if err != nil {
			log.Warn("pipeline: contact lookup failed", zap.Error(err))
			email = ""
		}
		if email == "" {
			log.Info("pipeline: no contact email found")
		}
	} else {
		log.Info("pipeline: not an opportunity, recording only", zap.String("state", string(state)))
	}

	status := model.StatusSkipped
	var message string
	sent := false

	if state.Qualifies() && email != "" {
		message = p.composer.Generate(ctx, composer.Prospect{
			Name:          candidate.Name,
			City:          city,
			Sector:        sector,
			PresenceState: state,
			Reasons:       reasons,
		})

		switch {
		case dryRun:
			// Stays new: visible to PendingForOutreach for a later pass.
			status = model.StatusNew
			log.Info("pipeline: dry run, not sending", zap.String("to", email))
		case p.mailer.Send(email, composer.Subject(candidate.Name), message):
			status = model.StatusContacted
			sent = true
		default:
			status = model.StatusFailed
		}
	}

	id, err := p.store.UpsertProspect(ctx, model.Prospect{
		Name:          candidate.Name,
		Address:       candidate.Address,
		City:          city,
		Sector:        sector,
		WebsiteURL:    siteURL,
		PresenceState: state,
		Email:         email,
	})
	if err != nil {
		return false, eris.Wrap(err, "pipeline: upsert prospect")
	}

	if err := p.store.RecordOutcome(ctx, id, store.Outcome{
		Status:         status,
		PresenceState:  state,
		Email:          email,
		MessageContent: message,
	}); err != nil {
		return false, eris.Wrap(err, "pipeline: record outcome")
	}

	return sent, nil
}

// hostOf extracts the bare host from a URL for contact lookup.
func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err == nil && u.Host != "" {
		return u.Host
	}
	host := rawURL
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return host
}
