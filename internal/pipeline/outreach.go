package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
	"github.com/sells-group/prospector-cli/internal/store"
	"github.com/sells-group/prospector-cli/pkg/composer"
	"github.com/sells-group/prospector-cli/pkg/mailer"
)

// Outreach resumes contact for ledger rows a previous run left pending:
// status=new, a qualifying presence state, and a known email (typically
// dry-run leftovers).
type Outreach struct {
	store    store.Store
	composer composer.Composer
	mailer   mailer.Mailer
}

// NewOutreach creates an Outreach worker.
func NewOutreach(st store.Store, comp composer.Composer, m mailer.Mailer) *Outreach {
	return &Outreach{store: st, composer: comp, mailer: m}
}

// Run processes every pending prospect once. Dispatch rejections are
// recorded as failed and do not stop the pass; only ledger failures do.
func (o *Outreach) Run(ctx context.Context, dryRun bool) (*Summary, error) {
	pending, err := o.store.PendingForOutreach(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "outreach: list pending")
	}

	summary := &Summary{}
	for _, p := range pending {
		summary.Processed++

		message := p.MessageContent
		if message == "" {
			message = o.composer.Generate(ctx, composer.Prospect{
				Name:          p.Name,
				City:          p.City,
				Sector:        p.Sector,
				PresenceState: p.PresenceState,
			})
		}

		if dryRun {
			zap.L().Info("outreach: dry run, not sending",
				zap.Int64("id", p.ID),
				zap.String("to", p.Email),
			)
			continue
		}

		status := model.StatusFailed
		if o.mailer.Send(p.Email, composer.Subject(p.Name), message) {
			status = model.StatusContacted
			summary.Sent++
		}

		if err := o.store.RecordOutcome(ctx, p.ID, store.Outcome{
			Status:         status,
			MessageContent: message,
		}); err != nil {
			return nil, eris.Wrapf(err, "outreach: record outcome %d", p.ID)
		}
	}

	zap.L().Info("outreach: pass complete",
		zap.Int("processed", summary.Processed),
		zap.Int("sent", summary.Sent),
	)
	return summary, nil
}
