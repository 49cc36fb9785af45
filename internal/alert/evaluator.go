// Package alert decides which snapshot rows warrant a notification. Alert
// categories are plain data: a read from the store plus a qualification
// predicate, evaluated per squad across both zones on every run.
package alert

import (
	"context"

	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/notify"
)

// issueMaxUnassignedDays is how long a GitHub issue may sit without an
// assignee before it alerts.
const issueMaxUnassignedDays = 7

// Store is the candidate-read subset of the repository.
type Store interface {
	OrphanCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	IssueCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	DocCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	LabelCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	RstCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	DiffCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
}

// Notifier delivers one qualifying row to a destination.
type Notifier interface {
	Dispatch(ctx context.Context, c entities.AlertCandidate, dest notify.Destination) entities.DeliveryResult
}

type category struct {
	name      string
	read      func(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error)
	qualifies func(c entities.AlertCandidate) bool
}

// Evaluator walks every alert category for every squad of a zone and hands
// qualifying rows to the notifier. Read failures of one category are logged
// and do not stop the others.
type Evaluator struct {
	log      *zap.SugaredLogger
	store    Store
	notifier Notifier
}

// New creates an Evaluator.
func New(log *zap.SugaredLogger, store Store, notifier Notifier) *Evaluator {
	return &Evaluator{
		log:      log.Named("alert"),
		store:    store,
		notifier: notifier,
	}
}

func (e *Evaluator) categories() []category {
	return []category{
		{name: "orphans", read: e.store.OrphanCandidates, qualifies: orphanQualifies},
		{name: "issues", read: e.store.IssueCandidates, qualifies: issueQualifies},
		{name: "docs", read: e.store.DocCandidates, qualifies: docQualifies},
		{name: "labels", read: e.store.LabelCandidates, qualifies: analyzedQualifies},
		{name: "rst", read: e.store.RstCandidates, qualifies: rstQualifies},
		{name: "diffs", read: e.store.DiffCandidates, qualifies: diffQualifies},
	}
}

// Run evaluates one zone. Rows without structured-doc changes have no squad
// to answer for them; those go to the ecosystem channel in a second pass.
func (e *Evaluator) Run(ctx context.Context, spec config.ZoneSpec) error {
	for _, squad := range notify.Squads() {
		dest, ok := notify.DestinationFor(squad)
		if !ok {
			continue
		}
		for _, cat := range e.categories() {
			rows, err := cat.read(ctx, spec.Zone, squad)
			if err != nil {
				e.log.Errorw("read alert candidates", "category", cat.name, "squad", squad, "error", err)
				continue
			}
			for _, row := range rows {
				if !cat.qualifies(row) {
					continue
				}
				e.notifier.Dispatch(ctx, row, dest)
			}
		}
	}

	return e.ecosystemPass(ctx, spec)
}

// ecosystemPass sends rst rows without .rst changes to the ecosystem channel,
// squad filter off so unrouted squads are covered too.
func (e *Evaluator) ecosystemPass(ctx context.Context, spec config.ZoneSpec) error {
	rows, err := e.store.RstCandidates(ctx, spec.Zone, "")
	if err != nil {
		e.log.Errorw("read rst candidates", "zone", spec.Zone, "error", err)
		return err
	}
	for _, row := range rows {
		if row.HasRst {
			continue
		}
		row.Squad = ""
		e.notifier.Dispatch(ctx, row, notify.Ecosystem)
	}
	return nil
}

// Every orphaned pair alerts; divergence is never acceptable.
func orphanQualifies(entities.AlertCandidate) bool { return true }

// GitHub issues alert once unassigned past the age threshold. Gitea issues
// are the proposal bot's own and never alert.
func issueQualifies(c entities.AlertCandidate) bool {
	return c.Environment == entities.EnvGithub &&
		c.Assignees == "" &&
		c.DaysPassed > issueMaxUnassignedDays
}

// Documents alert at the three weekly checkpoints before the one-year mark,
// then every run once over it.
func docQualifies(c entities.AlertCandidate) bool {
	switch {
	case c.DaysPassed == 344, c.DaysPassed == 351, c.DaysPassed == 358:
		return true
	case c.DaysPassed >= 365:
		return true
	}
	return false
}

// A labeled and answered review is fine; anything less alerts.
func analyzedQualifies(c entities.AlertCandidate) bool {
	return !(c.Label == "Analyzed" && c.Comment == "Commented")
}

func rstQualifies(c entities.AlertCandidate) bool {
	return c.HasRst
}

// Bigger diffs get more review slack before alerting.
func diffQualifies(c entities.AlertCandidate) bool {
	switch {
	case c.LinesCount < 1000:
		return c.DaysPassed > 5
	case c.LinesCount <= 5000:
		return c.DaysPassed > 10
	default:
		return c.DaysPassed > 15
	}
}
