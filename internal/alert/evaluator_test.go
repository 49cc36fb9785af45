package alert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/notify"
)

type storeMock struct{ mock.Mock }

var _ Store = (*storeMock)(nil)

func (m *storeMock) candidates(ctx context.Context, method string, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	args := m.MethodCalled(method, ctx, zone, squad)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.AlertCandidate), args.Error(1)
}

func (m *storeMock) OrphanCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "OrphanCandidates", zone, squad)
}

func (m *storeMock) IssueCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "IssueCandidates", zone, squad)
}

func (m *storeMock) DocCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "DocCandidates", zone, squad)
}

func (m *storeMock) LabelCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "LabelCandidates", zone, squad)
}

func (m *storeMock) RstCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "RstCandidates", zone, squad)
}

func (m *storeMock) DiffCandidates(ctx context.Context, zone entities.Zone, squad string) ([]entities.AlertCandidate, error) {
	return m.candidates(ctx, "DiffCandidates", zone, squad)
}

type dispatched struct {
	candidate entities.AlertCandidate
	dest      notify.Destination
}

type notifierSpy struct {
	sent []dispatched
}

var _ Notifier = (*notifierSpy)(nil)

func (n *notifierSpy) Dispatch(_ context.Context, c entities.AlertCandidate, dest notify.Destination) entities.DeliveryResult {
	n.sent = append(n.sent, dispatched{candidate: c, dest: dest})
	return entities.DeliveryResult{Success: true}
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()

	l, _ := zap.NewDevelopment()
	t.Cleanup(func() { _ = l.Sync() })
	return l.Sugar()
}

func TestIssueQualifies(t *testing.T) {
	tests := []struct {
		name string
		c    entities.AlertCandidate
		want bool
	}{
		{"unassigned github past threshold", entities.AlertCandidate{Environment: entities.EnvGithub, DaysPassed: 8}, true},
		{"at threshold", entities.AlertCandidate{Environment: entities.EnvGithub, DaysPassed: 7}, false},
		{"assigned", entities.AlertCandidate{Environment: entities.EnvGithub, DaysPassed: 30, Assignees: "alice"}, false},
		{"gitea issue", entities.AlertCandidate{Environment: entities.EnvGitea, DaysPassed: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, issueQualifies(tt.c))
		})
	}
}

func TestDocQualifiesCheckpoints(t *testing.T) {
	qualifying := []int{344, 351, 358, 365, 366, 400}
	for _, days := range qualifying {
		require.True(t, docQualifies(entities.AlertCandidate{DaysPassed: days}), "days=%d", days)
	}
	silent := []int{0, 343, 345, 350, 352, 357, 359, 364}
	for _, days := range silent {
		require.False(t, docQualifies(entities.AlertCandidate{DaysPassed: days}), "days=%d", days)
	}
}

func TestDiffQualifiesTiers(t *testing.T) {
	tests := []struct {
		lines, days int
		want        bool
	}{
		{999, 5, false},
		{999, 6, true},
		{1000, 6, false},
		{1000, 10, false},
		{1000, 11, true},
		{5000, 11, true},
		{5001, 11, false},
		{5001, 15, false},
		{5001, 16, true},
	}
	for _, tt := range tests {
		got := diffQualifies(entities.AlertCandidate{LinesCount: tt.lines, DaysPassed: tt.days})
		require.Equal(t, tt.want, got, "lines=%d days=%d", tt.lines, tt.days)
	}
}

func TestAnalyzedQualifies(t *testing.T) {
	require.False(t, analyzedQualifies(entities.AlertCandidate{Label: "Analyzed", Comment: "Commented"}))
	require.True(t, analyzedQualifies(entities.AlertCandidate{Label: "Analyzed", Comment: "Not commented"}))
	require.True(t, analyzedQualifies(entities.AlertCandidate{Label: "Not labeled", Comment: "Commented"}))
	require.True(t, analyzedQualifies(entities.AlertCandidate{Label: "Not labeled", Comment: "Not commented"}))
}

func TestEvaluatorRun(t *testing.T) {
	ctx := context.Background()
	store := &storeMock{}
	spy := &notifierSpy{}

	// Compute Squad carries one orphan, one stale doc and one fresh doc.
	// Specific expectations go first so the wildcard ones do not shadow them.
	empty := []entities.AlertCandidate{}
	store.On("OrphanCandidates", ctx, entities.ZonePublic, "Compute Squad").Return([]entities.AlertCandidate{
		{Type: entities.AlertOrphan, RowID: 1, Squad: "Compute Squad", Service: "Elastic Cloud Server"},
	}, nil)
	store.On("DocCandidates", ctx, entities.ZonePublic, "Compute Squad").Return([]entities.AlertCandidate{
		{Type: entities.AlertDoc, RowID: 2, Squad: "Compute Squad", DaysPassed: 351},
		{Type: entities.AlertDoc, RowID: 3, Squad: "Compute Squad", DaysPassed: 100},
	}, nil)
	// The zone-wide rst read feeds the ecosystem pass.
	store.On("RstCandidates", ctx, entities.ZonePublic, "").Return([]entities.AlertCandidate{
		{Type: entities.AlertRst, RowID: 4, Squad: "Compute Squad", HasRst: false},
	}, nil)
	for _, method := range []string{"OrphanCandidates", "IssueCandidates", "DocCandidates", "LabelCandidates", "RstCandidates", "DiffCandidates"} {
		store.On(method, ctx, entities.ZonePublic, mock.AnythingOfType("string")).Return(empty, nil)
	}

	e := New(testLogger(t), store, spy)
	require.NoError(t, e.Run(ctx, config.ZoneSpec{Zone: entities.ZonePublic}))

	require.Len(t, spy.sent, 3)

	computeDest, _ := notify.DestinationFor("Compute Squad")
	require.Equal(t, int64(1), spy.sent[0].candidate.RowID)
	require.Equal(t, computeDest, spy.sent[0].dest)
	require.Equal(t, int64(2), spy.sent[1].candidate.RowID)

	eco := spy.sent[2]
	require.Equal(t, int64(4), eco.candidate.RowID)
	require.Equal(t, notify.Ecosystem, eco.dest)
	require.Empty(t, eco.candidate.Squad)
}
