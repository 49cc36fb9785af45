package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/entities"
)

func TestExtractRef(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
		ok   bool
	}{
		{"simple", "This is an automatically created Pull Request for #1056.", 1056, true},
		{"first wins", "see #12 and later #99", 12, true},
		{"no token", "no reference here", 0, false},
		{"empty", "", 0, false},
		{"hash without digits", "see # 42", 42, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractRef(tt.body)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClassifyTotality(t *testing.T) {
	states := []entities.PRState{entities.StateOpen, entities.StateClosed}
	flags := []bool{false, true}

	for _, cs := range states {
		for _, cm := range flags {
			for _, ps := range states {
				for _, pm := range flags {
					child := entities.PullRequestRecord{State: cs, Merged: cm}
					class := Classify(child, ps, pm)
					require.Contains(t,
						[]entities.PairClass{entities.PairOpen, entities.PairOrphaned, entities.PairResolved},
						class, "child=%v/%v parent=%v/%v", cs, cm, ps, pm)
				}
			}
		}
	}
}

func TestClassify(t *testing.T) {
	open := entities.PullRequestRecord{State: entities.StateOpen}

	require.Equal(t, entities.PairOpen, Classify(open, entities.StateOpen, false))
	require.Equal(t, entities.PairOrphaned, Classify(open, entities.StateClosed, true))

	closedMerged := entities.PullRequestRecord{State: entities.StateClosed, Merged: true}
	require.Equal(t, entities.PairResolved, Classify(closedMerged, entities.StateClosed, true))
	require.Equal(t, entities.PairOrphaned, Classify(closedMerged, entities.StateClosed, false))
	require.Equal(t, entities.PairOrphaned, Classify(closedMerged, entities.StateOpen, false))
}

func TestExtractGiteaParent(t *testing.T) {
	body := "This is an automatically created Pull Request for changes to docs merged under " +
		"https://gitea.example.com/docs/ecs/pulls/77."

	url, repo, number, ok := extractGiteaParent(body)
	require.True(t, ok)
	require.Equal(t, "ecs", repo)
	require.Equal(t, 77, number)
	require.Equal(t, "https://gitea.example.com/docs/ecs/pulls/77", url,
		"sentence-final period must not leak into the URL")

	_, _, _, ok = extractGiteaParent("no reference")
	require.False(t, ok)
}
