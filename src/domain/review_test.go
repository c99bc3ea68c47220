package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReviewStateTransitions(t *testing.T) {
	t.Parallel()

	allowed := map[ReviewState][]ReviewState{
		ReviewPending:   {ReviewApproved, ReviewRejected, ReviewEscalated},
		ReviewRejected:  {ReviewPending, ReviewEscalated},
		ReviewApproved:  {},
		ReviewEscalated: {},
	}
	all := []ReviewState{ReviewPending, ReviewApproved, ReviewRejected, ReviewEscalated}

	for from, tos := range allowed {
		for _, to := range all {
			expected := false
			for _, allowedTo := range tos {
				if allowedTo == to {
					expected = true
				}
			}
			assert.Equal(t, expected, from.CanTransition(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, ReviewApproved.Terminal())
	assert.True(t, ReviewEscalated.Terminal())
	assert.False(t, ReviewRejected.Terminal())
	assert.True(t, ReviewRejected.Active())
}

func TestBlockingFlags(t *testing.T) {
	t.Parallel()

	// given
	artifact := TestArtifact{QualityFlags: []QualityFlag{FlagLowQualitySpec, FlagQualityConflict}}

	// when
	blocking := artifact.BlockingFlags()

	// then
	assert.Equal(t, []QualityFlag{FlagQualityConflict}, blocking)
	assert.True(t, artifact.HasFlag(FlagLowQualitySpec))
	assert.False(t, artifact.HasFlag(FlagDuplicateCase))
}
