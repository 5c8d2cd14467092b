package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{PromptCooldown: -time.Second}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"window", "admit limit", "block duration", "prompt cooldown", "ephemeral ttl", "high water mark", "stale threshold"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestVerdictAndResultNames(t *testing.T) {
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "rejected_blocked", RejectedBlocked.String())
	assert.Equal(t, "rejected_newly_blocked", RejectedNewlyBlocked.String())
	assert.Equal(t, "prompt_suppressed", PromptSuppressed.String())
	assert.Equal(t, "non_member", NonMember.String())
	assert.True(t, Admission{Verdict: Accepted}.Allowed())
	assert.False(t, Admission{Verdict: RejectedBlocked}.Allowed())
}
