package triggers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldConsolidateShort_Cascade(t *testing.T) {
	trigger := NewTrigger(DefaultConfig())

	_, should := trigger.ShouldConsolidateShort(0, 0)
	assert.False(t, should)

	priority, should := trigger.ShouldConsolidateShort(DefaultConfig().ShortTermTokenThreshold, 0)
	assert.True(t, should)
	assert.Equal(t, PriorityHigh, priority)

	priority, should = trigger.ShouldConsolidateShort(DefaultConfig().ShortTermTokenThreshold*criticalMultiple, 0)
	assert.True(t, should)
	assert.Equal(t, PriorityCritical, priority)

	priority, should = trigger.ShouldConsolidateShort(0, DefaultConfig().ShortTermMessageThreshold)
	assert.True(t, should)
	assert.Equal(t, PriorityHigh, priority)
}

func TestShouldConsolidateMedium(t *testing.T) {
	trigger := NewTrigger(DefaultConfig())

	_, should := trigger.ShouldConsolidateMedium(0)
	assert.False(t, should)

	priority, should := trigger.ShouldConsolidateMedium(DefaultConfig().MediumTermSummaryThreshold)
	assert.True(t, should)
	assert.Equal(t, PriorityMedium, priority)
}

func TestPriority_TotalOrder(t *testing.T) {
	assert.Greater(t, PriorityCritical, PriorityHigh)
	assert.Greater(t, PriorityHigh, PriorityMedium)
	assert.Greater(t, PriorityMedium, PriorityLow)
}

func TestPriority_String(t *testing.T) {
	assert.Equal(t, "critical", PriorityCritical.String())
	assert.Equal(t, "high", PriorityHigh.String())
	assert.Equal(t, "medium", PriorityMedium.String())
	assert.Equal(t, "low", PriorityLow.String())
}

func TestTokenBudget_NoCapNeverExceeds(t *testing.T) {
	b := TokenBudget{ShortTermTokens: 1_000_000}
	assert.False(t, b.ExceedsBudget())
	assert.Equal(t, uint64(0), b.Remaining())
	assert.Equal(t, float64(0), b.UsagePercentage())
}

func TestTokenBudget_WithCap(t *testing.T) {
	cap := uint64(100)
	b := TokenBudget{MaxTotalTokens: &cap}
	b = b.UpdateShortTerm(40).UpdateMediumTerm(30).UpdateLongTerm(10)

	assert.Equal(t, uint64(80), b.Total())
	assert.False(t, b.ExceedsBudget())
	assert.Equal(t, uint64(20), b.Remaining())
	assert.Equal(t, float64(80), b.UsagePercentage())

	b = b.UpdateShortTerm(90)
	assert.True(t, b.ExceedsBudget())
	assert.Equal(t, uint64(0), b.Remaining())
}
