package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrantsDefaultSlots(t *testing.T) {
	p := New("grow")
	assert.Equal(t, int32(1), p.SlotCount(18))
	assert.Equal(t, int32(1), p.SlotCount(32))
	assert.Zero(t, p.SlotCount(999))
}

func TestAddSlotCreatesAndIncrements(t *testing.T) {
	p := New("grow")
	p.AddSlot(2, 5)
	assert.Equal(t, int32(5), p.SlotCount(2))
	p.AddSlot(2, 3)
	assert.Equal(t, int32(8), p.SlotCount(2))
}

func TestAddSlotElidesAtZero(t *testing.T) {
	p := New("grow")
	p.AddSlot(18, -1)
	assert.Zero(t, p.SlotCount(18))
	for _, s := range p.Slots {
		require.NotEqual(t, int32(18), s.ItemID)
	}
}

func TestRequiredXPMatchesCurve(t *testing.T) {
	assert.Equal(t, int64(650), RequiredXP(1))
	assert.Equal(t, int64(1600), RequiredXP(2))
}

func TestMilestoneTitleKnownAndUnknown(t *testing.T) {
	title, ok := MilestoneTitle(100)
	require.True(t, ok)
	assert.Equal(t, "Tunneler", title)

	_, ok = MilestoneTitle(99)
	assert.False(t, ok)
}

func TestFarmXPTable(t *testing.T) {
	xp, ok := FarmXP(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), xp)

	xp, ok = FarmXP(880)
	require.True(t, ok)
	assert.Equal(t, int64(3), xp)

	_, ok = FarmXP(999)
	assert.False(t, ok)
}
