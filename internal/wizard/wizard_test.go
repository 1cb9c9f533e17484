package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogops/internal/errors"
)

// TestStartSortsByPriority tests the (critical desc, score asc) queue order
func TestStartSortsByPriority(t *testing.T) {
	m := NewManager(0)
	state, err := m.Start([]Item{
		{RowNum: 1, CriticalMissing: 2, Score: 40},
		{RowNum: 2, CriticalMissing: 0, Score: 10},
		{RowNum: 3, CriticalMissing: 2, Score: 20},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, state.Current.RowNum, "two critical missing, lowest score first")

	state, err = m.Advance()
	require.NoError(t, err)
	assert.Equal(t, 1, state.Current.RowNum)

	state, err = m.Advance()
	require.NoError(t, err)
	assert.Equal(t, 2, state.Current.RowNum)
}

// TestMaxQueueKeepsPriorityItems tests that the cap trims after sorting
func TestMaxQueueKeepsPriorityItems(t *testing.T) {
	m := NewManager(2)
	state, err := m.Start([]Item{
		{RowNum: 1, CriticalMissing: 0, Score: 90},
		{RowNum: 2, CriticalMissing: 3, Score: 10},
		{RowNum: 3, CriticalMissing: 1, Score: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, state.QueueLen)
	assert.Equal(t, 2, state.Current.RowNum)

	state, err = m.Advance()
	require.NoError(t, err)
	assert.Equal(t, 3, state.Current.RowNum, "lowest-priority item was trimmed")
}

// TestStartRequiresQueue tests the non-empty entry condition
func TestStartRequiresQueue(t *testing.T) {
	m := NewManager(0)
	_, err := m.Start(nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeValidationError, errors.GetCode(err))
	assert.False(t, m.Active())
}

// TestAdvancePastEndCompletes tests the terminal sub-state
func TestAdvancePastEndCompletes(t *testing.T) {
	m := NewManager(0)
	_, err := m.Start([]Item{{RowNum: 1}})
	require.NoError(t, err)

	state, err := m.Advance()
	require.NoError(t, err)
	assert.True(t, state.Complete)
	assert.Equal(t, 0, state.Index, "index does not run off the queue")
	assert.True(t, m.Active(), "complete is a sub-state, not an exit")
}

// TestRetreatBounds tests stepping back and the head-of-queue guard
func TestRetreatBounds(t *testing.T) {
	m := NewManager(0)
	_, err := m.Start([]Item{{RowNum: 1}, {RowNum: 2}})
	require.NoError(t, err)

	_, err = m.Retreat()
	require.Error(t, err, "retreat at index 0 is invalid")

	_, err = m.Advance()
	require.NoError(t, err)
	state, err := m.Retreat()
	require.NoError(t, err)
	assert.Equal(t, 0, state.Index)
}

// TestRecordFixDoesNotAdvance tests fix counting without auto-advance
func TestRecordFixDoesNotAdvance(t *testing.T) {
	m := NewManager(0)
	_, err := m.Start([]Item{{RowNum: 1}, {RowNum: 2}})
	require.NoError(t, err)

	state, err := m.RecordFix()
	require.NoError(t, err)
	assert.Equal(t, 1, state.FixedCount)
	assert.Equal(t, 0, state.Index, "operator advances explicitly")

	state, err = m.RecordFix()
	require.NoError(t, err)
	assert.Equal(t, 2, state.FixedCount)
}

// TestSingleSession tests that starting anew replaces the active session
func TestSingleSession(t *testing.T) {
	m := NewManager(0)
	first, err := m.Start([]Item{{RowNum: 1}})
	require.NoError(t, err)
	_, err = m.RecordFix()
	require.NoError(t, err)

	second, err := m.Start([]Item{{RowNum: 9}})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 0, second.FixedCount, "no partial-completion persistence")
	assert.Equal(t, 9, second.Current.RowNum)
}

// TestExitDiscardsState tests exit from any position
func TestExitDiscardsState(t *testing.T) {
	m := NewManager(0)
	_, err := m.Start([]Item{{RowNum: 1}, {RowNum: 2}})
	require.NoError(t, err)

	m.Exit()
	assert.False(t, m.Active())
	_, err = m.Current()
	assert.Equal(t, errors.CodeWizardInactive, errors.GetCode(err))
}
