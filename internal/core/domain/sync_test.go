package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    SyncState
		terminal bool
	}{
		{SyncUnsynced, false},
		{SyncQueried, false},
		{SyncCreate, false},
		{SyncUpdate, false},
		{SyncSkip, false},
		{SyncDone, true},
		{SyncFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.state.IsTerminal())
		})
	}
}

func TestSyncReport_Add(t *testing.T) {
	var report SyncReport

	report.Add(SyncResult{Decision: DecisionCreate, State: SyncDone})
	report.Add(SyncResult{Decision: DecisionCreate, State: SyncDone})
	report.Add(SyncResult{Decision: DecisionUpdate, State: SyncDone})
	report.Add(SyncResult{Decision: DecisionSkip, State: SyncDone})
	report.Add(SyncResult{Decision: DecisionCreate, State: SyncFailed, Err: errors.New("boom")})
	report.Add(SyncResult{Decision: DecisionNone, State: SyncFailed, Err: ErrIO})

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 6, report.Total())
	assert.True(t, report.HasFailures())
}

func TestSyncReport_NoFailures(t *testing.T) {
	var report SyncReport
	report.Add(SyncResult{Decision: DecisionSkip, State: SyncDone})

	assert.False(t, report.HasFailures())
}
