package radar_test

import (
	"testing"
	"time"

	"github.com/chen893/radar"
	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_CanTransition(t *testing.T) {
	t.Parallel()

	assert.True(t, radar.TaskPending.CanTransition(radar.TaskExtracting))
	assert.True(t, radar.TaskExtracting.CanTransition(radar.TaskAnalyzing))
	assert.True(t, radar.TaskAnalyzing.CanTransition(radar.TaskCompleted))
	assert.True(t, radar.TaskPending.CanTransition(radar.TaskFailed))
	assert.False(t, radar.TaskAnalyzing.CanTransition(radar.TaskExtracting))
	assert.False(t, radar.TaskCompleted.CanTransition(radar.TaskFailed))
	assert.False(t, radar.TaskFailed.CanTransition(radar.TaskPending))
}

func TestTask_Clone(t *testing.T) {
	t.Parallel()

	now := time.Now()
	orig := &radar.Task{
		ID:        "t1",
		Status:    radar.TaskCompleted,
		StartedAt: &now,
		Result:    &radar.TaskResult{Demands: []radar.DemandCandidate{{ID: "d1"}}},
	}

	c := orig.Clone()
	c.Result.Demands[0].ID = "changed"
	*c.StartedAt = now.Add(time.Hour)

	assert.Equal(t, "d1", orig.Result.Demands[0].ID)
	assert.Equal(t, now, *orig.StartedAt)
}

func TestAnalysisResult_Validate(t *testing.T) {
	t.Parallel()

	ok := &radar.AnalysisResult{Demands: []radar.DemandCandidate{{Solution: radar.Solution{Title: "A"}}}}
	assert.NoError(t, ok.Validate())

	bad := &radar.AnalysisResult{Demands: []radar.DemandCandidate{{}}}
	assert.Equal(t, radar.EPARSE, radar.ErrorCode(bad.Validate()))
}
