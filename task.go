package radar

import "time"

// TaskStatus is the lifecycle state of an analysis task.
type TaskStatus string

// Task states. Tasks only move forward except on retry, which resets them
// to TaskPending.
const (
	TaskPending    TaskStatus = "pending"
	TaskExtracting TaskStatus = "extracting"
	TaskAnalyzing  TaskStatus = "analyzing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "error"
)

// Terminal reports whether s is completed or error.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// rank orders non-terminal states for forward-only transitions.
func (s TaskStatus) rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskExtracting:
		return 1
	case TaskAnalyzing:
		return 2
	case TaskCompleted, TaskFailed:
		return 3
	}
	return -1
}

// CanTransition reports whether a task may move from s to next without
// a retry.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	if s.Terminal() {
		return false
	}
	return next.rank() > s.rank()
}

// TaskSource describes the page a task analyzes.
type TaskSource struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Platform Platform `json:"platform"`
	Favicon  string   `json:"favicon,omitempty"`
}

// TaskResult is the payload of a completed task.
type TaskResult struct {
	ExtractionID string            `json:"extractionId"`
	Summary      string            `json:"summary"`
	Demands      []DemandCandidate `json:"demands"`
}

// Task tracks one analysis attempt. Result and Error are never both set.
type Task struct {
	ID          string      `json:"id"`
	Source      TaskSource  `json:"source"`
	Status      TaskStatus  `json:"status"`
	Progress    int         `json:"progress,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	StartedAt   *time.Time  `json:"startedAt,omitempty"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	Result      *TaskResult `json:"result,omitempty"`
	Error       *TaskError  `json:"error,omitempty"`
}

// Clone returns a deep copy safe to hand to other goroutines.
func (t *Task) Clone() *Task {
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	if t.Result != nil {
		r := *t.Result
		r.Demands = append([]DemandCandidate(nil), t.Result.Demands...)
		c.Result = &r
	}
	if t.Error != nil {
		e := *t.Error
		c.Error = &e
	}
	return &c
}
