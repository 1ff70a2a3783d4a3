package radar

import (
	"context"
	"encoding/json"
)

// MessageType tags a request sent to the coordinator.
type MessageType string

// Commands accepted by the coordinator.
const (
	MsgAnalyzeCurrentPage MessageType = "analyze-current-page"
	MsgQuickSave          MessageType = "quick-save"
	MsgBatchAnalyzeStart  MessageType = "batch-analyze-start"
	MsgTestLLMConnection  MessageType = "test-llm-connection"
	MsgGetConfig          MessageType = "get-config"
	MsgUpdateConfig       MessageType = "update-config"
	MsgSaveDemands        MessageType = "save-demands"
	MsgGetDemands         MessageType = "get-demands"
	MsgGetDemand          MessageType = "get-demand"
	MsgSearchDemands      MessageType = "search-demands"
	MsgUpdateDemand       MessageType = "update-demand"
	MsgDeleteDemand       MessageType = "delete-demand"
	MsgGetExtractions     MessageType = "get-extractions"
	MsgGetExtraction      MessageType = "get-extraction"
	MsgDeleteExtraction   MessageType = "delete-extraction"
	MsgGetStorageUsage    MessageType = "get-storage-usage"
	MsgExportData         MessageType = "export-data"
	MsgClearData          MessageType = "clear-data"
	MsgDedupAnalyze       MessageType = "dedup-analyze"
	MsgDedupConfirm       MessageType = "dedup-confirm"
	MsgGetPageInfo        MessageType = "get-page-info"
	MsgAuthorizeSite      MessageType = "authorize-site"
	MsgRevokeSite         MessageType = "revoke-site"
	MsgGetTasks           MessageType = "get-tasks"
	MsgRetryTask          MessageType = "retry-task"
	MsgCancelTask         MessageType = "cancel-task"
	MsgClearTasks         MessageType = "clear-tasks"
	MsgAnalyzeExtraction  MessageType = "analyze-extraction"
)

// Message is a request from a foreground context.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response answers a Message.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// EventType tags a broadcast.
type EventType string

// Broadcast event types.
const (
	EventTaskCreated       EventType = "task-created"
	EventTaskStatusUpdated EventType = "task-status-updated"
	EventTaskCompleted     EventType = "task-completed"
	EventTaskError         EventType = "task-error"
	EventBatchProgress     EventType = "batch-progress"
	EventBatchComplete     EventType = "batch-complete"
	EventPageInfoUpdated   EventType = "page-info-updated"
)

// Event is a fire-and-forget notification to every listening context.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

// Broadcaster delivers events to foreground contexts.
type Broadcaster interface {
	// Broadcast delivers ev to current listeners. Having no listener is
	// not an error.
	Broadcast(ctx context.Context, ev Event) error
}

// PageInfo describes how the coordinator treats a page.
type PageInfo struct {
	URL                string   `json:"url"`
	Platform           Platform `json:"platform"`
	Allowed            bool     `json:"allowed"`
	Reason             string   `json:"reason,omitempty"`
	KnownPlatform      bool     `json:"knownPlatform"`
	NeedsAuthorization bool     `json:"needsAuthorization"`
}

// BatchProgress reports batch counters. Completed and Failed never decrease
// during a batch. Running drops as each item finishes.
type BatchProgress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Running   int `json:"running"`
}

// Dispatcher routes messages to the registered command handlers.
type Dispatcher interface {
	// Request runs the handler for msg.Type. Failures are reported in the
	// Response, never as a Go error.
	Request(ctx context.Context, msg Message) Response
}

// EventSource lets listeners receive broadcasts.
type EventSource interface {
	// Subscribe returns a channel of events and a function that ends the
	// subscription. Events are dropped for a listener whose buffer is full.
	Subscribe(buffer int) (<-chan Event, func())
}
