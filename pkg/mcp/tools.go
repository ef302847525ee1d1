package mcp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/pario-ai/vndb-mcp/pkg/logging"
	"github.com/pario-ai/vndb-mcp/pkg/metrics"
	"github.com/pario-ai/vndb-mcp/pkg/normalize"
	"github.com/pario-ai/vndb-mcp/pkg/notes"
	"github.com/pario-ai/vndb-mcp/pkg/query"
)

// Tool names.
const (
	ToolAddNote    = "add-note"
	ToolSearchVN   = "search-vn"
	ToolGetDetails = "get-vn-details"
)

// Dispatcher errors. Both indicate protocol misuse and surface as JSON-RPC
// errors rather than tool results.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrMissingArguments = errors.New("missing arguments")
)

// ToolRequest is one tool invocation. A nil Arguments map means the caller
// sent no argument bag at all.
type ToolRequest struct {
	Name      string
	Arguments map[string]any
}

// Querier runs the VNDB query operations.
type Querier interface {
	Search(ctx context.Context, args map[string]any) query.Result
	GetDetails(ctx context.Context, args map[string]any) query.Result
}

// Notifier is told when the set of note resources changes.
type Notifier interface {
	NotifyResourceListChanged()
}

// noteAdded is the add-note success payload.
type noteAdded struct {
	Message string `json:"message"`
}

// allTools is the list of tool definitions exposed via tools/list.
var allTools = []ToolDefinition{
	{
		Name:        ToolAddNote,
		Description: "Add a new note",
		InputSchema: normalize.RawSchema(normalize.AddNoteSchema),
	},
	{
		Name:        ToolSearchVN,
		Description: "Search visual novels on VNDB by title or keyword",
		InputSchema: normalize.RawSchema(normalize.SearchSchema),
	},
	{
		Name:        ToolGetDetails,
		Description: "Get detailed information about a visual novel by its VNDB ID",
		InputSchema: normalize.RawSchema(normalize.DetailSchema),
	},
}

// Dispatcher routes tool requests to the query service and the note store.
type Dispatcher struct {
	queries  Querier
	notes    notes.Store
	notifier Notifier
	log      *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(q Querier, store notes.Store, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{queries: q, notes: store, log: log}
}

// SetNotifier registers the receiver of resource list changes.
func (d *Dispatcher) SetNotifier(n Notifier) {
	d.notifier = n
}

// Tools returns the tool definitions.
func (d *Dispatcher) Tools() []ToolDefinition {
	return allTools
}

// Dispatch runs one tool and returns its JSON text. Query failures are
// rendered as {error, details} text; only ErrUnknownTool,
// ErrMissingArguments and note store failures are returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, req ToolRequest) (string, error) {
	log := logging.FromContext(ctx, d.log).With("tool", req.Name)

	switch req.Name {
	case ToolSearchVN, ToolGetDetails, ToolAddNote:
	default:
		metrics.ToolCalls.WithLabelValues("unknown", "rejected").Inc()
		return "", errors.Wrapf(ErrUnknownTool, "%s", req.Name)
	}
	if req.Arguments == nil {
		metrics.ToolCalls.WithLabelValues(req.Name, "rejected").Inc()
		return "", errors.Wrapf(ErrMissingArguments, "%s", req.Name)
	}

	var result query.Result
	switch req.Name {
	case ToolAddNote:
		return d.addNote(req.Arguments, log)
	case ToolSearchVN:
		result = d.queries.Search(ctx, req.Arguments)
	case ToolGetDetails:
		result = d.queries.GetDetails(ctx, req.Arguments)
	}

	status := "ok"
	if !result.OK() {
		status = "error"
		log.Debug("tool returned error", "kind", result.Err.Kind, "error", result.Err.Message)
	}
	metrics.ToolCalls.WithLabelValues(req.Name, status).Inc()
	return renderJSON(result.Envelope())
}

func (d *Dispatcher) addNote(args map[string]any, log *slog.Logger) (string, error) {
	in, err := normalize.Note(args)
	if err != nil {
		metrics.ToolCalls.WithLabelValues(ToolAddNote, "rejected").Inc()
		return "", errors.Mark(errors.Wrap(err, ToolAddNote), ErrMissingArguments)
	}
	if err := d.notes.Put(in.Name, in.Content); err != nil {
		metrics.ToolCalls.WithLabelValues(ToolAddNote, "error").Inc()
		return "", errors.Wrap(err, "store note")
	}
	if d.notifier != nil {
		d.notifier.NotifyResourceListChanged()
	}
	metrics.ToolCalls.WithLabelValues(ToolAddNote, "ok").Inc()
	log.Info("note added", "name", in.Name)
	return renderJSON(noteAdded{
		Message: fmt.Sprintf("Added note '%s' with content: %s", in.Name, in.Content),
	})
}
