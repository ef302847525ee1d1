// Package normalize validates and normalizes tool argument bags. It never
// touches the network or the cache.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pario-ai/vndb-mcp/pkg/models"
)

// Search limit bounds.
const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 50
)

// ErrNoteFields is returned by Note when name or content is missing.
var ErrNoteFields = errors.New("missing name or content")

var vnIDPattern = regexp.MustCompile(`^v\d+$`)

// SearchArgs are normalized search-vn arguments.
type SearchArgs struct {
	Query string
	Limit int
}

// DetailArgs are normalized get-vn-details arguments.
type DetailArgs struct {
	ID string
}

// NoteArgs are add-note arguments.
type NoteArgs struct {
	Name    string
	Content string
}

// Search validates search-vn arguments. The query is trimmed and the limit
// defaults to DefaultLimit and is clamped into [MinLimit, MaxLimit].
func Search(args map[string]any) (SearchArgs, error) {
	if isAbsent(args, "query") {
		return SearchArgs{}, invalid("missing query", "")
	}
	args = withoutNull(args, "limit")
	if err := searchSchema.Validate(toJSONValue(args)); err != nil {
		return SearchArgs{}, schemaError("search-vn", err)
	}

	query := strings.TrimSpace(args["query"].(string))
	if query == "" {
		return SearchArgs{}, invalid("missing query", "")
	}

	limit := DefaultLimit
	if raw, ok := args["limit"]; ok {
		n, ok := toInt(raw)
		if !ok {
			return SearchArgs{}, invalid("limit must be an integer", fmt.Sprintf("got %v", raw))
		}
		limit = clamp(n, MinLimit, MaxLimit)
	}
	return SearchArgs{Query: query, Limit: limit}, nil
}

// DetailID validates get-vn-details arguments. The id must look like v17.
func DetailID(args map[string]any) (DetailArgs, error) {
	if isAbsent(args, "id") {
		return DetailArgs{}, invalid("missing id", "")
	}
	if err := detailSchema.Validate(toJSONValue(args)); err != nil {
		return DetailArgs{}, schemaError("get-vn-details", err)
	}

	id := strings.TrimSpace(args["id"].(string))
	if id == "" {
		return DetailArgs{}, invalid("missing id", "")
	}
	if !vnIDPattern.MatchString(id) {
		return DetailArgs{}, invalid(
			fmt.Sprintf("invalid id %q: expected the letter 'v' followed by digits, e.g. v17", id), "")
	}
	return DetailArgs{ID: id}, nil
}

// Note validates add-note arguments. Both fields must be non-empty strings.
func Note(args map[string]any) (NoteArgs, error) {
	if isAbsent(args, "name") || isAbsent(args, "content") {
		return NoteArgs{}, ErrNoteFields
	}
	if err := addNoteSchema.Validate(toJSONValue(args)); err != nil {
		return NoteArgs{}, errors.WithSecondaryError(ErrNoteFields, err)
	}
	name, _ := args["name"].(string)
	content, _ := args["content"].(string)
	if name == "" || content == "" {
		return NoteArgs{}, ErrNoteFields
	}
	return NoteArgs{Name: name, Content: content}, nil
}

func invalid(msg, details string) *models.QueryError {
	return &models.QueryError{Kind: models.KindInvalidArgument, Message: msg, Details: details}
}

func schemaError(tool string, err error) *models.QueryError {
	details := err.Error()
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		details = leafMessage(ve)
	}
	return invalid("invalid arguments for "+tool, details)
}

// leafMessage returns the deepest validation cause, which names the
// offending property.
func leafMessage(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	loc := ve.InstanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + ve.Message
}

func isAbsent(args map[string]any, key string) bool {
	v, ok := args[key]
	return !ok || v == nil
}

func withoutNull(args map[string]any, key string) map[string]any {
	if v, ok := args[key]; !ok || v != nil {
		return args
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if k != key {
			out[k] = v
		}
	}
	return out
}

// toJSONValue converts the bag to map[string]any as the validator expects;
// a nil map validates as an empty object.
func toJSONValue(args map[string]any) any {
	if args == nil {
		return map[string]any{}
	}
	return map[string]any(args)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return clampInt64(n), true
	case float64:
		if n != math.Trunc(n) || math.IsNaN(n) {
			return 0, false
		}
		if n > math.MaxInt32 {
			return math.MaxInt32, true
		}
		if n < math.MinInt32 {
			return math.MinInt32, true
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return clampInt64(i), true
	default:
		return 0, false
	}
}

func clampInt64(n int64) int {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	if n < math.MinInt32 {
		return math.MinInt32
	}
	return int(n)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
