package normalize

import (
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Tool input schemas. They are advertised through tools/list and used to
// type-check argument bags before normalization.
const (
	AddNoteSchema = `{
  "type": "object",
  "properties": {
    "name": {"type": "string"},
    "content": {"type": "string"}
  },
  "required": ["name", "content"]
}`

	SearchSchema = `{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Title or keyword to search for"},
    "limit": {"type": "integer", "description": "Maximum number of results (default 10, range 1-50)"}
  },
  "required": ["query"]
}`

	DetailSchema = `{
  "type": "object",
  "properties": {
    "id": {"type": "string", "description": "Visual novel ID, for example v17"}
  },
  "required": ["id"]
}`
)

var (
	addNoteSchema = jsonschema.MustCompileString("add-note.json", AddNoteSchema)
	searchSchema  = jsonschema.MustCompileString("search-vn.json", SearchSchema)
	detailSchema  = jsonschema.MustCompileString("get-vn-details.json", DetailSchema)
)

// RawSchema returns schema as a json.RawMessage for embedding in protocol
// messages.
func RawSchema(schema string) json.RawMessage {
	return json.RawMessage(schema)
}
