package models

// ErrorKind classifies a failed query.
type ErrorKind string

const (
	// KindInvalidArgument means the caller sent missing or malformed input.
	KindInvalidArgument ErrorKind = "InvalidArgument"
	// KindNotFound means VNDB confirmed the record does not exist.
	KindNotFound ErrorKind = "NotFound"
	// KindConnection means VNDB could not be reached.
	KindConnection ErrorKind = "Connection"
	// KindTimeout means the request to VNDB timed out.
	KindTimeout ErrorKind = "Timeout"
	// KindUnexpected covers every other failure.
	KindUnexpected ErrorKind = "Unexpected"
)

// Transient reports whether a retry could succeed later.
func (k ErrorKind) Transient() bool {
	return k == KindConnection || k == KindTimeout
}

// QueryError is a classified query failure. It is a value, never a panic, and
// is rendered into the same envelope as successful payloads.
type QueryError struct {
	Kind    ErrorKind
	Message string
	// Details carries diagnostics such as the original error's type and text.
	Details string
}

func (e *QueryError) Error() string {
	if e.Details != "" {
		return string(e.Kind) + ": " + e.Message + " (" + e.Details + ")"
	}
	return string(e.Kind) + ": " + e.Message
}

// ErrorEnvelope is the JSON shape of a failed tool result.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Envelope converts the error into its wire shape.
func (e *QueryError) Envelope() ErrorEnvelope {
	return ErrorEnvelope{Error: e.Message, Details: e.Details}
}
