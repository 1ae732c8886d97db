package inference

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the circuit breaker is open and
// requests are not being forwarded to the model.
var ErrUnavailable = errors.New("inference: gateway unavailable")

// Blob is a binary evidence attachment (a photo) sent with a request.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Request is a single structured-output inference call. The prompt must
// instruct the model to answer with a JSON object; Evidence images are
// attached after the prompt. WebContext carries pre-fetched listing
// snippets the prompt builder appends for market-aware stages.
type Request struct {
	Prompt     string
	Evidence   []Blob
	WebContext []string
}

// Gateway sends prompts to an inference backend and returns the decoded
// JSON object. Implementations must be safe for concurrent use: the
// component stage fans out one call per submission.
type Gateway interface {
	Generate(ctx context.Context, req Request) (map[string]any, error)
}
