package token

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedResponse indicates a success status with an unparseable body.
var ErrMalformedResponse = errors.New("provider returned a malformed token response")

// ProviderError is a non-success response from the token endpoint. The raw
// body is carried through unmodified for operator diagnosis; it originates
// from the provider and never contains the client secret.
type ProviderError struct {
	Status int
	Body   []byte
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected grant with status %d", e.Status)
}

// Retryable reports whether a retry is reasonable. Provider rejections are
// generally final, except 5xx.
func (e *ProviderError) Retryable() bool {
	return e.Status >= 500
}

// Details returns the provider body as JSON: verbatim when it already is
// JSON, wrapped as a JSON string otherwise.
func (e *ProviderError) Details() json.RawMessage {
	if json.Valid(e.Body) && len(e.Body) > 0 {
		return json.RawMessage(e.Body)
	}
	wrapped, err := json.Marshal(string(e.Body))
	if err != nil {
		return json.RawMessage(`""`)
	}
	return json.RawMessage(wrapped)
}

// TransportError is a network-level failure reaching the provider: timeout,
// DNS, connection reset. Distinguished from ProviderError so callers can
// decide whether a retry is reasonable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure reaching provider: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
