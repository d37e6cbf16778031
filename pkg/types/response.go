// Package types holds the wire envelopes every endpoint responds with.
package types

// SuccessEnvelope wraps every 2xx payload under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Details carries per-field
// validation messages and is omitted for everything else.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Success wraps data in the standard envelope.
func Success(data any) SuccessEnvelope {
	return SuccessEnvelope{Data: data}
}
