package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped only on breaking changes to the envelope shape.
// Clients check this field before anything else.
const envelopeVersion = "1"

// EnvelopeError is the error half of a response envelope.
type EnvelopeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the uniform wire shape of every JSON response:
// {"v":"1","success":true,"data":...} on success,
// {"v":"1","success":false,"error":{...}} on failure.
type Envelope struct {
	V       string         `json:"v"`
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *EnvelopeError `json:"error,omitempty"`
}

// EnvelopeTransformer wraps every huma response body in an Envelope.
// Registered on the huma config so handlers return plain bodies.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error: &EnvelopeError{
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			},
		}, nil
	}

	// huma.ErrorModel shows up for errors raised before our error handler,
	// e.g. request parsing failures inside huma itself.
	if errModel, ok := v.(*huma.ErrorModel); ok {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error: &EnvelopeError{
				Code:    statusToCode(errModel.Status),
				Message: errModel.Detail,
			},
		}, nil
	}

	if strings.HasPrefix(status, "4") || strings.HasPrefix(status, "5") {
		return &Envelope{
			V:       envelopeVersion,
			Success: false,
			Error: &EnvelopeError{
				Code:    statusStringToCode(status),
				Message: "request failed",
			},
		}, nil
	}

	return &Envelope{
		V:       envelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

func statusStringToCode(status string) string {
	switch status {
	case "400", "422":
		return statusToCode(400)
	case "401":
		return statusToCode(401)
	case "403":
		return statusToCode(403)
	case "404":
		return statusToCode(404)
	case "409":
		return statusToCode(409)
	case "413":
		return statusToCode(413)
	default:
		return statusToCode(500)
	}
}
