package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

// SuccessCode is the envelope code for a successful call.
const SuccessCode = 200

const fallbackFailureMessage = "Request failed"

// Kind classifies a completed call.
type Kind uint8

const (
	KindEnvelopeSuccess Kind = iota
	KindEnvelopeFailure
	KindRawSuccess
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindEnvelopeSuccess:
		return "envelope_success"
	case KindEnvelopeFailure:
		return "envelope_failure"
	case KindRawSuccess:
		return "raw_success"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Response is the outcome of a successful call.
//
// For an envelope success Data holds the "data" member; for a raw success it
// holds the body unchanged.
type Response struct {
	Kind      Kind
	Status    int
	Code      int
	Message   string
	Data      json.RawMessage
	Header    http.Header
	RequestID string

	// Pagination is the envelope's "pagination" member, present on list
	// endpoints.
	Pagination json.RawMessage
}

// Decode unmarshals Data into v. A nil, empty or null payload leaves v
// untouched.
func (r *Response) Decode(v any) error {
	if r == nil || v == nil {
		return nil
	}
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}

type envelope struct {
	Code       json.RawMessage `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination"`
}

// classify turns a received status and body into a Response or an
// ApplicationError. The transport-failure branch is handled by the caller.
func classify(status int, body []byte) (*Response, error) {
	env, ok := parseEnvelope(body)
	if ok {
		code, numeric := envelopeCode(env.Code)
		if numeric && code == SuccessCode && is2xx(status) {
			return &Response{
				Kind:       KindEnvelopeSuccess,
				Status:     status,
				Code:       code,
				Message:    env.Message,
				Data:       env.Data,
				Pagination: env.Pagination,
			}, nil
		}
		msg := env.Message
		if msg == "" {
			msg = fallbackFailureMessage
		}
		if numeric && code == SuccessCode {
			code = status
		}
		return nil, &ApplicationError{Code: code, Message: msg, HTTPStatus: status}
	}

	if !is2xx(status) {
		return nil, &ApplicationError{
			Code:       status,
			Message:    fmt.Sprintf("Request failed with status code %d", status),
			HTTPStatus: status,
		}
	}
	return &Response{Kind: KindRawSuccess, Status: status, Data: json.RawMessage(body)}, nil
}

// parseEnvelope reports whether body is a JSON object carrying a "code"
// member.
func parseEnvelope(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	if env.Code == nil {
		return envelope{}, false
	}
	return env, true
}

func envelopeCode(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(v), true
}

func is2xx(status int) bool {
	return status >= 200 && status < 300
}
