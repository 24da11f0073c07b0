package rollup

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
)

// Status is the verdict reported to the coordinator on the next finish call.
type Status string

const (
	StatusAccept Status = "accept"
	StatusReject Status = "reject"
)

// RequestType tags a coordinator request.
type RequestType string

const (
	AdvanceState RequestType = "advance_state"
	InspectState RequestType = "inspect_state"
)

// Request is a pending coordinator request. Type holds the raw tag, which may
// be neither AdvanceState nor InspectState.
type Request struct {
	Type RequestType
	Data json.RawMessage
}

// Metadata accompanies advance requests.
type Metadata struct {
	MsgSender   string `json:"msg_sender"`
	EpochIndex  uint64 `json:"epoch_index"`
	InputIndex  uint64 `json:"input_index"`
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}

type finishRequest struct {
	Status Status `json:"status"`
}

// ParseRequest decodes a coordinator response body. A body that is not a
// JSON object is ErrMalformedRequest; a missing or non-string request_type is
// ErrMissingField.
func ParseRequest(body []byte) (*Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, errorsmod.Wrap(ErrMalformedRequest, err.Error())
	}
	if fields == nil {
		return nil, errorsmod.Wrap(ErrMalformedRequest, "response body is null")
	}

	req := &Request{Data: fields["data"]}
	raw, ok := fields["request_type"]
	if !ok {
		return req, errorsmod.Wrap(ErrMissingField, "request_type")
	}
	requestType, ok := decodeString(raw)
	if !ok {
		return req, errorsmod.Wrap(ErrMissingField, "request_type is not a string")
	}
	req.Type = RequestType(requestType)
	return req, nil
}

// Payload returns data.payload as a string.
func (r *Request) Payload() (string, error) {
	var data map[string]json.RawMessage
	if err := json.Unmarshal(r.Data, &data); err != nil || data == nil {
		return "", errorsmod.Wrap(ErrMissingPayload, "data is not an object")
	}
	raw, ok := data["payload"]
	if !ok {
		return "", errorsmod.Wrap(ErrMissingPayload, "data.payload is absent")
	}
	payload, ok := decodeString(raw)
	if !ok {
		return "", errorsmod.Wrap(ErrMissingPayload, "data.payload is not a string")
	}
	return payload, nil
}

// Metadata returns data.metadata when the coordinator supplied it.
func (r *Request) Metadata() (*Metadata, bool) {
	var data struct {
		Metadata *Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(r.Data, &data); err != nil || data.Metadata == nil {
		return nil, false
	}
	return data.Metadata, true
}

// decodeString decodes raw as a JSON string. JSON null is not a string.
func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
