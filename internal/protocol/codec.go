package protocol

import (
	"encoding/json"
	"fmt"
)

// requiredResultFields lists the keys each action's result must carry.
var requiredResultFields = map[Action][]string{
	ActionStudyPlanAdvanced: {"status", "inserted", "summary"},
	ActionStudySuggestions:  {"suggestions"},
	ActionFeedbackSend:      {"status", "sent"},
}

// DecodeResult parses a 2xx response body for action into R. Any failure is a
// ProtocolError carrying statusCode.
func DecodeResult[R any](action Action, statusCode int, body []byte) (*R, error) {
	if len(body) == 0 {
		return nil, &ProtocolError{Action: action, StatusCode: statusCode, Err: fmt.Errorf("empty response body")}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &ProtocolError{Action: action, StatusCode: statusCode, Err: fmt.Errorf("response is not a JSON object: %w", err)}
	}
	for _, key := range requiredResultFields[action] {
		if _, ok := fields[key]; !ok {
			return nil, &ProtocolError{Action: action, StatusCode: statusCode, Err: fmt.Errorf("response missing required field: %s", key)}
		}
	}

	var result R
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &ProtocolError{Action: action, StatusCode: statusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if err := validate.Struct(result); err != nil {
		return nil, &ProtocolError{Action: action, StatusCode: statusCode, Err: fmt.Errorf("invalid response: %w", err)}
	}
	return &result, nil
}

// DecodeCallback parses the envelope of an already authenticated callback.
// Bytes that are not JSON yield a plain error. Valid JSON without a usable
// action yields a ValidationError: ProblemMissingAction when the action is
// absent, null or empty (including non-object bodies), ProblemUnknownAction
// when it is not a string. A string action outside the callback set is left
// for the dispatcher to reject.
func DecodeCallback(body []byte) (CallbackRequest, error) {
	if !json.Valid(body) {
		return CallbackRequest{}, fmt.Errorf("decode callback: body is not valid JSON")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return CallbackRequest{}, &ValidationError{Problem: ProblemMissingAction, Err: err}
	}

	raw, ok := fields["action"]
	if !ok || string(raw) == "null" {
		return CallbackRequest{}, &ValidationError{Problem: ProblemMissingAction}
	}
	var action string
	if err := json.Unmarshal(raw, &action); err != nil {
		return CallbackRequest{}, &ValidationError{Problem: ProblemUnknownAction, Err: err}
	}
	if action == "" {
		return CallbackRequest{}, &ValidationError{Problem: ProblemMissingAction}
	}

	return CallbackRequest{Action: CallbackAction(action), Data: fields["data"]}, nil
}
