package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mattjoyce/bubot/internal/protocol"
)

var directivePattern = regexp.MustCompile(`(?s)<bubot-action>(.*?)</bubot-action>`)

// Directive is the structured request a completion embeds to invoke an
// engine action.
type Directive struct {
	Action  protocol.Action `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ParseDirective extracts the first directive in text. It returns the text
// with every directive block removed and found=false when there is none. A
// block that is present but not valid JSON is an error.
func ParseDirective(text string) (d Directive, rest string, found bool, err error) {
	m := directivePattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Directive{}, text, false, nil
	}

	rest = strings.TrimSpace(directivePattern.ReplaceAllString(text, ""))
	inner := strings.TrimSpace(text[m[2]:m[3]])
	if err := json.Unmarshal([]byte(inner), &d); err != nil {
		return Directive{}, rest, true, &protocol.ValidationError{Problem: "malformed directive", Err: err}
	}
	if d.Action == "" {
		return d, rest, true, &protocol.ValidationError{Problem: protocol.ProblemMissingAction}
	}
	return d, rest, true, nil
}

// TypedPayload decodes the directive into its typed payload.
func (d Directive) TypedPayload() (protocol.Payload, error) {
	p, err := protocol.DecodePayload(d.Action, d.Payload)
	if err != nil {
		return nil, fmt.Errorf("directive %s: %w", d.Action, err)
	}
	return p, nil
}
