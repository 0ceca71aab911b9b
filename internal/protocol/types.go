package protocol

import (
	"encoding/json"
	"fmt"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body in both
// directions.
const SignatureHeader = "x-bubot-sig"

// Action names an outbound call to the workflow engine.
type Action string

const (
	ActionStudyPlanAdvanced Action = "study_plan_adv"
	ActionStudySuggestions  Action = "study_suggestions_simple"
	ActionFeedbackSend      Action = "feedback_send"
)

// Actions lists every outbound action.
var Actions = []Action{ActionStudyPlanAdvanced, ActionStudySuggestions, ActionFeedbackSend}

// Valid reports whether a is one of the known outbound actions.
func (a Action) Valid() bool {
	switch a {
	case ActionStudyPlanAdvanced, ActionStudySuggestions, ActionFeedbackSend:
		return true
	}
	return false
}

// Payload is the action-specific body of an ActionRequest. The set of
// implementations is closed; each one reports the action it belongs to.
type Payload interface {
	Action() Action
	Validate() error
	isPayload()
}

// TimeWindow is a block of free time on a given day. Bounds are passed to the
// engine as written, conventionally "HH:MM".
type TimeWindow struct {
	Day  string `json:"day"`
	From string `json:"from"`
	To   string `json:"to"`
}

// ExamDate pins an exam for a course to a calendar day, conventionally
// "YYYY-MM-DD".
type ExamDate struct {
	CourseCode string `json:"courseCode"`
	Date       string `json:"date"`
}

// StudyPlanPayload asks the engine to generate a study plan.
type StudyPlanPayload struct {
	FreeTime  []TimeWindow `json:"freeTime"`
	ExamDates []ExamDate   `json:"examDates"`
	// ConsentDeleteOld allows previously generated study sessions to be
	// purged before the new ones are inserted.
	ConsentDeleteOld bool `json:"consentDeleteOld"`
}

func (StudyPlanPayload) Action() Action    { return ActionStudyPlanAdvanced }
func (p StudyPlanPayload) Validate() error { return validateStruct(p) }
func (StudyPlanPayload) isPayload()        {}

// StudySuggestionsPayload asks for lightweight study suggestions.
type StudySuggestionsPayload struct {
	Courses []string `json:"courses"`
	Goals   string   `json:"goals"`
}

func (StudySuggestionsPayload) Action() Action    { return ActionStudySuggestions }
func (p StudySuggestionsPayload) Validate() error { return validateStruct(p) }
func (StudySuggestionsPayload) isPayload()        {}

// FeedbackPayload routes free-text feedback to a teacher.
type FeedbackPayload struct {
	TeacherID string `json:"teacherId" validate:"required"`
	CourseID  string `json:"courseId" validate:"required"`
	Feedback  string `json:"feedback" validate:"required"`
}

func (FeedbackPayload) Action() Action    { return ActionFeedbackSend }
func (p FeedbackPayload) Validate() error { return validateStruct(p) }
func (FeedbackPayload) isPayload()        {}

// ActionRequest is the body bubot signs and posts to the engine.
type ActionRequest struct {
	Action  Action  `json:"action"`
	UserID  string  `json:"userId"`
	Payload Payload `json:"payload"`
}

// NewActionRequest wraps p for userID. The action always comes from the
// payload type so the two cannot disagree.
func NewActionRequest(userID string, p Payload) ActionRequest {
	return ActionRequest{Action: p.Action(), UserID: userID, Payload: p}
}

// Validate checks the envelope and the payload it carries.
func (r ActionRequest) Validate() error {
	if r.Payload == nil {
		return &ValidationError{Problem: "missing payload"}
	}
	if r.Action != r.Payload.Action() {
		return &ValidationError{Problem: fmt.Sprintf("action %q does not match payload", r.Action)}
	}
	if r.UserID == "" {
		return &ValidationError{Problem: "missing userId"}
	}
	return r.Payload.Validate()
}

// UnmarshalJSON decodes the payload into the concrete type selected by action.
func (r *ActionRequest) UnmarshalJSON(b []byte) error {
	var wire struct {
		Action  Action          `json:"action"`
		UserID  string          `json:"userId"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	p, err := DecodePayload(wire.Action, wire.Payload)
	if err != nil {
		return err
	}
	r.Action = wire.Action
	r.UserID = wire.UserID
	r.Payload = p
	return nil
}

// DecodePayload decodes raw into the payload type for action.
func DecodePayload(action Action, raw json.RawMessage) (Payload, error) {
	if action == "" {
		return nil, &ValidationError{Problem: ProblemMissingAction}
	}
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}

	switch action {
	case ActionStudyPlanAdvanced:
		var p StudyPlanPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Problem: "malformed study_plan_adv payload", Err: err}
		}
		return p, nil
	case ActionStudySuggestions:
		var p StudySuggestionsPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Problem: "malformed study_suggestions_simple payload", Err: err}
		}
		return p, nil
	case ActionFeedbackSend:
		var p FeedbackPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ValidationError{Problem: "malformed feedback_send payload", Err: err}
		}
		return p, nil
	default:
		return nil, &ValidationError{Problem: ProblemUnknownAction}
	}
}

// StudyPlanResult is the engine's answer to study_plan_adv.
type StudyPlanResult struct {
	Status      string `json:"status" validate:"required"`
	Inserted    int    `json:"inserted" validate:"gte=0"`
	Summary     string `json:"summary"`
	CalendarURL string `json:"calendarUrl,omitempty" validate:"omitempty,url"`
}

// Suggestion is one recommended course with the reason for it.
type Suggestion struct {
	Course string `json:"course" validate:"required"`
	Reason string `json:"reason"`
}

// StudySuggestionsResult is the engine's answer to study_suggestions_simple.
type StudySuggestionsResult struct {
	Suggestions []Suggestion `json:"suggestions" validate:"dive"`
	Note        string       `json:"note,omitempty"`
}

// FeedbackResult is the engine's answer to feedback_send.
type FeedbackResult struct {
	Status string `json:"status" validate:"required"`
	Sent   bool   `json:"sent"`
}

// CallbackAction names a notification the engine sends back to bubot. It is a
// separate set from Action.
type CallbackAction string

const (
	CallbackStudyPlan CallbackAction = "callback_study_plan"
	CallbackFeedback  CallbackAction = "callback_feedback"
)

// CallbackActions lists every callback action.
var CallbackActions = []CallbackAction{CallbackStudyPlan, CallbackFeedback}

// Valid reports whether a is a recognised callback action.
func (a CallbackAction) Valid() bool {
	switch a {
	case CallbackStudyPlan, CallbackFeedback:
		return true
	}
	return false
}

// CallbackRequest is the body of an inbound webhook call.
type CallbackRequest struct {
	Action CallbackAction  `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// StudyPlanCallback is the data of callback_study_plan. Every field is
// optional; the engine decides what it reports.
type StudyPlanCallback struct {
	UserID      string `json:"userId,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Inserted    int    `json:"inserted,omitempty"`
	CalendarURL string `json:"calendarUrl,omitempty"`
}

// FeedbackCallback is the data of callback_feedback.
type FeedbackCallback struct {
	UserID string `json:"userId,omitempty"`
	Status string `json:"status,omitempty"`
	Sent   bool   `json:"sent,omitempty"`
}

// AckResponse is returned for an accepted callback.
type AckResponse struct {
	Status string         `json:"status"`
	Action CallbackAction `json:"action"`
}

// ErrorResponse is the JSON body of every rejected inbound request.
type ErrorResponse struct {
	Error string `json:"error"`
}
