package assistant

import (
	"fmt"
	"strings"

	"github.com/mattjoyce/bubot/internal/protocol"
)

const apologyGeneric = "Sorry, something went wrong handling that request. Please try again later."

var apologies = map[protocol.Action]string{
	protocol.ActionStudyPlanAdvanced: "Sorry, I couldn't update your study plan right now. Please try again later.",
	protocol.ActionStudySuggestions:  "Sorry, I couldn't fetch study suggestions right now. Please try again later.",
	protocol.ActionFeedbackSend:      "Sorry, I couldn't send your feedback right now. Please try again later.",
}

// Apology returns the canned reply shown when action fails.
func Apology(action protocol.Action) string {
	if msg, ok := apologies[action]; ok {
		return msg
	}
	return apologyGeneric
}

func renderStudyPlan(r *protocol.StudyPlanResult) string {
	var b strings.Builder
	switch r.Inserted {
	case 0:
		b.WriteString("Your study plan is up to date; no new sessions were added.")
	case 1:
		b.WriteString("Study plan updated: 1 session added to your calendar.")
	default:
		fmt.Fprintf(&b, "Study plan updated: %d sessions added to your calendar.", r.Inserted)
	}
	if s := strings.TrimSpace(r.Summary); s != "" {
		b.WriteString("\n")
		b.WriteString(s)
	}
	if r.CalendarURL != "" {
		b.WriteString("\nCalendar: ")
		b.WriteString(r.CalendarURL)
	}
	return b.String()
}

func renderSuggestions(r *protocol.StudySuggestionsResult) string {
	var b strings.Builder
	if len(r.Suggestions) == 0 {
		b.WriteString("I have no study suggestions for you right now.")
	} else {
		b.WriteString("Here is what I suggest:")
		for _, s := range r.Suggestions {
			b.WriteString("\n- ")
			b.WriteString(s.Course)
			if reason := strings.TrimSpace(s.Reason); reason != "" {
				b.WriteString(": ")
				b.WriteString(reason)
			}
		}
	}
	if note := strings.TrimSpace(r.Note); note != "" {
		b.WriteString("\n")
		b.WriteString(note)
	}
	return b.String()
}

func renderFeedback(r *protocol.FeedbackResult) string {
	if r.Sent {
		return "Thanks, your feedback was sent to the teacher."
	}
	return "Thanks, your feedback was received and will be delivered later."
}

func joinReply(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
