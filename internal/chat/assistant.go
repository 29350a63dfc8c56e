package chat

import "regexp"

// Role of one assistant transcript entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of the assistant transcript.
type Entry struct {
	Role Role
	Text string
}

// Synthetic assistant replies. Failures are surfaced inline in the
// transcript, never as a system error banner.
const (
	noContextNotice = "Open a course page first so I know which course you're asking about, then ask again."
	upgradeNotice   = "The course assistant needs a Premium subscription. Upgrade your plan to keep asking questions."
	genericNotice   = "Sorry, I couldn't reach the assistant right now. Please try again in a moment."
)

// coursePathPattern matches the course-detail path shape of the web app,
// e.g. https://app.studyhall.io/courses/42 or /courses/algebra-2/lessons/7.
var coursePathPattern = regexp.MustCompile(`/courses/([A-Za-z0-9-]+)`)

// CourseContext derives the course id from a navigation location. A location
// that is not a course-detail page yields no context.
func CourseContext(location string) (string, bool) {
	m := coursePathPattern.FindStringSubmatch(location)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// AssistantSession is the transcript and in-flight state of the assistant
// conversation. At most one request is outstanding at any time.
type AssistantSession struct {
	CourseID   string
	Transcript []Entry
	Pending    bool
}

// NewAssistantSession resolves the course context from the current
// navigation location. An empty CourseID means context-free questions are
// answered locally and never sent over the wire.
func NewAssistantSession(location string) *AssistantSession {
	courseID, _ := CourseContext(location)
	return &AssistantSession{CourseID: courseID}
}

// Ask records the user's question and reports whether a backend request
// should be issued. With no course context the transcript gains exactly one
// locally-synthesized warning and nothing reaches the network. While a
// request is already pending the question is refused.
func (s *AssistantSession) Ask(question string) (courseID string, send bool) {
	if s.Pending {
		return "", false
	}
	if s.CourseID == "" {
		s.Transcript = append(s.Transcript, Entry{Role: RoleAssistant, Text: noContextNotice})
		return "", false
	}
	s.Transcript = append(s.Transcript, Entry{Role: RoleUser, Text: question})
	s.Pending = true
	return s.CourseID, true
}

// Answer appends the backend's reply and clears the in-flight flag.
func (s *AssistantSession) Answer(text string) {
	s.Transcript = append(s.Transcript, Entry{Role: RoleAssistant, Text: text})
	s.Pending = false
}

// Fail converts a failed request into a synthetic transcript entry. An
// entitlement-denied response gets the upgrade notice; everything else the
// generic one.
func (s *AssistantSession) Fail(entitlementDenied bool) {
	text := genericNotice
	if entitlementDenied {
		text = upgradeNotice
	}
	s.Transcript = append(s.Transcript, Entry{Role: RoleAssistant, Text: text})
	s.Pending = false
}
