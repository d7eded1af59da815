// Package xapi holds the inbound xAPI statement shape and its validation.
//
// Each part is kept as raw JSON so the stored statement is exactly what the
// client sent; typed views are decoded only for the fields the pipeline reads.
package xapi

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
)

const (
	msgActorRequired  = "An actor with an mbox or account is required for xAPI statements."
	msgVerbRequired   = "A verb id is required for xAPI statements."
	msgObjectRequired = "An object id is required for xAPI statements."
)

type Statement struct {
	Actor     json.RawMessage `json:"actor"`
	Verb      json.RawMessage `json:"verb"`
	Object    json.RawMessage `json:"object"`
	Result    json.RawMessage `json:"result,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

type Actor struct {
	Name    string          `json:"name,omitempty"`
	Mbox    string          `json:"mbox,omitempty"`
	Account json.RawMessage `json:"account,omitempty"`
}

type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display,omitempty"`
}

type Object struct {
	ID string `json:"id"`
}

type courseContext struct {
	Course *struct {
		ID string `json:"id"`
	} `json:"course"`
}

// Validate checks the three structural requirements of a statement. It is pure
// and returns an *apierr.Error with CodeValidation on failure.
func (s *Statement) Validate() error {
	if s == nil {
		return apierr.Validation(msgActorRequired)
	}
	actor, ok := s.actor()
	if !ok || (strings.TrimSpace(actor.Mbox) == "" && isAbsent(actor.Account)) {
		return apierr.Validation(msgActorRequired)
	}
	var verb Verb
	if !decode(s.Verb, &verb) || strings.TrimSpace(verb.ID) == "" {
		return apierr.Validation(msgVerbRequired)
	}
	var obj Object
	if !decode(s.Object, &obj) || strings.TrimSpace(obj.ID) == "" {
		return apierr.Validation(msgObjectRequired)
	}
	return nil
}

// ActorEmail returns the actor mailbox with any mailto: prefix removed.
func (s *Statement) ActorEmail() string {
	actor, ok := s.actor()
	if !ok {
		return ""
	}
	mbox := strings.TrimSpace(actor.Mbox)
	if len(mbox) >= len("mailto:") && strings.EqualFold(mbox[:len("mailto:")], "mailto:") {
		mbox = mbox[len("mailto:"):]
	}
	return strings.TrimSpace(mbox)
}

// ContextCourseID returns the trailing path segment of context.course.id, or "".
func (s *Statement) ContextCourseID() string {
	if s == nil {
		return ""
	}
	var c courseContext
	if !decode(s.Context, &c) || c.Course == nil {
		return ""
	}
	id := strings.TrimSpace(c.Course.ID)
	if id == "" {
		return ""
	}
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return strings.TrimSpace(id)
}

// VerbID returns verb.id, or "" when absent.
func (s *Statement) VerbID() string {
	if s == nil {
		return ""
	}
	var verb Verb
	if !decode(s.Verb, &verb) {
		return ""
	}
	return strings.TrimSpace(verb.ID)
}

// ParsedTimestamp returns the caller-supplied timestamp when it parses as RFC 3339.
func (s *Statement) ParsedTimestamp() (time.Time, bool) {
	if s == nil || strings.TrimSpace(s.Timestamp) == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s.Timestamp))
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

func (s *Statement) actor() (Actor, bool) {
	var a Actor
	if s == nil || !decode(s.Actor, &a) {
		return a, false
	}
	return a, true
}

// IsAbsent reports whether raw is missing or JSON null.
func IsAbsent(raw json.RawMessage) bool { return isAbsent(raw) }

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func decode(raw json.RawMessage, dst any) bool {
	if isAbsent(raw) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}
