package logger

import (
	"testing"

	"github.com/google/uuid"
)

func TestRedactorScrubsCredentialsAndLearnerIdentity(t *testing.T) {
	r := &redactor{}
	learner := uuid.MustParse("4b6f0d8e-2f9c-4a57-9d0b-3c1f6f3a9e11")

	out := r.fields([]interface{}{
		"password", "hunter2",
		"actor_mbox", "mailto:ada@example.com",
		"user_id", learner,
		"note", "mailto:someone@example.com",
		"course_id", "c-1",
		"payload", map[string]interface{}{"email": "ada@example.com", "verb": "completed"},
	})
	if len(out) != 12 {
		t.Fatalf("kv length: want=12 got=%d", len(out))
	}
	checks := map[int]interface{}{1: redacted, 3: redacted, 7: redacted, 9: "c-1"}
	for idx, want := range checks {
		if out[idx] != want {
			t.Fatalf("field %v: want=%v got=%v", out[idx-1], want, out[idx])
		}
	}
	hashed, ok := out[5].(string)
	if !ok || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id: want fingerprint got=%v", out[5])
	}
	if again := r.fields([]interface{}{"learner_id", learner.String()}); again[1] != hashed {
		t.Fatalf("fingerprint should be stable across types: %v vs %v", again[1], hashed)
	}
	nested := out[11].(map[string]interface{})
	if nested["email"] != redacted || nested["verb"] != "completed" {
		t.Fatalf("nested map: %+v", nested)
	}
}

func TestRedactorSaltChangesFingerprint(t *testing.T) {
	a := (&redactor{}).fingerprint("learner-1")
	b := (&redactor{salt: "pepper"}).fingerprint("learner-1")
	if a == b {
		t.Fatalf("salted fingerprint should differ")
	}
}

func TestNilRedactorPassesThroughAndKeepsDanglingKey(t *testing.T) {
	var r *redactor
	in := []interface{}{"password", "x"}
	if out := r.fields(in); out[1] != "x" {
		t.Fatalf("nil redactor should not scrub: %v", out)
	}
	out := (&redactor{}).fields([]interface{}{"a", 1, "dangling"})
	if len(out) != 3 || out[2] != "dangling" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "off")
	if redactorFromEnv() != nil {
		t.Fatalf("redaction should be off")
	}
	t.Setenv("LOG_REDACTION_ENABLED", "")
	if redactorFromEnv() == nil {
		t.Fatalf("redaction should default on")
	}
}
