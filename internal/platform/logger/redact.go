package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

const redacted = "[REDACTED]"

// Keys containing any of these are dropped outright.
var secretKeyParts = []string{
	"password", "secret", "token", "authorization", "cookie", "api_key", "apikey",
	"email", "mbox",
}

// Keys containing any of these keep a stable, salted fingerprint so a
// learner's requests can be correlated without logging the id itself.
var learnerKeyParts = []string{"user_id", "learner_id", "subject_id"}

// redactor scrubs credentials and learner identity from structured fields.
// A nil redactor passes fields through.
type redactor struct {
	salt string
}

// redactorFromEnv is on unless LOG_REDACTION_ENABLED is false. LOG_HASH_SALT
// salts learner fingerprints.
func redactorFromEnv() *redactor {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		return nil
	}
	return &redactor{salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
}

func (r *redactor) fields(kv []interface{}) []interface{} {
	if r == nil || len(kv) == 0 {
		return kv
	}
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		out = append(out, key, r.value(strings.ToLower(key), kv[i+1]))
	}
	if len(kv)%2 == 1 {
		out = append(out, kv[len(kv)-1])
	}
	return out
}

func (r *redactor) value(key string, val interface{}) interface{} {
	switch {
	case containsAny(key, secretKeyParts):
		return redacted
	case containsAny(key, learnerKeyParts):
		return r.fingerprint(val)
	}
	switch v := val.(type) {
	case string:
		if isSensitiveString(v) {
			return redacted
		}
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = r.value(strings.ToLower(k), inner)
		}
		return out
	}
	return val
}

func (r *redactor) fingerprint(val interface{}) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if raw == "" || raw == "<nil>" {
		return ""
	}
	sum := sha256.Sum256([]byte(r.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

// isSensitiveString catches xAPI mailboxes and bearer tokens logged under an
// innocent key.
func isSensitiveString(s string) bool {
	if strings.HasPrefix(strings.ToLower(s), "mailto:") {
		return true
	}
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func containsAny(s string, parts []string) bool {
	for _, p := range parts {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
