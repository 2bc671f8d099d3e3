package logger

import (
	"log/slog"
	"strings"
)

// Key fragments whose values are always redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"authorization",
	"credential",
	"cookie",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// encodedSecretLength is the wire length of a 48-byte secret.
const encodedSecretLength = 64

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if v == "" {
			return a
		}
		if IsSensitiveKey(a.Key) || IsSensitiveValue(v) {
			return slog.String(a.Key, RedactString(v))
		}
		if masked := RedactSecrets(v); masked != v {
			return slog.String(a.Key, masked)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// Authorization schemes kept visible when a header value is redacted.
var knownSchemes = []string{"token", "bearer", "basic"}

// RedactString masks a sensitive value. An Authorization value keeps its
// scheme so logs still show which scheme a client used.
func RedactString(value string) string {
	if scheme, _, ok := strings.Cut(value, " "); ok {
		for _, known := range knownSchemes {
			if strings.EqualFold(scheme, known) {
				return scheme + " " + redactedValue
			}
		}
	}
	return redactedValue
}

// IsSensitiveKey reports whether a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// IsSensitiveValue reports whether a value looks like a token credential:
// a "Token ..." header value or a bare encoded secret.
func IsSensitiveValue(value string) bool {
	if len(value) > 6 && strings.EqualFold(value[:6], "token ") {
		return true
	}
	return looksLikeEncodedSecret(value)
}

// RedactSecrets masks every encoded secret embedded in text, such as the
// token in a confirmation link. The rest of text is kept.
func RedactSecrets(text string) string {
	var b strings.Builder
	last, start := 0, 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && isSecretChar(text[i]) {
			continue
		}
		// text[start:i] is a maximal run of secret characters.
		if i-start == encodedSecretLength {
			b.WriteString(text[last:start])
			b.WriteString(redactedValue)
			last = i
		}
		start = i + 1
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func looksLikeEncodedSecret(v string) bool {
	if len(v) != encodedSecretLength {
		return false
	}
	for i := 0; i < len(v); i++ {
		if !isSecretChar(v[i]) {
			return false
		}
	}
	return true
}

func isSecretChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '_', c == '=':
		return true
	}
	return false
}
