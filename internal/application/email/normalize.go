package email

import (
	"strings"

	"mailsort/internal/domain/email"
)

// Normalize keeps only ASCII letters from a raw completion.
func Normalize(raw string) email.Category {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return email.Category(strings.TrimSpace(b.String()))
}
