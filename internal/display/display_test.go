package display

import (
	"strings"
	"testing"

	"mailsort/internal/domain/email"
)

func TestPaletteFor(t *testing.T) {
	if got := paletteFor(email.CategorySpam); got != palettes[email.CategorySpam] {
		t.Fatalf("spam palette = %+v", got)
	}
	if got := paletteFor(email.Category("spam")); got != palettes[email.CategorySpam] {
		t.Fatalf("lowercase spam palette = %+v", got)
	}
	if got := paletteFor(email.Category("Receipts")); got != unknownPalette {
		t.Fatalf("unknown palette = %+v", got)
	}
}

func TestResult(t *testing.T) {
	out := Result(email.NewResult("id", email.CategoryUpdates))
	if !strings.Contains(out, "UPDATES") {
		t.Fatalf("missing badge text in %q", out)
	}

	out = Result(email.NewResult("id", email.Category("")))
	if !strings.Contains(out, "UNKNOWN") || !strings.Contains(out, "outside the six categories") {
		t.Fatalf("unknown result rendered as %q", out)
	}

	failed := email.NewFailedResult("id", email.NewError(email.KindAuth, "API request failed with status 401. Check your API key.", nil))
	if out := Result(failed); !strings.Contains(out, "Check your API key.") {
		t.Fatalf("error result rendered as %q", out)
	}
}
