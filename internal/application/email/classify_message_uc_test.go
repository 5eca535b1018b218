package email

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"mailsort/internal/domain/email"
)

type stubGmail struct {
	emails   map[string]*email.Email
	fetchErr error
	fetched  int
	applied  map[string]email.Category
}

func (s *stubGmail) FetchEmail(_ context.Context, id string) (*email.Email, error) {
	s.fetched++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.emails[id], nil
}

func (s *stubGmail) ApplyCategory(_ context.Context, id string, c email.Category) error {
	if s.applied == nil {
		s.applied = make(map[string]email.Category)
	}
	s.applied[id] = c
	return nil
}

func newMessageUC(t *testing.T, llm Completer, g GmailService, apply bool) *ClassifyMessageUseCase {
	logger := zaptest.NewLogger(t)
	return NewClassifyMessageUseCase(NewClassifyEmailUseCase(llm, logger), g, "k", apply, logger)
}

func TestClassifyMessageAppliesLabel(t *testing.T) {
	g := &stubGmail{emails: map[string]*email.Email{
		"m1": email.NewEmail("m1", "shop@example.com", "Your order #12345 has shipped!", "On its way."),
	}}
	llm := &stubCompleter{text: "Updates\n"}
	uc := newMessageUC(t, llm, g, true)

	if err := uc.Execute(context.Background(), "m1"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if g.applied["m1"] != email.CategoryUpdates {
		t.Fatalf("expected Updates label, got %v", g.applied)
	}

	// second delivery of the same id is ignored
	if err := uc.Execute(context.Background(), "m1"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if g.fetched != 1 || llm.calls != 1 {
		t.Fatalf("expected single fetch/classify, got %d/%d", g.fetched, llm.calls)
	}
}

func TestClassifyMessageSkipsEmptyAndUnknown(t *testing.T) {
	g := &stubGmail{emails: map[string]*email.Email{
		"empty": email.NewEmail("empty", "a", "s", "  "),
		"odd":   email.NewEmail("odd", "a", "s", "body"),
	}}
	llm := &stubCompleter{text: "Newsletter"}
	uc := newMessageUC(t, llm, g, true)

	for _, id := range []string{"empty", "odd"} {
		if err := uc.Execute(context.Background(), id); err != nil {
			t.Fatalf("execute %s: %v", id, err)
		}
	}
	if llm.calls != 1 {
		t.Fatalf("empty body must not be classified, calls=%d", llm.calls)
	}
	if len(g.applied) != 0 {
		t.Fatalf("unknown category must not be labeled: %v", g.applied)
	}
}

func TestClassifyMessageReportsFailures(t *testing.T) {
	g := &stubGmail{fetchErr: errors.New("gmail down")}
	uc := newMessageUC(t, &stubCompleter{text: "Spam"}, g, false)
	if err := uc.Execute(context.Background(), "x"); err == nil {
		t.Fatalf("expected fetch error")
	}

	g = &stubGmail{emails: map[string]*email.Email{"y": email.NewEmail("y", "a", "s", "b")}}
	llm := &stubCompleter{err: email.NewError(email.KindTransientService, "failed after multiple attempts", nil)}
	uc = newMessageUC(t, llm, g, true)
	err := uc.Execute(context.Background(), "y")
	if email.KindOf(err) != email.KindTransientService {
		t.Fatalf("expected transient error, got %v", err)
	}

	// a failed message may be retried later
	llm.err, llm.text = nil, "Primary"
	if err := uc.Execute(context.Background(), "y"); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if g.applied["y"] != email.CategoryPrimary {
		t.Fatalf("expected Primary label after retry")
	}
}
