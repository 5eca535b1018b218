package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"mailsort/internal/domain/email"
)

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatalf("gmail.NewService: %v", err)
	}
	c := NewClient(svc, zaptest.NewLogger(t))
	c.historyDelay = 0
	return c
}

func TestLabelChanges(t *testing.T) {
	add, remove, ok := labelChanges(email.CategoryPromotions)
	if !ok || len(add) != 1 || add[0] != "CATEGORY_PROMOTIONS" {
		t.Fatalf("add = %v ok = %v", add, ok)
	}
	sort.Strings(remove)
	want := []string{"CATEGORY_FORUMS", "CATEGORY_PERSONAL", "CATEGORY_SOCIAL", "CATEGORY_UPDATES"}
	if strings.Join(remove, ",") != strings.Join(want, ",") {
		t.Fatalf("remove = %v, want %v", remove, want)
	}

	add, remove, _ = labelChanges(email.CategorySpam)
	if add[0] != "SPAM" {
		t.Fatalf("spam add = %v", add)
	}
	var leavesInbox bool
	for _, id := range remove {
		if id == "INBOX" {
			leavesInbox = true
		}
	}
	if !leavesInbox {
		t.Fatalf("spam should leave the inbox, remove = %v", remove)
	}

	if _, _, ok := labelChanges(email.Category("Receipts")); ok {
		t.Fatal("unknown category should have no label")
	}
}

func TestExtractBody(t *testing.T) {
	tests := []struct {
		name string
		msg  *gmail.Message
		want string
	}{
		{"no payload", &gmail.Message{}, ""},
		{
			"single part",
			&gmail.Message{Payload: &gmail.MessagePart{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("hello")}}},
			"hello",
		},
		{
			"prefers text/plain",
			&gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{MimeType: "text/html", Body: &gmail.MessagePartBody{Data: encode("<p>hi</p>")}},
					{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("hi")}},
				},
			}},
			"hi",
		},
		{
			"nested multipart",
			&gmail.Message{Payload: &gmail.MessagePart{
				MimeType: "multipart/mixed",
				Parts: []*gmail.MessagePart{
					{MimeType: "multipart/alternative", Parts: []*gmail.MessagePart{
						{MimeType: "text/plain", Body: &gmail.MessagePartBody{Data: encode("deep")}},
					}},
					{MimeType: "application/pdf", Body: &gmail.MessagePartBody{AttachmentId: "att"}},
				},
			}},
			"deep",
		},
		{
			"unpadded data",
			&gmail.Message{Payload: &gmail.MessagePart{Body: &gmail.MessagePartBody{Data: base64.RawURLEncoding.EncodeToString([]byte("ab"))}}},
			"ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBody(tt.msg); got != tt.want {
				t.Fatalf("extractBody = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractHeaderAndDraft(t *testing.T) {
	msg := &gmail.Message{
		LabelIds: []string{"INBOX", "DRAFT"},
		Payload: &gmail.MessagePart{Headers: []*gmail.MessagePartHeader{
			{Name: "subject", Value: "Order shipped"},
		}},
	}
	if got := extractHeader(msg, "Subject"); got != "Order shipped" {
		t.Fatalf("extractHeader = %q", got)
	}
	if extractHeader(msg, "From") != "" {
		t.Fatal("missing header should be empty")
	}
	if !isDraft(msg) {
		t.Fatal("expected draft")
	}
	if isDraft(&gmail.Message{LabelIds: []string{"INBOX"}}) {
		t.Fatal("inbox message is not a draft")
	}

	ids := extractMessageIDs([]*gmail.History{{MessagesAdded: []*gmail.HistoryMessageAdded{
		{Message: &gmail.Message{Id: "m1"}},
		{Message: msg},
		{Message: nil},
	}}})
	if len(ids) != 1 || ids[0] != "m1" {
		t.Fatalf("extractMessageIDs = %v", ids)
	}
}

func TestFetchEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/users/me/messages/m42") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(gmail.Message{
			Id: "m42",
			Payload: &gmail.MessagePart{
				MimeType: "text/plain",
				Headers: []*gmail.MessagePartHeader{
					{Name: "From", Value: "shop@example.com"},
					{Name: "Subject", Value: "Shipped"},
				},
				Body: &gmail.MessagePartBody{Data: encode("Your order #12345 has shipped")},
			},
		})
	})

	e, err := c.FetchEmail(context.Background(), "m42")
	if err != nil {
		t.Fatalf("FetchEmail: %v", err)
	}
	if e.GmailID != "m42" || e.From != "shop@example.com" || e.Subject != "Shipped" || e.Body != "Your order #12345 has shipped" {
		t.Fatalf("email = %+v", e)
	}
}

func TestApplyCategory(t *testing.T) {
	var req gmail.ModifyMessageRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/users/me/messages/m1/modify") {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(gmail.Message{Id: "m1"})
	})

	if err := c.ApplyCategory(context.Background(), "m1", email.CategoryUpdates); err != nil {
		t.Fatalf("ApplyCategory: %v", err)
	}
	if len(req.AddLabelIds) != 1 || req.AddLabelIds[0] != "CATEGORY_UPDATES" {
		t.Fatalf("add = %v", req.AddLabelIds)
	}
	if len(req.RemoveLabelIds) != 4 {
		t.Fatalf("remove = %v", req.RemoveLabelIds)
	}

	if err := c.ApplyCategory(context.Background(), "m1", email.Category("")); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestFetchNewMessagesSinceRetriesEmptyHistory(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("startHistoryId") != "100" {
			t.Errorf("startHistoryId = %q", r.URL.Query().Get("startHistoryId"))
		}
		resp := gmail.ListHistoryResponse{}
		if calls == 3 {
			resp.History = []*gmail.History{{MessagesAdded: []*gmail.HistoryMessageAdded{{Message: &gmail.Message{Id: "new"}}}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})

	ids, err := c.FetchNewMessagesSince(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchNewMessagesSince: %v", err)
	}
	if calls != 3 || len(ids) != 1 || ids[0] != "new" {
		t.Fatalf("calls = %d ids = %v", calls, ids)
	}
}
