package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/gmail/v1"

	"mailsort/internal/domain/email"
)

// Client implements Gmail operations (adapter)
type Client struct {
	Srv    *gmail.Service
	logger *zap.Logger

	historyAttempts int
	historyDelay    time.Duration
}

// NewClient creates a new Gmail client
func NewClient(srv *gmail.Service, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Srv:             srv,
		logger:          logger,
		historyAttempts: 5,
		historyDelay:    80 * time.Millisecond,
	}
}

// categoryLabels maps categories to Gmail system label ids.
var categoryLabels = map[email.Category]string{
	email.CategoryPrimary:    "CATEGORY_PERSONAL",
	email.CategoryPromotions: "CATEGORY_PROMOTIONS",
	email.CategorySocial:     "CATEGORY_SOCIAL",
	email.CategoryUpdates:    "CATEGORY_UPDATES",
	email.CategoryForums:     "CATEGORY_FORUMS",
	email.CategorySpam:       "SPAM",
}

// labelChanges moves a message to exactly one category tab. Spam also leaves the inbox.
func labelChanges(category email.Category) (add, remove []string, ok bool) {
	target, ok := categoryLabels[category]
	if !ok {
		return nil, nil, false
	}
	for c, id := range categoryLabels {
		if c != category && id != "SPAM" {
			remove = append(remove, id)
		}
	}
	if category == email.CategorySpam {
		remove = append(remove, "INBOX")
	}
	return []string{target}, remove, true
}

func (c *Client) FetchEmail(ctx context.Context, messageID string) (*email.Email, error) {
	msg, err := c.Srv.Users.Messages.Get("me", messageID).Format("FULL").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail get message: %w", err)
	}

	return email.NewEmail(
		messageID,
		extractHeader(msg, "From"),
		extractHeader(msg, "Subject"),
		extractBody(msg),
	), nil
}

func (c *Client) ApplyCategory(ctx context.Context, messageID string, category email.Category) error {
	add, remove, ok := labelChanges(category)
	if !ok {
		return fmt.Errorf("no gmail label for category %q", category)
	}

	_, err := c.Srv.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail modify message: %w", err)
	}

	return nil
}

// FetchNewMessagesSince lists messages added after historyID. Gmail writes history
// asynchronously, so an empty answer is retried a few times before giving up.
func (c *Client) FetchNewMessagesSince(ctx context.Context, historyID uint64) ([]string, error) {
	for attempt := 1; attempt <= c.historyAttempts; attempt++ {
		resp, err := c.Srv.Users.History.List("me").
			StartHistoryId(historyID).
			HistoryTypes("messageAdded").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("gmail history list: %w", err)
		}

		if ids := extractMessageIDs(resp.History); len(ids) > 0 {
			return ids, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * c.historyDelay):
		}
	}

	c.logger.Debug("no history yet", zap.Uint64("history_id", historyID))
	return nil, nil
}

// EnableWatch enables Gmail push notifications
func (c *Client) EnableWatch(ctx context.Context, topicName string) error {
	req := &gmail.WatchRequest{
		TopicName: topicName,
	}

	resp, err := c.Srv.Users.Watch("me", req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail watch: %w", err)
	}

	c.logger.Info("watch enabled", zap.String("topic", topicName), zap.Int64("expiration", resp.Expiration))
	return nil
}

func (c *Client) ListMessagesFromInbox(ctx context.Context, maxResults int64) ([]string, error) {
	resp, err := c.Srv.Users.Messages.List("me").
		LabelIds("INBOX").
		MaxResults(maxResults).
		Context(ctx).
		Do()

	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var ids []string
	for _, msg := range resp.Messages {
		ids = append(ids, msg.Id)
	}

	return ids, nil
}

func extractMessageIDs(histories []*gmail.History) []string {
	var ids []string
	for _, h := range histories {
		for _, added := range h.MessagesAdded {
			if added.Message != nil && !isDraft(added.Message) {
				ids = append(ids, added.Message.Id)
			}
		}
	}
	return ids
}

func extractHeader(msg *gmail.Message, name string) string {
	if msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func extractBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	return partText(msg.Payload)
}

// partText returns the first text/plain body in a MIME tree, or the part's own body.
func partText(p *gmail.MessagePart) string {
	if p.Body != nil && p.Body.Data != "" && (len(p.Parts) == 0 || p.MimeType == "text/plain") {
		return decodeData(p.Body.Data)
	}
	for _, child := range p.Parts {
		if child.MimeType == "text/plain" && child.Body != nil && child.Body.Data != "" {
			return decodeData(child.Body.Data)
		}
	}
	for _, child := range p.Parts {
		if strings.HasPrefix(child.MimeType, "multipart/") {
			if text := partText(child); text != "" {
				return text
			}
		}
	}
	return ""
}

func decodeData(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding.
		d, _ = base64.RawURLEncoding.DecodeString(data)
	}
	return string(d)
}

func isDraft(msg *gmail.Message) bool {
	for _, labelID := range msg.LabelIds {
		if labelID == "DRAFT" {
			return true
		}
	}
	return false
}
