package line

import (
	"net/http"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// SignatureHeader carries the webhook body signature.
const SignatureHeader = "X-Line-Signature"

// ErrInvalidSignature reports a delivery whose signature does not match the
// channel secret.
var ErrInvalidSignature = webhook.ErrInvalidSignature

// ParseRequest verifies the delivery signature, decodes the webhook callback
// and converts it into a batch of domain events. Platform event types the
// bot does not consume (join, beacon, ...) are dropped here; the router
// additionally ignores any kind it does not understand, so new event types
// never break ingestion.
func ParseRequest(channelSecret string, r *http.Request) ([]domain.Event, error) {
	cb, err := webhook.ParseRequest(channelSecret, r)
	if err != nil {
		return nil, err
	}

	events := make([]domain.Event, 0, len(cb.Events))
	for _, ev := range cb.Events {
		switch e := ev.(type) {
		case webhook.FollowEvent:
			events = append(events, domain.Event{
				Kind:       domain.EventFollow,
				UserID:     sourceUserID(e.Source),
				ReplyToken: e.ReplyToken,
			})
		case webhook.UnfollowEvent:
			events = append(events, domain.Event{
				Kind:   domain.EventUnfollow,
				UserID: sourceUserID(e.Source),
			})
		case webhook.MessageEvent:
			de := domain.Event{
				Kind:       domain.EventMessage,
				UserID:     sourceUserID(e.Source),
				ReplyToken: e.ReplyToken,
			}
			if text, ok := e.Message.(webhook.TextMessageContent); ok {
				de.Message = domain.Message{Type: domain.MessageTypeText, Text: text.Text}
			} else {
				de.Message = domain.Message{Type: e.Message.GetType()}
			}
			events = append(events, de)
		case webhook.PostbackEvent:
			events = append(events, domain.Event{
				Kind:       domain.EventPostback,
				UserID:     sourceUserID(e.Source),
				ReplyToken: e.ReplyToken,
				Postback:   domain.Postback{Data: e.Postback.Data},
			})
		}
	}
	return events, nil
}

func sourceUserID(src webhook.SourceInterface) string {
	// Group and room sources carry no actionable user for these flows.
	if u, ok := src.(webhook.UserSource); ok {
		return u.UserId
	}
	return ""
}
