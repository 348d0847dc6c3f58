// Package line talks to the LINE Messaging API and routes inbound webhook
// events to the conversational handlers.
package line

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// Client adapts the official Messaging API SDK to the router's Sender and
// the broadcaster's Pusher surfaces.
type Client struct {
	api *messaging_api.MessagingApiAPI
}

// NewClient creates a Messaging API client. An empty base uses the
// production endpoint; tests point it at a local server.
func NewClient(token, base string) (*Client, error) {
	opts := []messaging_api.MessagingApiAPIOption{
		messaging_api.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	}
	if base != "" {
		opts = append(opts, messaging_api.WithEndpoint(base))
	}
	api, err := messaging_api.NewMessagingApiAPI(token, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{api: api}, nil
}

// Reply sends messages back using a single-use reply token.
func (c *Client) Reply(_ context.Context, replyToken string, msgs ...Message) error {
	converted, err := toSDKMessages(msgs)
	if err != nil {
		return &domain.TransportError{Op: "reply", Err: err}
	}
	if _, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   converted,
	}); err != nil {
		return &domain.TransportError{Op: "reply", Err: err}
	}
	return nil
}

// Push sends messages to a known user id, independent of any reply token.
func (c *Client) Push(_ context.Context, to string, msgs ...Message) error {
	converted, err := toSDKMessages(msgs)
	if err != nil {
		return &domain.TransportError{Op: "push", Err: err}
	}
	if _, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: converted,
	}, ""); err != nil {
		return &domain.TransportError{Op: "push", Err: err}
	}
	return nil
}

func toSDKMessages(msgs []Message) ([]messaging_api.MessageInterface, error) {
	out := make([]messaging_api.MessageInterface, 0, len(msgs))
	for _, m := range msgs {
		switch m.Type {
		case messageTypeText:
			out = append(out, messaging_api.TextMessage{Text: m.Text})
		case messageTypeFlex:
			raw, err := json.Marshal(m.Contents)
			if err != nil {
				return nil, err
			}
			container, err := messaging_api.UnmarshalFlexContainer(raw)
			if err != nil {
				return nil, err
			}
			out = append(out, messaging_api.FlexMessage{
				AltText:  m.AltText,
				Contents: container,
			})
		default:
			return nil, fmt.Errorf("unsupported message type %q", m.Type)
		}
	}
	return out, nil
}
