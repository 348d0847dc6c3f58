package line

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// handleFollow registers the subscriber and greets them. A repeated follow
// is a no-op at the registry level but still gets the welcome reply.
func (r *Router) handleFollow(ctx context.Context, ev domain.Event) error {
	if err := r.repo.CreateUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return r.sender.Reply(ctx, ev.ReplyToken, WelcomeMessage())
}

// handleUnfollow drops the subscriber. There is no reply channel after an
// unfollow, so nothing is sent.
func (r *Router) handleUnfollow(ctx context.Context, ev domain.Event) error {
	if err := r.repo.DeleteUser(ctx, ev.UserID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

// handleMessage matches trimmed, case-folded commands; any other text is a
// report body if the user is in the report flow, otherwise a menu nudge.
func (r *Router) handleMessage(ctx context.Context, ev domain.Event) error {
	if ev.Message.Type != domain.MessageTypeText {
		return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(unsupportedContentText))
	}

	switch strings.ToLower(strings.TrimSpace(ev.Message.Text)) {
	case "menu":
		return r.sender.Reply(ctx, ev.ReplyToken, MainMenuMessage())
	case "report":
		return r.startReportFlow(ctx, ev)
	case "help":
		return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(helpText))
	default:
		if r.clearAwaiting(ev.UserID) {
			return r.consumeReport(ctx, ev)
		}
		return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(fallbackText))
	}
}

// handlePostback dispatches on the opaque data behind the menu buttons.
// Unknown data is ignored.
func (r *Router) handlePostback(ctx context.Context, ev domain.Event) error {
	switch ev.Postback.Data {
	case domain.PostbackReportFire:
		return r.startReportFlow(ctx, ev)
	case domain.PostbackViewAlerts:
		return r.sendActiveAlerts(ctx, ev)
	case domain.PostbackSafetyTips:
		return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(safetyTipsText))
	default:
		r.log.Debug("ignoring unknown postback", zap.String("data", ev.Postback.Data))
		return nil
	}
}

// startReportFlow flags the user so their next free-text message is
// consumed as the report body.
func (r *Router) startReportFlow(ctx context.Context, ev domain.Event) error {
	r.setAwaiting(ev.UserID)
	return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(reportPromptText))
}

// consumeReport persists the report body. The awaiting flag is already
// cleared by the caller, so a storage failure leaves the user idle rather
// than re-capturing their next message.
func (r *Router) consumeReport(ctx context.Context, ev domain.Event) error {
	body := strings.TrimSpace(ev.Message.Text)
	if err := r.repo.CreateReport(ctx, ev.UserID, body); err != nil {
		if replyErr := r.sender.Reply(ctx, ev.ReplyToken, TextMessage(reportFailedText)); replyErr != nil {
			r.log.Error("report failure reply failed", zap.String("user", ev.UserID), zap.Error(replyErr))
		}
		return fmt.Errorf("consume report: %w", err)
	}
	r.log.Info("report received", zap.String("user", ev.UserID), zap.Int("len", len(body)))
	return r.sender.Reply(ctx, ev.ReplyToken, TextMessage(reportAckText))
}

// sendActiveAlerts replies with the current active alert list.
func (r *Router) sendActiveAlerts(ctx context.Context, ev domain.Event) error {
	alerts, err := r.alerts.ActiveAlerts(ctx)
	if err != nil {
		return fmt.Errorf("view alerts: %w", err)
	}
	return r.sender.Reply(ctx, ev.ReplyToken, ActiveAlertsMessage(alerts))
}
