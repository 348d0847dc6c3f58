package line

import (
	"fmt"
	"strings"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

const (
	messageTypeText = "text"
	messageTypeFlex = "flex"
)

// Message is one outbound LINE message payload.
type Message struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	AltText  string         `json:"altText,omitempty"`
	Contents map[string]any `json:"contents,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Type: messageTypeText, Text: text}
}

// WelcomeMessage is the flex bubble sent on follow.
func WelcomeMessage() Message {
	return Message{
		Type:    messageTypeFlex,
		AltText: "Welcome Message",
		Contents: map[string]any{
			"type": "bubble",
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{
						"type":   "text",
						"text":   "Welcome to Wildfire Alert System!",
						"weight": "bold",
						"size":   "xl",
					},
					map[string]any{
						"type":   "text",
						"text":   "I can help you report wildfires and receive alerts. Type \"menu\" to get started.",
						"wrap":   true,
						"margin": "md",
					},
				},
			},
		},
	}
}

// MainMenuMessage is the flex bubble with the three postback buttons.
func MainMenuMessage() Message {
	return Message{
		Type:    messageTypeFlex,
		AltText: "Main Menu",
		Contents: map[string]any{
			"type": "bubble",
			"header": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{
						"type":   "text",
						"text":   "Wildfire Alert System",
						"weight": "bold",
						"size":   "xl",
						"color":  "#FF0000",
					},
				},
			},
			"body": map[string]any{
				"type":    "box",
				"layout":  "vertical",
				"spacing": "md",
				"contents": []any{
					menuButton("🔥 Report Fire", domain.PostbackReportFire, "primary", "#FF0000"),
					menuButton("⚠️ View Active Alerts", domain.PostbackViewAlerts, "", ""),
					menuButton("📋 Safety Tips", domain.PostbackSafetyTips, "", ""),
				},
			},
		},
	}
}

func menuButton(label, data, style, color string) map[string]any {
	b := map[string]any{
		"type": "button",
		"action": map[string]any{
			"type":  "postback",
			"label": label,
			"data":  data,
		},
	}
	if style != "" {
		b["style"] = style
	}
	if color != "" {
		b["color"] = color
	}
	return b
}

// AlertMessage renders an alert as a flex bubble. It is a pure function of
// the alert's fields and cannot fail for any alert satisfying the domain
// invariants.
func AlertMessage(a domain.Alert) Message {
	return Message{
		Type:    messageTypeFlex,
		AltText: "Wildfire Alert",
		Contents: map[string]any{
			"type": "bubble",
			"header": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{
						"type":   "text",
						"text":   "🔥 Wildfire Alert",
						"weight": "bold",
						"size":   "xl",
						"color":  "#FF0000",
					},
				},
			},
			"body": map[string]any{
				"type":   "box",
				"layout": "vertical",
				"contents": []any{
					map[string]any{
						"type": "text",
						"text": "Location: " + a.Location,
						"wrap": true,
					},
					map[string]any{
						"type":   "text",
						"text":   a.Description,
						"wrap":   true,
						"margin": "md",
					},
					map[string]any{
						"type":   "text",
						"text":   fmt.Sprintf("Severity: %d/5", a.Severity),
						"margin": "md",
						"color":  "#FF0000",
					},
				},
			},
		},
	}
}

// The listing is bounded so the message stays well under the Messaging
// API's 5000-character text limit: at most maxListedAlerts entries, each
// with its description cut at maxListedDescription characters.
const (
	maxListedAlerts      = 10
	maxListedDescription = 120
)

// ActiveAlertsMessage renders the active alert list as a text message. Only
// the newest maxListedAlerts alerts are listed in full; the rest collapse
// into a trailing count.
func ActiveAlertsMessage(alerts []domain.Alert) Message {
	if len(alerts) == 0 {
		return TextMessage(noActiveAlertsText)
	}

	shown := alerts
	if len(shown) > maxListedAlerts {
		shown = shown[:maxListedAlerts]
	}

	var b strings.Builder
	b.WriteString("⚠️ Active Wildfire Alerts\n")
	for _, a := range shown {
		fmt.Fprintf(&b, "\n[%d/5] %s\n%s\n%s\n",
			a.Severity, a.Location, truncate(a.Description, maxListedDescription),
			a.CreatedAt.Format("2006-01-02 15:04 MST"),
		)
	}
	if rest := len(alerts) - len(shown); rest > 0 {
		fmt.Fprintf(&b, "\nand %d more active alerts", rest)
	}
	return TextMessage(strings.TrimRight(b.String(), "\n"))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
