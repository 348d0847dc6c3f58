package line

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/KRTNP/line-fire-alert-system/internal/domain"
)

// Sender is the outbound surface the router needs. *Client implements it.
type Sender interface {
	Reply(ctx context.Context, replyToken string, msgs ...Message) error
	Push(ctx context.Context, to string, msgs ...Message) error
}

// Store covers the registry and report writes the router owns.
type Store interface {
	CreateUser(ctx context.Context, lineUserID string) error
	DeleteUser(ctx context.Context, lineUserID string) error
	CreateReport(ctx context.Context, lineUserID, body string) error
}

// Alerts is the read-only alert surface, implemented by dispatch.Service.
type Alerts interface {
	ActiveAlerts(ctx context.Context) ([]domain.Alert, error)
}

// Router maps inbound events to handlers and holds the per-user
// conversation state: whether the next free-text message is a report body.
type Router struct {
	sender Sender
	repo   Store
	alerts Alerts
	log    *zap.Logger

	mu       sync.RWMutex
	awaiting map[string]bool // userID -> awaiting report input
}

// NewRouter creates an event router.
func NewRouter(sender Sender, repo Store, alerts Alerts, log *zap.Logger) *Router {
	return &Router{
		sender:   sender,
		repo:     repo,
		alerts:   alerts,
		log:      log,
		awaiting: make(map[string]bool),
	}
}

// setAwaiting marks a user as being in the report flow (in-memory only).
func (r *Router) setAwaiting(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.awaiting[userID] = true
}

// clearAwaiting returns whether the user was in the report flow and leaves
// them idle. Check-and-clear is one step so a racing second message cannot
// also be consumed as a report body.
func (r *Router) clearAwaiting(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.awaiting[userID]
	delete(r.awaiting, userID)
	return was
}

// HandleEvents processes one webhook batch. Events run concurrently and
// independently: every event is attempted, and a failure in one is logged
// here without affecting the others.
func (r *Router) HandleEvents(ctx context.Context, events []domain.Event) {
	var wg sync.WaitGroup
	for _, ev := range events {
		wg.Add(1)
		go func(ev domain.Event) {
			defer wg.Done()
			if err := r.handleEvent(ctx, ev); err != nil {
				r.log.Error("event handling failed",
					zap.String("kind", string(ev.Kind)),
					zap.String("user", ev.UserID),
					zap.Error(err),
				)
			}
		}(ev)
	}
	wg.Wait()
}

// handleEvent dispatches a single event by kind. Unknown kinds are ignored
// so new platform event types do not become errors.
func (r *Router) handleEvent(ctx context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.EventFollow:
		return r.handleFollow(ctx, ev)
	case domain.EventUnfollow:
		return r.handleUnfollow(ctx, ev)
	case domain.EventMessage:
		return r.handleMessage(ctx, ev)
	case domain.EventPostback:
		return r.handlePostback(ctx, ev)
	default:
		r.log.Debug("ignoring unknown event kind", zap.String("kind", string(ev.Kind)))
		return nil
	}
}
