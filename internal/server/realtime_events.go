package server

import (
	"context"
	"log/slog"

	"fashfolio/internal/middleware"
	"fashfolio/internal/notifications"
	"fashfolio/internal/observability"
)

// publishUserEvent notifies recipient of something actor did. Delivery is
// best effort and never fails the request.
func (s *Server) publishUserEvent(ctx context.Context, recipient, actor, eventType string, payload map[string]interface{}) {
	if s.notifier == nil {
		return
	}
	ev := notifications.Event{Type: eventType, Actor: actor, Payload: payload}
	if err := s.notifier.PublishUser(ctx, recipient, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish user event",
			slog.String("type", eventType),
			slog.String("recipient", recipient),
			slog.String("error", err.Error()))
	}
}

// startNotificationRelay consumes every user channel until stopNotificationRelay
// is called. It is a no-op without Redis.
func (s *Server) startNotificationRelay(ctx context.Context) error {
	if s.notifier == nil || s.redis == nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	if err := s.notifier.StartPatternSubscriber(ctx, s.deliverUserEvent); err != nil {
		cancel()
		return err
	}
	s.stopNotifications = cancel
	return nil
}

func (s *Server) stopNotificationRelay() {
	if s.stopNotifications != nil {
		s.stopNotifications()
		s.stopNotifications = nil
	}
}

func (s *Server) deliverUserEvent(recipient string, ev notifications.Event) {
	observability.NotificationEvents.WithLabelValues(ev.Type).Inc()
	middleware.Logger.Info("User event",
		slog.String("recipient", recipient),
		slog.String("type", ev.Type),
		slog.String("actor", ev.Actor))
}
