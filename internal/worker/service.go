// Package worker reacts to storefront events: it keeps cached session data
// in step with account changes and settles caches after an order.
package worker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/ariefcatur/go-storefront/internal/auth"
	"github.com/ariefcatur/go-storefront/internal/cart"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/ariefcatur/go-storefront/internal/shop"
)

type Service struct {
	Redis       *redis.Client
	Sessions    *auth.Sessions
	Counter     *cart.Counter
	ServiceName string
	Log         zerolog.Logger
}

// HandleSessionChanged is installed as the session topic handler.
func (s *Service) HandleSessionChanged(ctx context.Context, m kafkago.Message) error {
	return s.once(ctx, m, shop.EventSessionChanged, func(env shop.Envelope) error {
		p, err := kafkax.UnwrapPayload[shop.SessionChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		log := s.Log.With().Str("user_id", p.UserID).Str("change", p.Change).Logger()

		switch p.Change {
		case shop.SessionSignedOut:
			if err := s.Sessions.Delete(ctx, shop.Session{ID: p.SessionID, UserID: p.UserID}); err != nil {
				return err
			}
			log.Info().Str("session_id", p.SessionID).Msg("session evicted")
		case shop.SessionSignedIn, shop.SessionUserUpdated, shop.SessionTokenRefreshed:
			n, err := s.Sessions.RefreshUser(ctx, shop.User{ID: p.UserID, Email: p.Email, Name: p.Name})
			if err != nil {
				return err
			}
			log.Info().Int("sessions", n).Msg("sessions refreshed")
		default:
			log.Warn().Msg("unknown session change")
		}
		return nil
	})
}

// HandleOrderPlaced is installed as the order topic handler.
func (s *Service) HandleOrderPlaced(ctx context.Context, m kafkago.Message) error {
	return s.once(ctx, m, shop.EventOrderPlaced, func(env shop.Envelope) error {
		p, err := kafkax.UnwrapPayload[shop.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.Counter.Invalidate(ctx, p.UserID)
		s.Log.Info().
			Str("order_id", p.OrderID).
			Str("user_id", p.UserID).
			Str("total", p.Total).
			Str("payment_method", string(p.PaymentMethod)).
			Int("items", len(p.Items)).
			Str("trace_id", env.TraceID).
			Msg("order received")
		return nil
	})
}

// once decodes m, skips other event types and events already handled, and
// runs fn. A failed fn releases the dedup mark so the redelivery runs again.
func (s *Service) once(ctx context.Context, m kafkago.Message, eventType string, fn func(shop.Envelope) error) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		return err
	}
	if env.EventType != eventType {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	first, err := redisx.FirstSeen(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return err
	}
	if !first {
		s.Log.Debug().Str("event_id", env.EventID).Msg("duplicate event skipped")
		return nil
	}
	if err := fn(env); err != nil {
		s.Redis.Del(ctx, dkey)
		return fmt.Errorf("%s %s: %w", env.EventType, env.EventID, err)
	}
	return nil
}
