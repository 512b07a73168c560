// Package notify fans notifications out to users' devices. Delivery is best
// effort: failures are logged and counted, never returned.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"heronnest/internal/metrics"
	"heronnest/internal/models"
)

type ProfileFinder interface {
	FindByIDs(ctx context.Context, userIDs []string) ([]*models.UserProfile, error)
}

type Notifier interface {
	Notify(ctx context.Context, recipients []string, title, body string, category models.NotificationCategory)
}

type Dispatcher struct {
	profiles ProfileFinder
	pusher   Pusher
	logger   *logrus.Logger
	metrics  *metrics.Metrics
}

func NewDispatcher(profiles ProfileFinder, pusher Pusher, logger *logrus.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		profiles: profiles,
		pusher:   pusher,
		logger:   logger,
		metrics:  m,
	}
}

// Notify pushes title and body to every recipient that has a device token and
// has not switched category off.
func (d *Dispatcher) Notify(ctx context.Context, recipients []string, title, body string, category models.NotificationCategory) {
	log := d.logger.WithField("category", string(category))

	ids := unique(recipients)
	if len(ids) == 0 {
		return
	}

	profiles, err := d.profiles.FindByIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to load notification recipients")
		d.metrics.NotificationSent.WithLabelValues(string(category), "lookup_failed").Inc()
		return
	}

	for _, p := range profiles {
		if p.PushToken == "" || !p.NotificationSettings.Enabled(category) {
			d.metrics.NotificationSent.WithLabelValues(string(category), "skipped").Inc()
			continue
		}

		err := d.pusher.Send(ctx, PushMessage{
			To:    p.PushToken,
			Title: title,
			Body:  body,
			Data:  map[string]any{"category": string(category)},
		})
		if err != nil {
			log.WithError(err).WithField("user_id", p.UserID).Warn("push delivery failed")
			d.metrics.NotificationSent.WithLabelValues(string(category), "failed").Inc()
			continue
		}
		d.metrics.NotificationSent.WithLabelValues(string(category), "sent").Inc()
	}
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Preview shortens text to at most n runes for a notification body.
func Preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
