package memory

import (
	"context"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

const DefaultHistoryLimit = 20

// historyScanFactor bounds how many of an entity's items are grouped per limit.
const historyScanFactor = 3

func scanWindow(items []core.MemoryItem, limit int) []core.MemoryItem {
	if n := limit * historyScanFactor; len(items) > n {
		return items[:n]
	}
	return items
}

func appendCapped(list []string, limit int, text string) []string {
	if len(list) >= limit {
		return list
	}
	return append(list, text)
}

func (s *Service) ClientHistory(ctx context.Context, clientID string, limit int) core.ClientHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := core.ClientHistory{Conversations: []string{}, Trips: []string{}, Preferences: []string{}}

	for _, item := range scanWindow(s.clients.Items(s.ctx(ctx), clientID), limit) {
		switch item.Source() {
		case core.SourceConversation:
			h.Conversations = appendCapped(h.Conversations, limit, item.Text)
		case core.SourceTrip:
			h.Trips = appendCapped(h.Trips, limit, item.Text)
		case core.SourcePreference:
			h.Preferences = appendCapped(h.Preferences, limit, item.Text)
		}
	}
	return h
}

func (s *Service) DriverHistory(ctx context.Context, driverID string, limit int) core.DriverHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	h := core.DriverHistory{Trips: []string{}, Notes: []string{}, Communications: []string{}}

	for _, item := range scanWindow(s.drivers.Items(s.ctx(ctx), driverID), limit) {
		switch item.Source() {
		case core.SourceTrip:
			h.Trips = appendCapped(h.Trips, limit, item.Text)
		case core.SourcePerformance, core.SourceAvailability, core.SourceFeedback:
			h.Notes = appendCapped(h.Notes, limit, item.Text)
		case core.SourceCommunication:
			h.Communications = appendCapped(h.Communications, limit, item.Text)
		}
	}
	return h
}
