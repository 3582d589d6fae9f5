package memory

import (
	"context"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

const DefaultContextLimit = 5

// Service is the long-term memory for clients and drivers. It owns one Store
// per entity type; ingestion into one never touches the other.
type Service struct {
	clients *Store[ClientKind]
	drivers *Store[DriverKind]
	loc     *time.Location
	now     func() time.Time
}

var _ core.Memory = (*Service)(nil)

func NewService(clients *Store[ClientKind], drivers *Store[DriverKind], loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		clients: clients,
		drivers: drivers,
		loc:     loc,
		now:     time.Now,
	}
}

func (s *Service) ctx(ctx context.Context) context.Context {
	return log.WithComponent(ctx, "memory")
}

func (s *Service) IngestClientMessage(ctx context.Context, client core.Client, msg core.ChatMessage, reply string) {
	ctx = s.ctx(ctx)
	s.clients.Append(ctx, client.ID, core.SourceConversation, clientMessageDoc(client, msg.Content, reply), s.now(),
		map[string]string{
			"clientName":  client.Name,
			"clientPhone": client.Phone,
			"messageType": msg.Type,
			"messageId":   msg.ID,
		})
}

func (s *Service) IngestClientPreference(ctx context.Context, client core.Client, preference, extractionSource string) {
	if extractionSource == "" {
		extractionSource = "extracted"
	}
	ctx = s.ctx(ctx)
	s.clients.Append(ctx, client.ID, core.SourcePreference, clientPreferenceDoc(client, preference), s.now(),
		map[string]string{
			"clientName":       client.Name,
			"extractionSource": extractionSource,
		})
}

// IngestClientTrip keeps exactly one item per (client, trip); re-ingesting replaces it.
func (s *Service) IngestClientTrip(ctx context.Context, client core.Client, trip core.Trip, driverName string) {
	ctx = s.ctx(ctx)
	s.clients.Upsert(ctx, client.ID, core.MetaTripID, trip.ID, core.SourceTrip,
		clientTripDoc(client, trip, driverName, s.loc), trip.PickupTime,
		map[string]string{
			"tripStatus":      string(trip.Status),
			"paymentStatus":   trip.PaymentStatus,
			"pickupLocation":  trip.PickupLocation,
			"dropoffLocation": trip.DropoffLocation,
		})
}

func (s *Service) IngestDriverNote(ctx context.Context, driver core.Driver, note string, noteType core.NoteType) {
	ctx = s.ctx(ctx)
	s.drivers.Append(ctx, driver.ID, noteType, driverNoteDoc(driver, note, noteType), s.now(),
		map[string]string{
			"driverName":  driver.Name,
			"driverPhone": driver.Phone,
		})
}

// IngestDriverTrip keeps exactly one item per (driver, trip).
func (s *Service) IngestDriverTrip(ctx context.Context, driver core.Driver, trip core.Trip, clientName string) {
	ctx = s.ctx(ctx)
	s.drivers.Upsert(ctx, driver.ID, core.MetaTripID, trip.ID, core.SourceTrip,
		driverTripDoc(driver, trip, clientName, s.loc), trip.PickupTime,
		map[string]string{
			"tripStatus": string(trip.Status),
			"clientName": orUnknown(clientName),
		})
}

func (s *Service) ForgetDriverTrip(ctx context.Context, driverID, tripID string) {
	ctx = s.ctx(ctx)
	if n := s.drivers.Remove(ctx, driverID, core.MetaTripID, tripID); n > 0 {
		log.FromCtx(ctx).Debug().Str("driver_id", driverID).Str("trip_id", tripID).Msg("trip removed from driver memory")
	}
}

func (s *Service) IngestDriverMessage(ctx context.Context, driver core.Driver, msg core.ChatMessage, preamble string) {
	ctx = s.ctx(ctx)
	s.drivers.Append(ctx, driver.ID, core.SourceCommunication, driverMessageDoc(driver, msg.Content, preamble), s.now(),
		map[string]string{
			"driverName":  driver.Name,
			"messageType": msg.Type,
			"messageId":   msg.ID,
		})
}

func (s *Service) FetchClientContext(ctx context.Context, clientID, query string, limit int) []string {
	return s.clients.Fetch(s.ctx(ctx), clientID, query, limit)
}

func (s *Service) FetchDriverContext(ctx context.Context, driverID, query string, limit int) []string {
	return s.drivers.Fetch(s.ctx(ctx), driverID, query, limit)
}

func (s *Service) DeleteClientMemory(ctx context.Context, clientID string) {
	ctx = s.ctx(ctx)
	n := s.clients.Purge(ctx, clientID)
	log.FromCtx(ctx).Info().Str("client_id", clientID).Int("items", n).Msg("client memory purged")
}

func (s *Service) DeleteDriverMemory(ctx context.Context, driverID string) {
	ctx = s.ctx(ctx)
	n := s.drivers.Purge(ctx, driverID)
	log.FromCtx(ctx).Info().Str("driver_id", driverID).Int("items", n).Msg("driver memory purged")
}

// Stats reports item counts; Initialized is false if either index cannot be read.
func (s *Service) Stats(ctx context.Context) core.MemoryStats {
	ctx = s.ctx(ctx)
	clientDocs, okC := s.clients.Count(ctx)
	driverDocs, okD := s.drivers.Count(ctx)
	if !okC || !okD {
		return core.MemoryStats{}
	}
	return core.MemoryStats{ClientDocs: clientDocs, DriverDocs: driverDocs, Initialized: true}
}
