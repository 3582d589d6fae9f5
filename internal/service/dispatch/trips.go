package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

// TripPatch carries the fields of a trip update; nil fields are untouched.
// An empty DriverID unassigns the trip.
type TripPatch struct {
	DriverID        *string          `json:"driverId"`
	PickupLocation  *string          `json:"pickupLocation"`
	DropoffLocation *string          `json:"dropoffLocation"`
	PickupTime      *string          `json:"pickupTime"`
	Status          *core.TripStatus `json:"status"`
	Price           *int             `json:"price"`
	PaymentStatus   *string          `json:"paymentStatus"`
	Notes           *string          `json:"notes"`
}

func (s *Service) CreateTrip(ctx context.Context, t core.Trip) (core.Trip, error) {
	if strings.TrimSpace(t.PickupLocation) == "" || strings.TrimSpace(t.DropoffLocation) == "" {
		return core.Trip{}, fmt.Errorf("%w: pickup and dropoff locations are required", ErrInvalid)
	}
	if t.PickupTime.IsZero() {
		return core.Trip{}, fmt.Errorf("%w: pickupTime is required", ErrInvalid)
	}
	if t.Status != "" && !validTripStatus(t.Status) {
		return core.Trip{}, fmt.Errorf("%w: unknown trip status %q", ErrInvalid, t.Status)
	}
	if _, err := s.repos.Clients.GetClient(ctx, t.ClientID); err != nil {
		return core.Trip{}, err
	}
	if t.DriverID != "" {
		if _, err := s.repos.Drivers.GetDriver(ctx, t.DriverID); err != nil {
			return core.Trip{}, err
		}
	}

	trip, err := s.repos.Trips.CreateTrip(ctx, t)
	if err != nil {
		return core.Trip{}, err
	}
	s.remember(ctx, trip)
	return trip, nil
}

func (s *Service) UpdateTrip(ctx context.Context, id string, patch TripPatch) (core.Trip, error) {
	trip, err := s.repos.Trips.GetTrip(ctx, id)
	if err != nil {
		return core.Trip{}, err
	}
	previousDriver := trip.DriverID
	if err := patch.applyTo(&trip); err != nil {
		return core.Trip{}, err
	}
	if trip.DriverID != "" {
		if _, err := s.repos.Drivers.GetDriver(ctx, trip.DriverID); err != nil {
			return core.Trip{}, err
		}
	}
	if err := s.repos.Trips.UpdateTrip(ctx, trip); err != nil {
		return core.Trip{}, err
	}
	if previousDriver != "" && previousDriver != trip.DriverID {
		s.memory.ForgetDriverTrip(s.ctx(ctx), previousDriver, trip.ID)
	}
	s.remember(ctx, trip)
	return trip, nil
}

func (s *Service) AssignDriver(ctx context.Context, tripID, driverID string) (core.Trip, error) {
	return s.UpdateTrip(ctx, tripID, TripPatch{DriverID: &driverID})
}

// remember ingests the trip into the client's memory and, when a driver is
// assigned, into the driver's. Lookup failures only cost the memory write.
func (s *Service) remember(ctx context.Context, trip core.Trip) {
	ctx = s.ctx(ctx)
	logger := log.FromCtx(ctx)

	client, err := s.repos.Clients.GetClient(ctx, trip.ClientID)
	if err != nil {
		logger.Warn().Err(err).Str("trip_id", trip.ID).Msg("trip not ingested")
		return
	}

	var driver *core.Driver
	if trip.DriverID != "" {
		d, err := s.repos.Drivers.GetDriver(ctx, trip.DriverID)
		switch {
		case err == nil:
			driver = &d
		case !errors.Is(err, core.ErrNotFound):
			logger.Warn().Err(err).Str("trip_id", trip.ID).Msg("driver lookup failed")
		}
	}

	driverName := ""
	if driver != nil {
		driverName = driver.Name
	}
	s.memory.IngestClientTrip(ctx, client, trip, driverName)
	if driver != nil {
		s.memory.IngestDriverTrip(ctx, *driver, trip, client.Name)
	}
}

func (p TripPatch) applyTo(t *core.Trip) error {
	if p.DriverID != nil {
		t.DriverID = strings.TrimSpace(*p.DriverID)
	}
	if p.PickupLocation != nil {
		t.PickupLocation = *p.PickupLocation
	}
	if p.DropoffLocation != nil {
		t.DropoffLocation = *p.DropoffLocation
	}
	if p.PickupTime != nil {
		pt, err := parseTime(*p.PickupTime)
		if err != nil {
			return err
		}
		t.PickupTime = pt
	}
	if p.Status != nil {
		if !validTripStatus(*p.Status) {
			return fmt.Errorf("%w: unknown trip status %q", ErrInvalid, *p.Status)
		}
		t.Status = *p.Status
	}
	if p.Price != nil {
		t.Price = *p.Price
	}
	if p.PaymentStatus != nil {
		t.PaymentStatus = *p.PaymentStatus
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	return nil
}
