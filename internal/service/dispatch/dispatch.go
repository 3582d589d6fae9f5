package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

var ErrInvalid = errors.New("invalid request")

type Repositories struct {
	Clients  core.ClientsRepository
	Drivers  core.DriversRepository
	Trips    core.TripsRepository
	Profiles core.ProfilesRepository
}

// Service is the dispatcher-facing side of the CRM: it keeps the relational
// records and mirrors every change that matters into semantic memory.
type Service struct {
	repos  Repositories
	memory core.Memory
}

func NewService(repos Repositories, memory core.Memory) *Service {
	return &Service{repos: repos, memory: memory}
}

func (s *Service) ctx(ctx context.Context) context.Context {
	return log.WithComponent(ctx, "dispatch")
}

// CreateClient stores the client together with an empty profile.
func (s *Service) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	c.Name, c.Phone = strings.TrimSpace(c.Name), strings.TrimSpace(c.Phone)
	if c.Name == "" || c.Phone == "" {
		return core.Client{}, fmt.Errorf("%w: name and phone are required", ErrInvalid)
	}

	created, err := s.repos.Clients.CreateClient(ctx, c)
	if err != nil {
		return core.Client{}, err
	}
	if err := s.repos.Profiles.CreateProfile(ctx, core.RagProfile{
		ClientID:    created.ID,
		Summary:     core.NewClientSummary,
		Preferences: []string{},
		Notes:       []string{},
	}); err != nil {
		return core.Client{}, err
	}
	return created, nil
}

// DeleteClient removes the client and everything memory knows about them.
func (s *Service) DeleteClient(ctx context.Context, id string) error {
	if err := s.repos.Clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.memory.DeleteClientMemory(ctx, id)
	return nil
}

func (s *Service) CreateDriver(ctx context.Context, d core.Driver) (core.Driver, error) {
	d.Name, d.Phone = strings.TrimSpace(d.Name), strings.TrimSpace(d.Phone)
	if d.Name == "" || d.Phone == "" {
		return core.Driver{}, fmt.Errorf("%w: name and phone are required", ErrInvalid)
	}
	if d.Status == "" {
		d.Status = core.DriverAvailable
	}
	if !validDriverStatus(d.Status) {
		return core.Driver{}, fmt.Errorf("%w: unknown driver status %q", ErrInvalid, d.Status)
	}
	return s.repos.Drivers.CreateDriver(ctx, d)
}

func (s *Service) DeleteDriver(ctx context.Context, id string) error {
	if err := s.repos.Drivers.DeleteDriver(ctx, id); err != nil {
		return err
	}
	s.memory.DeleteDriverMemory(ctx, id)
	return nil
}

func (s *Service) UpdateDriverStatus(ctx context.Context, id string, status core.DriverStatus) (core.Driver, error) {
	if !validDriverStatus(status) {
		return core.Driver{}, fmt.Errorf("%w: unknown driver status %q", ErrInvalid, status)
	}
	if err := s.repos.Drivers.UpdateDriverStatus(ctx, id, status); err != nil {
		return core.Driver{}, err
	}
	return s.repos.Drivers.GetDriver(ctx, id)
}

// AddDriverNote records a dispatcher note in the driver's memory.
func (s *Service) AddDriverNote(ctx context.Context, driverID, note, noteType string) error {
	note = strings.TrimSpace(note)
	if note == "" {
		return fmt.Errorf("%w: note is required", ErrInvalid)
	}
	nt, err := core.ParseNoteType(noteType)
	if err != nil {
		return err
	}
	driver, err := s.repos.Drivers.GetDriver(ctx, driverID)
	if err != nil {
		return err
	}
	s.memory.IngestDriverNote(ctx, driver, note, nt)
	return nil
}

// AddClientPreference records a preference entered by hand.
func (s *Service) AddClientPreference(ctx context.Context, clientID, preference string) error {
	preference = strings.TrimSpace(preference)
	if preference == "" {
		return fmt.Errorf("%w: preference is required", ErrInvalid)
	}
	client, err := s.repos.Clients.GetClient(ctx, clientID)
	if err != nil {
		return err
	}
	s.memory.IngestClientPreference(ctx, client, preference, "manual")
	return nil
}

func validDriverStatus(st core.DriverStatus) bool {
	switch st {
	case core.DriverAvailable, core.DriverBusy, core.DriverOffline:
		return true
	}
	return false
}

func validTripStatus(st core.TripStatus) bool {
	switch st {
	case core.TripPending, core.TripConfirmed, core.TripInProgress, core.TripCompleted, core.TripCancelled:
		return true
	}
	return false
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: pickupTime must be RFC 3339", ErrInvalid)
	}
	return t, nil
}
