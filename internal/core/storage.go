package core

import "context"

type ClientsRepository interface {
	CreateClient(ctx context.Context, c Client) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	GetClientByPhone(ctx context.Context, phone string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
}

type DriversRepository interface {
	CreateDriver(ctx context.Context, d Driver) (Driver, error)
	GetDriver(ctx context.Context, id string) (Driver, error)
	ListDrivers(ctx context.Context) ([]Driver, error)
	UpdateDriverStatus(ctx context.Context, id string, status DriverStatus) error
	DeleteDriver(ctx context.Context, id string) error
}

type TripsRepository interface {
	CreateTrip(ctx context.Context, t Trip) (Trip, error)
	GetTrip(ctx context.Context, id string) (Trip, error)
	UpdateTrip(ctx context.Context, t Trip) error
	ListTrips(ctx context.Context) ([]Trip, error)
	ListTripsByClient(ctx context.Context, clientID string) ([]Trip, error)
}

type MessagesRepository interface {
	AddMessage(ctx context.Context, msg ChatMessage) (ChatMessage, error)
	// ListMessages returns messages sent or received by participantID, oldest first.
	ListMessages(ctx context.Context, participantID string, limit int) ([]ChatMessage, error)
}

type ProfilesRepository interface {
	CreateProfile(ctx context.Context, p RagProfile) error
	GetProfile(ctx context.Context, clientID string) (RagProfile, error)
	UpdateProfile(ctx context.Context, clientID string, upd ProfileUpdate) error
	// AppendProfile reads and rewrites the profile inside one transaction.
	AppendProfile(ctx context.Context, clientID string, add ProfileAppend) error
}
