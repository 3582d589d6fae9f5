package core

import "time"

const (
	AppName          = "Onyx Chauffeur"
	AppUserAgent     = "OnyxConcierge/0.1"
	AppRepositoryURL = "https://github.com/yvrah78/onyx-chauffeur-ai"
	AppVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// BotSenderID marks messages written by the concierge itself.
const BotSenderID = "bot"

// Defaults for a client first seen through an inbound message.
const (
	NewClientName    = "New Client"
	NewClientSummary = "New client, building profile from interactions."
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Client struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type DriverStatus string

const (
	DriverAvailable DriverStatus = "available"
	DriverBusy      DriverStatus = "busy"
	DriverOffline   DriverStatus = "offline"
)

type Driver struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	Email     string       `json:"email,omitempty"`
	Status    DriverStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

type TripStatus string

const (
	TripPending    TripStatus = "pending"
	TripConfirmed  TripStatus = "confirmed"
	TripInProgress TripStatus = "in_progress"
	TripCompleted  TripStatus = "completed"
	TripCancelled  TripStatus = "cancelled"
)

type Trip struct {
	ID              string     `json:"id"`
	ClientID        string     `json:"clientId"`
	DriverID        string     `json:"driverId,omitempty"`
	PickupLocation  string     `json:"pickupLocation"`
	DropoffLocation string     `json:"dropoffLocation"`
	PickupTime      time.Time  `json:"pickupTime"`
	Status          TripStatus `json:"status"`
	// Price is in whole dollars.
	Price         int       `json:"price"`
	PaymentStatus string    `json:"paymentStatus"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ChatMessage is a persisted SMS/chat message between a participant and the bot.
type ChatMessage struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}

// RagProfile is the structured memory kept for a client.
type RagProfile struct {
	ClientID        string     `json:"clientId"`
	Summary         string     `json:"summary"`
	Preferences     []string   `json:"preferences"`
	Notes           []string   `json:"notes"`
	LastInteraction *time.Time `json:"lastInteraction,omitempty"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ProfileUpdate replaces whole fields of a RagProfile. Nil fields are left untouched.
type ProfileUpdate struct {
	Summary         *string
	Preferences     []string
	Notes           []string
	LastInteraction *time.Time
}

// ProfileAppend is merged into the stored profile in one step. Lists are
// appended to what is stored at write time, Summary replaces when non-nil.
type ProfileAppend struct {
	Preferences     []string
	Notes           []string
	Summary         *string
	LastInteraction *time.Time
}

// BookingDetails is what could be pulled from a free-form booking request.
type BookingDetails struct {
	Pickup          string `json:"pickup,omitempty"`
	Dropoff         string `json:"dropoff,omitempty"`
	Datetime        string `json:"datetime,omitempty"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}
