package core

import (
	"context"
	"time"
)

type EntityType string

const (
	EntityClient EntityType = "client"
	EntityDriver EntityType = "driver"
)

// Source tags what kind of event produced a memory item.
type Source string

const (
	SourceConversation  Source = "conversation"
	SourceTrip          Source = "trip"
	SourcePreference    Source = "preference"
	SourcePerformance   Source = "performance"
	SourceAvailability  Source = "availability"
	SourceFeedback      Source = "feedback"
	SourceCommunication Source = "communication"
)

// NoteType is the kind of a free-text driver note.
type NoteType = Source

var DriverNoteTypes = []NoteType{SourcePerformance, SourceAvailability, SourceFeedback, SourceCommunication}

func ParseNoteType(s string) (NoteType, error) {
	for _, t := range DriverNoteTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", ErrInvalidNoteType
}

// Well-known metadata keys.
const (
	MetaEntityID   = "entityId"
	MetaEntityType = "entityType"
	MetaSource     = "source"
	MetaTimestamp  = "timestamp"
	MetaTripID     = "tripId"
)

// MemoryItem is one embedded document in a vector index.
type MemoryItem struct {
	ID        string            `json:"id"`
	Vector    []float32         `json:"-"`
	Text      string            `json:"text"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

func (m MemoryItem) EntityID() string { return m.Metadata[MetaEntityID] }
func (m MemoryItem) Source() Source   { return Source(m.Metadata[MetaSource]) }

type ScoredItem struct {
	Item  MemoryItem `json:"item"`
	Score float32    `json:"score"`
}

// Filter is an equality match over metadata fields; all pairs must match.
type Filter map[string]string

func (f Filter) Match(meta map[string]string) bool {
	for k, v := range f {
		if meta[k] != v {
			return false
		}
	}
	return true
}

type VectorIndex interface {
	Insert(ctx context.Context, vector []float32, metadata map[string]string, text string) (string, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByMetadata(ctx context.Context, filter Filter) (int, error)
	ListByMetadata(ctx context.Context, filter Filter) ([]MemoryItem, error)
	Query(ctx context.Context, vector []float32, textHint string, k int) ([]ScoredItem, error)
	// Replace deletes every item matching filter and inserts the new one atomically.
	Replace(ctx context.Context, filter Filter, vector []float32, metadata map[string]string, text string) (string, error)
	Count(ctx context.Context) (int, error)
}

type ClientHistory struct {
	Conversations []string `json:"conversations"`
	Trips         []string `json:"trips"`
	Preferences   []string `json:"preferences"`
}

type DriverHistory struct {
	Trips          []string `json:"trips"`
	Notes          []string `json:"notes"`
	Communications []string `json:"communications"`
}

type MemoryStats struct {
	ClientDocs  int  `json:"clientDocs"`
	DriverDocs  int  `json:"driverDocs"`
	Initialized bool `json:"initialized"`
}

// Memory is the long-term memory surface used by the rest of the application.
// None of its methods fail the caller; failures are logged and yield empty values.
type Memory interface {
	IngestClientMessage(ctx context.Context, client Client, msg ChatMessage, reply string)
	IngestClientTrip(ctx context.Context, client Client, trip Trip, driverName string)
	IngestClientPreference(ctx context.Context, client Client, preference, extractionSource string)
	IngestDriverNote(ctx context.Context, driver Driver, note string, noteType NoteType)
	IngestDriverTrip(ctx context.Context, driver Driver, trip Trip, clientName string)
	IngestDriverMessage(ctx context.Context, driver Driver, msg ChatMessage, preamble string)
	// ForgetDriverTrip drops a trip from a driver's memory after reassignment.
	ForgetDriverTrip(ctx context.Context, driverID, tripID string)
	FetchClientContext(ctx context.Context, clientID, query string, limit int) []string
	FetchDriverContext(ctx context.Context, driverID, query string, limit int) []string
	ClientHistory(ctx context.Context, clientID string, limit int) ClientHistory
	DriverHistory(ctx context.Context, driverID string, limit int) DriverHistory
	DeleteClientMemory(ctx context.Context, clientID string)
	DeleteDriverMemory(ctx context.Context, driverID string)
	Stats(ctx context.Context) MemoryStats
}
