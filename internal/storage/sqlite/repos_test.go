package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "onyx.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestClientsRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewClientsRepo(openTestDB(t))

	created, err := repo.CreateClient(ctx, core.Client{Name: "Ada", Phone: "+1-555-0100"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := repo.GetClientByPhone(ctx, "+1-555-0100")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Ada", got.Name)
	assert.Empty(t, got.Email)

	_, err = repo.CreateClient(ctx, core.Client{Name: "Dup", Phone: "+1-555-0100"})
	assert.Error(t, err, "phone must be unique")

	_, err = repo.GetClient(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	list, err := repo.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.DeleteClient(ctx, created.ID))
	assert.ErrorIs(t, repo.DeleteClient(ctx, created.ID), core.ErrNotFound)
}

func TestDriversRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewDriversRepo(openTestDB(t))

	d, err := repo.CreateDriver(ctx, core.Driver{Name: "Marcus", Phone: "+1-555-0200"})
	require.NoError(t, err)
	assert.Equal(t, core.DriverAvailable, d.Status)

	require.NoError(t, repo.UpdateDriverStatus(ctx, d.ID, core.DriverBusy))
	got, err := repo.GetDriver(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, core.DriverBusy, got.Status)

	assert.ErrorIs(t, repo.UpdateDriverStatus(ctx, "missing", core.DriverBusy), core.ErrNotFound)
}

func TestTripsRepo(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	clients := NewClientsRepo(db)
	drivers := NewDriversRepo(db)
	trips := NewTripsRepo(db)

	c, err := clients.CreateClient(ctx, core.Client{Name: "Ada", Phone: "1"})
	require.NoError(t, err)
	d, err := drivers.CreateDriver(ctx, core.Driver{Name: "Marcus", Phone: "2"})
	require.NoError(t, err)

	pickup := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trip, err := trips.CreateTrip(ctx, core.Trip{
		ClientID:        c.ID,
		PickupLocation:  "Hotel",
		DropoffLocation: "JFK",
		PickupTime:      pickup,
		Price:           120,
	})
	require.NoError(t, err)
	assert.Equal(t, core.TripPending, trip.Status)

	trip.DriverID = d.ID
	trip.Status = core.TripConfirmed
	trip.Notes = "Meet at lobby"
	require.NoError(t, trips.UpdateTrip(ctx, trip))

	got, err := trips.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.DriverID)
	assert.Equal(t, core.TripConfirmed, got.Status)
	assert.Equal(t, "Meet at lobby", got.Notes)
	assert.True(t, pickup.Equal(got.PickupTime))

	byClient, err := trips.ListTripsByClient(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, byClient, 1)
}

func TestMessagesRepo_ListOldestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMessagesRepo(openTestDB(t))

	for _, m := range []core.ChatMessage{
		{SenderID: "c1", ReceiverID: core.BotSenderID, Content: "one"},
		{SenderID: core.BotSenderID, ReceiverID: "c1", Content: "two"},
		{SenderID: "c2", ReceiverID: core.BotSenderID, Content: "other"},
		{SenderID: "c1", ReceiverID: core.BotSenderID, Content: "three"},
	} {
		_, err := repo.AddMessage(ctx, m)
		require.NoError(t, err)
	}

	all, err := repo.ListMessages(ctx, "c1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"one", "two", "three"}, []string{all[0].Content, all[1].Content, all[2].Content})

	last2, err := repo.ListMessages(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Equal(t, "two", last2[0].Content)
	assert.Equal(t, "three", last2[1].Content)
	assert.Equal(t, "sms", last2[1].Type)
}

func TestProfilesRepo_WholeFieldUpdates(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	c, err := NewClientsRepo(db).CreateClient(ctx, core.Client{Name: "Ada", Phone: "1"})
	require.NoError(t, err)

	repo := NewProfilesRepo(db)
	require.NoError(t, repo.CreateProfile(ctx, core.RagProfile{ClientID: c.ID, Summary: "New client"}))

	p, err := repo.GetProfile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New client", p.Summary)
	assert.Empty(t, p.Preferences)
	assert.Nil(t, p.LastInteraction)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateProfile(ctx, c.ID, core.ProfileUpdate{
		Preferences:     []string{"still water", "jazz"},
		LastInteraction: &now,
	}))

	p, err = repo.GetProfile(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "New client", p.Summary)
	assert.Equal(t, []string{"still water", "jazz"}, p.Preferences)
	assert.Empty(t, p.Notes)
	require.NotNil(t, p.LastInteraction)
	assert.True(t, now.Equal(*p.LastInteraction))

	summary := "Frequent airport runs"
	require.NoError(t, repo.UpdateProfile(ctx, c.ID, core.ProfileUpdate{Summary: &summary}))
	p, _ = repo.GetProfile(ctx, c.ID)
	assert.Equal(t, summary, p.Summary)
	assert.Len(t, p.Preferences, 2)

	assert.ErrorIs(t, repo.UpdateProfile(ctx, "missing", core.ProfileUpdate{Summary: &summary}), core.ErrNotFound)
	_, err = repo.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestProfilesRepo_AppendProfile(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	c, err := NewClientsRepo(db).CreateClient(ctx, core.Client{Name: "Ada", Phone: "1"})
	require.NoError(t, err)

	repo := NewProfilesRepo(db)
	require.NoError(t, repo.CreateProfile(ctx, core.RagProfile{
		ClientID:    c.ID,
		Summary:     "New client",
		Preferences: []string{"Cabin at 68F"},
	}))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.AppendProfile(ctx, c.ID, core.ProfileAppend{
				Preferences: []string{fmt.Sprintf("pref %d", i)},
			}))
		}()
	}
	wg.Wait()

	now := time.Now().UTC().Truncate(time.Second)
	summary := "Frequent flyer"
	require.NoError(t, repo.AppendProfile(ctx, c.ID, core.ProfileAppend{
		Notes:           []string{"Flies Delta"},
		Summary:         &summary,
		LastInteraction: &now,
	}))

	p, err := repo.GetProfile(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, p.Preferences, 9)
	assert.Equal(t, "Cabin at 68F", p.Preferences[0])
	assert.Equal(t, []string{"Flies Delta"}, p.Notes)
	assert.Equal(t, summary, p.Summary)
	require.NotNil(t, p.LastInteraction)
	assert.True(t, now.Equal(*p.LastInteraction))

	assert.ErrorIs(t, repo.AppendProfile(ctx, "missing", core.ProfileAppend{}), core.ErrNotFound)
}
