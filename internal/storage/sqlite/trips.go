package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

type TripsRepo struct {
	db *sql.DB
}

func NewTripsRepo(db *sql.DB) *TripsRepo {
	return &TripsRepo{db: db}
}

const tripColumns = `id, client_id, driver_id, pickup_location, dropoff_location, pickup_time,
	status, price, payment_status, notes, created_at`

func (r *TripsRepo) CreateTrip(ctx context.Context, t core.Trip) (core.Trip, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = core.TripPending
	}
	if t.PaymentStatus == "" {
		t.PaymentStatus = "unpaid"
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (`+tripColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ClientID, nullString(t.DriverID), t.PickupLocation, t.DropoffLocation, t.PickupTime.UTC(),
		string(t.Status), t.Price, t.PaymentStatus, nullString(t.Notes), t.CreatedAt,
	)
	if err != nil {
		return core.Trip{}, fmt.Errorf("failed to insert trip: %w", err)
	}
	return t, nil
}

func (r *TripsRepo) GetTrip(ctx context.Context, id string) (core.Trip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	t, err := scanTrip(row)
	if err != nil {
		return core.Trip{}, fmt.Errorf("get trip %s: %w", id, err)
	}
	return t, nil
}

// UpdateTrip overwrites every mutable column of the trip.
func (r *TripsRepo) UpdateTrip(ctx context.Context, t core.Trip) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET driver_id = ?, pickup_location = ?, dropoff_location = ?, pickup_time = ?,
			status = ?, price = ?, payment_status = ?, notes = ?
		WHERE id = ?`,
		nullString(t.DriverID), t.PickupLocation, t.DropoffLocation, t.PickupTime.UTC(),
		string(t.Status), t.Price, t.PaymentStatus, nullString(t.Notes), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	return expectAffected(res, "trip "+t.ID)
}

func (r *TripsRepo) ListTrips(ctx context.Context) ([]core.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips ORDER BY pickup_time DESC`)
}

func (r *TripsRepo) ListTripsByClient(ctx context.Context, clientID string) ([]core.Trip, error) {
	return r.list(ctx, `SELECT `+tripColumns+` FROM trips WHERE client_id = ? ORDER BY pickup_time DESC`, clientID)
}

func (r *TripsRepo) list(ctx context.Context, query string, args ...any) ([]core.Trip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	var trips []core.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

func scanTrip(s scanner) (core.Trip, error) {
	var t core.Trip
	var driverID, notes sql.NullString
	var status string
	err := s.Scan(&t.ID, &t.ClientID, &driverID, &t.PickupLocation, &t.DropoffLocation, &t.PickupTime,
		&status, &t.Price, &t.PaymentStatus, &notes, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Trip{}, core.ErrNotFound
		}
		return core.Trip{}, fmt.Errorf("failed to scan trip: %w", err)
	}
	t.DriverID = driverID.String
	t.Notes = notes.String
	t.Status = core.TripStatus(status)
	return t, nil
}
