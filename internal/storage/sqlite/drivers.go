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

type DriversRepo struct {
	db *sql.DB
}

func NewDriversRepo(db *sql.DB) *DriversRepo {
	return &DriversRepo{db: db}
}

const driverColumns = `id, name, phone, email, status, created_at`

func (r *DriversRepo) CreateDriver(ctx context.Context, d core.Driver) (core.Driver, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = core.DriverAvailable
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO drivers (id, name, phone, email, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, d.Phone, nullString(d.Email), string(d.Status), d.CreatedAt,
	)
	if err != nil {
		return core.Driver{}, fmt.Errorf("failed to insert driver: %w", err)
	}
	return d, nil
}

func (r *DriversRepo) GetDriver(ctx context.Context, id string) (core.Driver, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = ?`, id)
	d, err := scanDriver(row)
	if err != nil {
		return core.Driver{}, fmt.Errorf("get driver %s: %w", id, err)
	}
	return d, nil
}

func (r *DriversRepo) ListDrivers(ctx context.Context) ([]core.Driver, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query drivers: %w", err)
	}
	defer rows.Close()

	var drivers []core.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

func (r *DriversRepo) UpdateDriverStatus(ctx context.Context, id string, status core.DriverStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE drivers SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update driver status: %w", err)
	}
	return expectAffected(res, "driver "+id)
}

func (r *DriversRepo) DeleteDriver(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	return expectAffected(res, "driver "+id)
}

func scanDriver(s scanner) (core.Driver, error) {
	var d core.Driver
	var email sql.NullString
	var status string
	if err := s.Scan(&d.ID, &d.Name, &d.Phone, &email, &status, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Driver{}, core.ErrNotFound
		}
		return core.Driver{}, fmt.Errorf("failed to scan driver: %w", err)
	}
	d.Email = email.String
	d.Status = core.DriverStatus(status)
	return d, nil
}
