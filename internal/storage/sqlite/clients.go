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

type ClientsRepo struct {
	db *sql.DB
}

func NewClientsRepo(db *sql.DB) *ClientsRepo {
	return &ClientsRepo{db: db}
}

const clientColumns = `id, name, phone, email, created_at`

func (r *ClientsRepo) CreateClient(ctx context.Context, c core.Client) (core.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clients (id, name, phone, email, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Phone, nullString(c.Email), c.CreatedAt,
	)
	if err != nil {
		return core.Client{}, fmt.Errorf("failed to insert client: %w", err)
	}
	return c, nil
}

func (r *ClientsRepo) GetClient(ctx context.Context, id string) (core.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = ?`, id)
	c, err := scanClient(row)
	if err != nil {
		return core.Client{}, fmt.Errorf("get client %s: %w", id, err)
	}
	return c, nil
}

func (r *ClientsRepo) GetClientByPhone(ctx context.Context, phone string) (core.Client, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE phone = ?`, phone)
	c, err := scanClient(row)
	if err != nil {
		return core.Client{}, fmt.Errorf("get client by phone: %w", err)
	}
	return c, nil
}

func (r *ClientsRepo) ListClients(ctx context.Context) ([]core.Client, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []core.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *ClientsRepo) DeleteClient(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return expectAffected(res, "client "+id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClient(s scanner) (core.Client, error) {
	var c core.Client
	var email sql.NullString
	if err := s.Scan(&c.ID, &c.Name, &c.Phone, &email, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Client{}, core.ErrNotFound
		}
		return core.Client{}, fmt.Errorf("failed to scan client: %w", err)
	}
	c.Email = email.String
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, core.ErrNotFound)
	}
	return nil
}
