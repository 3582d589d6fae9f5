package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) CreateProfile(ctx context.Context, p core.RagProfile) error {
	prefs, err := marshalList(p.Preferences)
	if err != nil {
		return err
	}
	notes, err := marshalList(p.Notes)
	if err != nil {
		return err
	}

	var last sql.NullTime
	if p.LastInteraction != nil {
		last = sql.NullTime{Time: p.LastInteraction.UTC(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO rag_profiles (client_id, summary, preferences, notes, last_interaction, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ClientID, p.Summary, prefs, notes, last, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ProfilesRepo) GetProfile(ctx context.Context, clientID string) (core.RagProfile, error) {
	return getProfile(ctx, r.db, clientID)
}

func getProfile(ctx context.Context, q rowQuerier, clientID string) (core.RagProfile, error) {
	row := q.QueryRowContext(ctx,
		`SELECT client_id, summary, preferences, notes, last_interaction, updated_at
		 FROM rag_profiles WHERE client_id = ?`, clientID)

	var p core.RagProfile
	var prefs, notes string
	var last sql.NullTime
	if err := row.Scan(&p.ClientID, &p.Summary, &prefs, &notes, &last, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RagProfile{}, fmt.Errorf("profile %s: %w", clientID, core.ErrNotFound)
		}
		return core.RagProfile{}, fmt.Errorf("failed to scan profile: %w", err)
	}

	if err := json.Unmarshal([]byte(prefs), &p.Preferences); err != nil {
		return core.RagProfile{}, fmt.Errorf("decode preferences: %w", err)
	}
	if err := json.Unmarshal([]byte(notes), &p.Notes); err != nil {
		return core.RagProfile{}, fmt.Errorf("decode notes: %w", err)
	}
	if last.Valid {
		t := last.Time
		p.LastInteraction = &t
	}
	return p, nil
}

// AppendProfile merges add into the stored profile. The read and the write
// share one transaction, so concurrent appends for a client never drop entries.
func (r *ProfilesRepo) AppendProfile(ctx context.Context, clientID string, add core.ProfileAppend) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p, err := getProfile(ctx, tx, clientID)
	if err != nil {
		return err
	}

	prefs, err := marshalList(append(p.Preferences, add.Preferences...))
	if err != nil {
		return err
	}
	notes, err := marshalList(append(p.Notes, add.Notes...))
	if err != nil {
		return err
	}
	summary := p.Summary
	if add.Summary != nil {
		summary = *add.Summary
	}
	last := sql.NullTime{}
	if p.LastInteraction != nil {
		last = sql.NullTime{Time: p.LastInteraction.UTC(), Valid: true}
	}
	if add.LastInteraction != nil {
		last = sql.NullTime{Time: add.LastInteraction.UTC(), Valid: true}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE rag_profiles SET summary = ?, preferences = ?, notes = ?, last_interaction = ?, updated_at = ?
		 WHERE client_id = ?`,
		summary, prefs, notes, last, time.Now().UTC(), clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to append profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}

// UpdateProfile writes every non-nil field of upd in a single statement.
func (r *ProfilesRepo) UpdateProfile(ctx context.Context, clientID string, upd core.ProfileUpdate) error {
	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UTC()}

	if upd.Summary != nil {
		sets = append(sets, "summary = ?")
		args = append(args, *upd.Summary)
	}
	if upd.Preferences != nil {
		data, err := marshalList(upd.Preferences)
		if err != nil {
			return err
		}
		sets = append(sets, "preferences = ?")
		args = append(args, data)
	}
	if upd.Notes != nil {
		data, err := marshalList(upd.Notes)
		if err != nil {
			return err
		}
		sets = append(sets, "notes = ?")
		args = append(args, data)
	}
	if upd.LastInteraction != nil {
		sets = append(sets, "last_interaction = ?")
		args = append(args, upd.LastInteraction.UTC())
	}

	args = append(args, clientID)
	res, err := r.db.ExecContext(ctx,
		`UPDATE rag_profiles SET `+strings.Join(sets, ", ")+` WHERE client_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectAffected(res, "profile "+clientID)
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}
