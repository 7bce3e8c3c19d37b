package tickets

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/maintly/maintly/internal/apperr"
	"github.com/maintly/maintly/internal/db"
)

// Store manages persistence of maintenance work tickets.
type Store struct {
	db *db.DB
}

// NewStore creates a new tickets store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// List returns all tickets joined with their machine's product id, newest first.
func (s *Store) List(ctx context.Context) ([]Ticket, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, m.product_id, t.title, t.priority, t.status, t.description, t.created_at
		 FROM tickets t
		 JOIN machines m ON m.id = t.machine_id
		 ORDER BY t.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create validates and inserts a new ticket with status open.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Ticket, error) {
	req.MachineID = strings.TrimSpace(req.MachineID)
	req.Title = strings.TrimSpace(req.Title)
	if req.MachineID == "" {
		return nil, apperr.Validation("machineId is required")
	}
	if len(req.Title) < 3 || len(req.Title) > 200 {
		return nil, apperr.Validation("title must be between 3 and 200 characters")
	}
	if !validPriority(req.Priority) {
		return nil, apperr.Validation("priority must be one of low, medium, high")
	}

	var machineRowID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM machines WHERE product_id = ? LIMIT 1`, req.MachineID,
	).Scan(&machineRowID)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("machine with product_id %s not found", req.MachineID)
	}
	if err != nil {
		return nil, fmt.Errorf("resolving machine %s: %w", req.MachineID, err)
	}

	id := uuid.New().String()
	var desc any
	if req.Description != "" {
		desc = req.Description
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, machine_id, status, priority, title, description)
		 VALUES (?, ?, 'open', ?, ?, ?)`,
		id, machineRowID, req.Priority, req.Title, desc)
	if err != nil {
		return nil, fmt.Errorf("inserting ticket: %w", err)
	}

	return s.getByID(ctx, id)
}

// UpdateStatus transitions a ticket to the given status.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) (*Ticket, error) {
	if !validStatus(status) {
		return nil, apperr.Validation("status must be one of open, in_progress, done")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return nil, fmt.Errorf("updating ticket status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("ticket with id %s not found", id)
	}

	return s.getByID(ctx, id)
}

func (s *Store) getByID(ctx context.Context, id string) (*Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, m.product_id, t.title, t.priority, t.status, t.description, t.created_at
		 FROM tickets t
		 JOIN machines m ON m.id = t.machine_id
		 WHERE t.id = ?`, id)
	t, err := scanTicket(row)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("ticket with id %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting ticket %s: %w", id, err)
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*Ticket, error) {
	var t Ticket
	var desc sql.NullString
	if err := row.Scan(&t.ID, &t.MachineID, &t.Title, &t.Priority, &t.Status, &desc, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Description = desc.String
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}
