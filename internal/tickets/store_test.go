package tickets

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/maintly/maintly/internal/apperr"
	"github.com/maintly/maintly/internal/db"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func insertMachine(t *testing.T, database *db.DB, productID string) {
	t.Helper()
	_, err := database.Exec(
		`INSERT INTO machines (id, product_id, type, current_risk_level) VALUES (?, ?, 'lathe', 'low')`,
		uuid.New().String(), productID)
	if err != nil {
		t.Fatalf("insert machine: %v", err)
	}
}

func TestCreateTicket(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	ticket, err := store.Create(context.Background(), CreateRequest{
		MachineID:   "L-47",
		Title:       "Inspect spindle bearing",
		Priority:    PriorityHigh,
		Description: "vibration trending up",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ticket.Status != StatusOpen {
		t.Errorf("new tickets start open, got %s", ticket.Status)
	}
	if ticket.MachineID != "L-47" {
		t.Errorf("machine id should be the product id, got %s", ticket.MachineID)
	}
	if ticket.ID == "" || ticket.CreatedAt.IsZero() {
		t.Errorf("ticket: %+v", ticket)
	}
}

func TestCreateTicketValidation(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	cases := []struct {
		name string
		req  CreateRequest
		kind apperr.Kind
	}{
		{"missing machine", CreateRequest{Title: "valid title", Priority: PriorityLow}, apperr.KindValidation},
		{"short title", CreateRequest{MachineID: "L-47", Title: "ab", Priority: PriorityLow}, apperr.KindValidation},
		{"long title", CreateRequest{MachineID: "L-47", Title: strings.Repeat("x", 201), Priority: PriorityLow}, apperr.KindValidation},
		{"bad priority", CreateRequest{MachineID: "L-47", Title: "valid title", Priority: "urgent"}, apperr.KindValidation},
		{"unknown machine", CreateRequest{MachineID: "X-99", Title: "valid title", Priority: PriorityLow}, apperr.KindNotFound},
	}

	for _, tc := range cases {
		_, err := store.Create(context.Background(), tc.req)
		if apperr.KindOf(err) != tc.kind {
			t.Errorf("%s: got %v, want %s", tc.name, err, tc.kind)
		}
	}
}

func TestUpdateStatus(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	ticket, err := store.Create(context.Background(), CreateRequest{
		MachineID: "L-47", Title: "Inspect spindle bearing", Priority: PriorityHigh,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := store.UpdateStatus(context.Background(), ticket.ID, StatusInProgress)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusInProgress {
		t.Errorf("status: got %s", updated.Status)
	}

	if _, err := store.UpdateStatus(context.Background(), ticket.ID, "parked"); apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("bad status: got %v, want validation", err)
	}
	if _, err := store.UpdateStatus(context.Background(), "nope", StatusDone); apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("unknown ticket: got %v, want not_found", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	database := testDB(t)
	insertMachine(t, database, "L-47")
	store := NewStore(database)

	for _, title := range []string{"first ticket", "second ticket"} {
		if _, err := store.Create(context.Background(), CreateRequest{
			MachineID: "L-47", Title: title, Priority: PriorityLow,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	list, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("tickets: got %d, want 2", len(list))
	}
}
