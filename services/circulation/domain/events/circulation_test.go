package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/bookcirc/services/circulation/domain/events"
)

func TestLoanCheckedOutEvent_FlattensEnvelope(t *testing.T) {
	tenant := uuid.NullUUID{UUID: uuid.MustParse("660e8400-e29b-41d4-a716-446655440000"), Valid: true}
	evt := events.LoanCheckedOutEvent{
		Envelope: events.NewEnvelope("staff-1", tenant, time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)),
		LoanID:   uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		DueDate:  "2025-01-30",
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}

	for _, key := range []string{"event_id", "version", "actor_id", "tenant_id", "occurred_at", "loan_id", "due_date"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing top-level key %q in %s", key, data)
		}
	}
	if _, ok := m["fulfilled_reservation_id"]; ok {
		t.Error("fulfilled_reservation_id must be omitted when nil")
	}
	if m["tenant_id"] != tenant.UUID.String() {
		t.Errorf("tenant_id = %v, want %s", m["tenant_id"], tenant.UUID)
	}
}

func TestNewEnvelope_UniqueIDs(t *testing.T) {
	a := events.NewEnvelope("", uuid.NullUUID{}, time.Now())
	b := events.NewEnvelope("", uuid.NullUUID{}, time.Now())
	if a.EventID == b.EventID {
		t.Fatal("event ids must be unique per publish")
	}
	if a.Version != 1 {
		t.Fatalf("Version = %d, want 1", a.Version)
	}
}

func TestAuditTopics_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range events.AuditTopics {
		if seen[topic] {
			t.Fatalf("duplicate topic %s", topic)
		}
		seen[topic] = true
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 audit topics, got %d", len(seen))
	}
}
