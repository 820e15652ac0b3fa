package services

import (
	"testing"
	"time"

	"github.com/tickettractor/backend/internal/models"
)

func TestAuditRecordAndHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	svc.Record(AuditEntry{UserName: "Jane Doe", UserEmail: "jane@amd.com", TicketKey: "PROJ-1", Action: ActionLabelUpdate, Label: "results_S1F2R3"})
	svc.Record(AuditEntry{UserName: "Jane Doe", UserEmail: "jane@amd.com", TicketKey: "PROJ-1", Action: ActionCommentAdded, Comment: "see run 42"})
	svc.Record(AuditEntry{UserName: "John Lundy", UserEmail: "john@amd.com", TicketKey: "PROJ-2", Action: ActionAssigneeUpdate, Details: "assignee=jlundy"})

	page, err := svc.History(0, 0, "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if page.Total != 3 || len(page.Entries) != 3 {
		t.Fatalf("total = %d, entries = %d", page.Total, len(page.Entries))
	}

	// Newest first.
	if page.Entries[0].Action != ActionAssigneeUpdate {
		t.Errorf("first entry action = %q", page.Entries[0].Action)
	}
	if page.Entries[2].Action != ActionLabelUpdate {
		t.Errorf("last entry action = %q", page.Entries[2].Action)
	}
	if page.Entries[2].Label != "results_S1F2R3" {
		t.Errorf("label = %q", page.Entries[2].Label)
	}
}

func TestAuditHistoryActionFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	svc.Record(AuditEntry{UserName: "Jane", TicketKey: "PROJ-1", Action: ActionLabelUpdate})
	svc.Record(AuditEntry{UserName: "Jane", TicketKey: "PROJ-2", Action: ActionCommentAdded})
	svc.Record(AuditEntry{UserName: "Jane", TicketKey: "PROJ-3", Action: ActionLabelUpdate})

	page, err := svc.History(0, 0, ActionLabelUpdate)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if page.Total != 2 {
		t.Errorf("filtered total = %d, expected 2", page.Total)
	}
	for _, entry := range page.Entries {
		if entry.Action != ActionLabelUpdate {
			t.Errorf("filter leaked action %q", entry.Action)
		}
	}
}

func TestAuditHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	for i := 0; i < 5; i++ {
		svc.Record(AuditEntry{UserName: "Jane", TicketKey: "PROJ-1", Action: ActionLabelUpdate})
	}

	page, err := svc.History(2, 2, "")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("total = %d, expected unpaginated 5", page.Total)
	}
	if len(page.Entries) != 2 {
		t.Errorf("entries = %d, expected page of 2", len(page.Entries))
	}
}

func TestAuditDeleteOlderThanDays(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)

	old := models.ActivityLog{UserName: "Jane", TicketKey: "PROJ-1", Action: ActionLabelUpdate}
	db.Create(&old)
	db.Model(&old).Update("created_at", time.Now().AddDate(0, 0, -100))
	svc.Record(AuditEntry{UserName: "Jane", TicketKey: "PROJ-2", Action: ActionLabelUpdate})

	deleted, err := svc.DeleteOlderThanDays(90)
	if err != nil {
		t.Fatalf("DeleteOlderThanDays() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, expected 1", deleted)
	}

	page, _ := svc.History(0, 0, "")
	if page.Total != 1 || page.Entries[0].TicketKey != "PROJ-2" {
		t.Errorf("surviving entries = %+v", page.Entries)
	}

	// Retention disabled.
	if deleted, _ := svc.DeleteOlderThanDays(0); deleted != 0 {
		t.Errorf("disabled retention deleted %d entries", deleted)
	}
}
