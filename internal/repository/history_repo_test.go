package repository

import (
	"testing"
	"time"
)

func TestHistoryDeleteOlderThan(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	memberID := seedChildMember(t, db, "child-history", "Ken")
	repo := NewHistoryRepository(db)

	now := time.Now()
	if _, err := repo.AddEntry(memberID, 35.0, 139.0, "old stop", now.AddDate(0, 0, -40)); err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}
	if _, err := repo.AddEntry(memberID, 35.1, 139.1, "recent stop", now.Add(-time.Hour)); err != nil {
		t.Fatalf("AddEntry() error: %v", err)
	}

	pruned, err := repo.DeleteOlderThan(now.AddDate(0, 0, -30))
	if err != nil {
		t.Fatalf("DeleteOlderThan() error: %v", err)
	}
	if pruned != 1 {
		t.Errorf("DeleteOlderThan() pruned %d entries, want 1", pruned)
	}

	entries, err := repo.GetRecent(memberID, 50)
	if err != nil {
		t.Fatalf("GetRecent() error: %v", err)
	}
	if len(entries) != 1 || entries[0].Address != "recent stop" {
		t.Errorf("trail after prune = %+v, want only the recent stop", entries)
	}
}

func TestHistoryGetRecentNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	memberID := seedChildMember(t, db, "child-trail", "Mio")
	repo := NewHistoryRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := repo.AddEntry(memberID, float64(i), 139.0, "", base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("AddEntry() error: %v", err)
		}
	}

	entries, err := repo.GetRecent(memberID, 2)
	if err != nil {
		t.Fatalf("GetRecent() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want cap of 2", len(entries))
	}
	if entries[0].Latitude != 2 || entries[1].Latitude != 1 {
		t.Errorf("entries not newest first: %v, %v", entries[0].Latitude, entries[1].Latitude)
	}
}
