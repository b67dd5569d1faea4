package repository

import (
	"testing"
	"time"

	"familysafe/internal/models"
)

func TestGetSchedulesForDate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := newTestDB(t)
	memberID := seedChildMember(t, db, "child-schedules", "Yuki")
	repo := NewScheduleRepository(db)

	today := time.Now().Format("2006-01-02")
	items := []models.Schedule{
		{MemberID: memberID, Date: today, Time: "09:00", Title: "math class"},
		{MemberID: memberID, Date: today, Time: "07:30", Title: "morning run"},
		{MemberID: memberID, Date: "2001-01-01", Time: "12:00", Title: "old entry"},
	}
	for i := range items {
		if _, err := repo.CreateSchedule(&items[i]); err != nil {
			t.Fatalf("CreateSchedule() error: %v", err)
		}
	}

	got, err := repo.GetSchedulesForDate(memberID, today)
	if err != nil {
		t.Fatalf("GetSchedulesForDate() error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d schedules for today, want 2", len(got))
	}
	if got[0].Title != "morning run" || got[1].Title != "math class" {
		t.Errorf("schedules not ordered by time: %q, %q", got[0].Title, got[1].Title)
	}

	old, err := repo.GetSchedulesForDate(memberID, "2001-01-01")
	if err != nil {
		t.Fatalf("GetSchedulesForDate() error: %v", err)
	}
	if len(old) != 1 || old[0].Title != "old entry" {
		t.Errorf("got %d schedules for 2001-01-01, want the single old entry", len(old))
	}
}
