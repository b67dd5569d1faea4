package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/config"
	"familysafe/internal/database"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
)

type testEnv struct {
	db        *database.DB
	links     *repository.LinkRepository
	history   *repository.HistoryRepository
	groups    *GroupService
	location  *LocationService
	alerts    *AlertService
	messages  *MessageService
	schedules *ScheduleService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	profileRepo := repository.NewProfileRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	destinationRepo := repository.NewDestinationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	groupRepo := repository.NewGroupRepository(db)

	hub := realtime.NewHub(4)
	t.Cleanup(func() { hub.Close() })
	emailService := NewEmailService(&config.Config{})

	alertService := NewAlertService(alertRepo, memberRepo, linkRepo, profileRepo, hub, emailService)
	return &testEnv{
		db:        db,
		links:     linkRepo,
		history:   historyRepo,
		groups:    NewGroupService(groupRepo, hub),
		location:  NewLocationService(memberRepo, historyRepo, destinationRepo, linkRepo, hub, alertService),
		alerts:    alertService,
		messages:  NewMessageService(messageRepo, linkRepo, hub),
		schedules: NewScheduleService(scheduleRepo, destinationRepo, linkRepo, memberRepo),
	}
}

func (e *testEnv) seedProfile(t *testing.T, userID, role string) {
	t.Helper()
	if _, err := e.db.Exec(
		"INSERT INTO profiles (id, email, name, role) VALUES (?, ?, ?, ?)",
		userID, userID+"@example.com", userID, role,
	); err != nil {
		t.Fatalf("Failed to seed profile: %v", err)
	}
}

func (e *testEnv) seedChild(t *testing.T, userID string) int64 {
	t.Helper()
	e.seedProfile(t, userID, models.RoleChild)
	memberID, err := e.db.ExecReturningID(
		"INSERT INTO members (user_id, name) VALUES (?, ?)",
		userID, userID,
	)
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	return memberID
}

func TestGroupMessageEditSenderOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	env.seedProfile(t, "admin-a", models.RoleParent)
	env.seedProfile(t, "member-b", models.RoleParent)

	group, err := env.groups.Create("admin-a", "family", "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := env.groups.AddMember("admin-a", group.ID, "member-b"); err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	message, err := env.groups.SendMessage("admin-a", group.ID, "dinner at seven")
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	_, err = env.groups.EditMessage("member-b", message.ID, "dinner at eight")
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Errorf("non-sender edit kind = %v, want permission", apperr.KindOf(err))
	}
	_, err = env.groups.EditMessage("admin-a", 9999, "nothing")
	if apperr.KindOf(err) != apperr.KindNotFound {
		t.Errorf("missing message edit kind = %v, want not found", apperr.KindOf(err))
	}

	updated, err := env.groups.EditMessage("admin-a", message.ID, "dinner at eight")
	if err != nil {
		t.Fatalf("EditMessage() error: %v", err)
	}
	if updated.Text != "dinner at eight" {
		t.Errorf("Text = %q, want edited body", updated.Text)
	}
	if !updated.Edited {
		t.Error("Edited = false after edit")
	}
	if updated.EditedAt == nil {
		t.Error("EditedAt = nil after edit")
	}
}

func TestGroupMessageDeleteSenderOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	env.seedProfile(t, "admin-a", models.RoleParent)
	env.seedProfile(t, "member-b", models.RoleParent)

	group, err := env.groups.Create("admin-a", "family", "")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if err := env.groups.AddMember("admin-a", group.ID, "member-b"); err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	message, err := env.groups.SendMessage("member-b", group.ID, "on my way")
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}

	// Even the admin cannot delete someone else's message.
	err = env.groups.DeleteMessage("admin-a", message.ID)
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Errorf("admin delete kind = %v, want permission", apperr.KindOf(err))
	}
	if err := env.groups.DeleteMessage("member-b", message.ID); err != nil {
		t.Fatalf("sender DeleteMessage() error: %v", err)
	}
	messages, err := env.groups.Messages("member-b", group.ID)
	if err != nil {
		t.Fatalf("Messages() error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages after delete, want 0", len(messages))
	}
}

func TestRecordPositionTrackingFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	memberID := env.seedChild(t, "child-c")
	ctx := context.Background()

	// A one-shot fix lands even while the tracking flag is off.
	member, err := env.location.RecordPosition(ctx, "child-c", 35.68, 139.76, "station", 80, false)
	if err != nil {
		t.Fatalf("one-shot RecordPosition() error: %v", err)
	}
	if member.Latitude != 35.68 || member.Battery != 80 {
		t.Errorf("member after one-shot = %+v", member)
	}
	entries, err := env.history.GetRecent(memberID, 50)
	if err != nil {
		t.Fatalf("GetRecent() error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("trail has %d entries after one-shot, want 1", len(entries))
	}

	// A continuous fix is dropped while the flag is off.
	_, err = env.location.RecordPosition(ctx, "child-c", 35.69, 139.77, "", 79, true)
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Errorf("continuous fix kind = %v, want conflict", apperr.KindOf(err))
	}

	if _, err := env.location.SetGPSEnabled("child-c", memberID, true); err != nil {
		t.Fatalf("SetGPSEnabled() error: %v", err)
	}
	if _, err := env.location.RecordPosition(ctx, "child-c", 35.69, 139.77, "", 79, true); err != nil {
		t.Fatalf("continuous RecordPosition() after enable error: %v", err)
	}
}

func TestAlertMarkReadIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	memberID := env.seedChild(t, "child-c")
	ctx := context.Background()

	alert, err := env.alerts.Raise(ctx, "child-c", memberID, models.AlertSOS, "help")
	if err != nil {
		t.Fatalf("Raise() error: %v", err)
	}
	if err := env.alerts.MarkRead("child-c", alert.ID); err != nil {
		t.Fatalf("MarkRead() error: %v", err)
	}
	alerts, err := env.alerts.List("child-c")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(alerts) != 1 || !alerts[0].Read {
		t.Errorf("alerts after MarkRead = %+v, want one read alert", alerts)
	}

	// Marking an alert another session already deleted settles quietly.
	if err := env.alerts.Delete("child-c", alert.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := env.alerts.MarkRead("child-c", alert.ID); err != nil {
		t.Errorf("MarkRead() after delete error: %v, want nil", err)
	}
}

func TestDirectMessageEditStampsTimestamp(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	env.seedProfile(t, "parent-p", models.RoleParent)
	env.seedChild(t, "child-c")
	if _, err := env.links.CreateLink("parent-p", "child-c"); err != nil {
		t.Fatalf("CreateLink() error: %v", err)
	}

	message, err := env.messages.Send("parent-p", "child-c", "heading home")
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	_, err = env.messages.Edit("child-c", message.ID, "nope")
	if apperr.KindOf(err) != apperr.KindPermission {
		t.Errorf("non-sender edit kind = %v, want permission", apperr.KindOf(err))
	}

	updated, err := env.messages.Edit("parent-p", message.ID, "heading home soon")
	if err != nil {
		t.Fatalf("Edit() error: %v", err)
	}
	if !updated.Edited || updated.EditedAt == nil {
		t.Errorf("edit not stamped: Edited=%v EditedAt=%v", updated.Edited, updated.EditedAt)
	}
}

func TestListSchedulesTodayOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := newTestEnv(t)
	memberID := env.seedChild(t, "child-c")
	today := time.Now().Format("2006-01-02")

	if _, err := env.schedules.AddSchedule("child-c", &models.Schedule{
		MemberID: memberID, Date: today, Time: "08:00", Title: "school",
	}); err != nil {
		t.Fatalf("AddSchedule() error: %v", err)
	}
	if _, err := env.schedules.AddSchedule("child-c", &models.Schedule{
		MemberID: memberID, Date: "2030-01-02", Time: "09:00", Title: "field trip",
	}); err != nil {
		t.Fatalf("AddSchedule() error: %v", err)
	}

	items, err := env.schedules.ListSchedules("child-c", memberID)
	if err != nil {
		t.Fatalf("ListSchedules() error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "school" {
		t.Errorf("ListSchedules() = %+v, want only today's item", items)
	}
}
