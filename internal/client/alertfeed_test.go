package client

import (
	"errors"
	"testing"

	"familysafe/internal/models"
)

// fakeDirectory maps user ids to the member ids they may see.
type fakeDirectory struct {
	graph map[string][]int64
	calls int
	err   error
}

func (d *fakeDirectory) AuthorizedMemberIDs(userID string) ([]int64, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.graph[userID], nil
}

func TestAlertFeedScoping(t *testing.T) {
	// Two disjoint families. Each parent's feed accepts only alerts for
	// members of their own family.
	dir := &fakeDirectory{graph: map[string][]int64{
		"parent-a": {1, 2},
		"parent-b": {3},
	}}

	feedA := NewAlertFeed(dir, "parent-a")
	feedB := NewAlertFeed(dir, "parent-b")

	for _, a := range []models.Alert{
		{ID: 10, MemberID: 1, Type: "sos"},
		{ID: 11, MemberID: 3, Type: "lost"},
	} {
		if _, err := feedA.Accept(a); err != nil {
			t.Fatalf("feedA.Accept() error: %v", err)
		}
		if _, err := feedB.Accept(a); err != nil {
			t.Fatalf("feedB.Accept() error: %v", err)
		}
	}

	snapA := feedA.Snapshot()
	if len(snapA) != 1 || snapA[0].ID != 10 {
		t.Errorf("feedA = %+v, want only the family's sos alert", snapA)
	}
	snapB := feedB.Snapshot()
	if len(snapB) != 1 || snapB[0].ID != 11 {
		t.Errorf("feedB = %+v, want only the family's lost alert", snapB)
	}
}

func TestAlertFeedCachesDirectory(t *testing.T) {
	dir := &fakeDirectory{graph: map[string][]int64{"u": {1}}}
	feed := NewAlertFeed(dir, "u")

	feed.Accept(models.Alert{ID: 1, MemberID: 1})
	feed.Accept(models.Alert{ID: 2, MemberID: 1})
	feed.Accept(models.Alert{ID: 3, MemberID: 9})

	if dir.calls != 1 {
		t.Errorf("directory queried %d times, want 1", dir.calls)
	}
}

func TestAlertFeedAcceptIsIdempotent(t *testing.T) {
	dir := &fakeDirectory{graph: map[string][]int64{"u": {1}}}
	feed := NewAlertFeed(dir, "u")

	added, err := feed.Accept(models.Alert{ID: 5, MemberID: 1})
	if err != nil || !added {
		t.Fatalf("first Accept = %v, %v", added, err)
	}
	added, err = feed.Accept(models.Alert{ID: 5, MemberID: 1})
	if err != nil {
		t.Fatalf("second Accept error: %v", err)
	}
	if added {
		t.Error("replayed alert should not be added again")
	}
	if len(feed.Snapshot()) != 1 {
		t.Errorf("feed has %d alerts, want 1", len(feed.Snapshot()))
	}
}

func TestAlertFeedNewestFirst(t *testing.T) {
	dir := &fakeDirectory{graph: map[string][]int64{"u": {1}}}
	feed := NewAlertFeed(dir, "u")

	feed.Accept(models.Alert{ID: 1, MemberID: 1})
	feed.Accept(models.Alert{ID: 2, MemberID: 1})

	snap := feed.Snapshot()
	if snap[0].ID != 2 || snap[1].ID != 1 {
		t.Errorf("feed order = %v, want newest first", []int64{snap[0].ID, snap[1].ID})
	}
}

func TestAlertFeedInvalidateGraph(t *testing.T) {
	dir := &fakeDirectory{graph: map[string][]int64{"u": {1}}}
	feed := NewAlertFeed(dir, "u")

	if added, _ := feed.Accept(models.Alert{ID: 1, MemberID: 2}); added {
		t.Fatal("alert for unlinked member should be rejected")
	}

	// A new child joins the family.
	dir.graph["u"] = []int64{1, 2}
	feed.InvalidateGraph()

	added, err := feed.Accept(models.Alert{ID: 1, MemberID: 2})
	if err != nil {
		t.Fatalf("Accept() error: %v", err)
	}
	if !added {
		t.Error("alert should be accepted after the graph refresh")
	}
	if dir.calls != 2 {
		t.Errorf("directory queried %d times, want 2", dir.calls)
	}
}

func TestAlertFeedDirectoryFailure(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("db down")}
	feed := NewAlertFeed(dir, "u")

	if _, err := feed.Accept(models.Alert{ID: 1, MemberID: 1}); err == nil {
		t.Fatal("expected error when the directory is unavailable")
	}
	if len(feed.Snapshot()) != 0 {
		t.Error("alert must not land when authorization cannot be checked")
	}

	// The cache must not latch a failed lookup.
	dir.err = nil
	dir.graph = map[string][]int64{"u": {1}}
	if added, err := feed.Accept(models.Alert{ID: 1, MemberID: 1}); err != nil || !added {
		t.Errorf("Accept after recovery = %v, %v", added, err)
	}
}

func TestAlertFeedLoadMarkReadRemove(t *testing.T) {
	dir := &fakeDirectory{graph: map[string][]int64{"u": {1}}}
	feed := NewAlertFeed(dir, "u")

	feed.Load([]models.Alert{
		{ID: 1, MemberID: 1, Read: true},
		{ID: 2, MemberID: 1},
		{ID: 2, MemberID: 1},
	})
	if len(feed.Snapshot()) != 2 {
		t.Fatalf("loaded %d alerts, want duplicates collapsed to 2", len(feed.Snapshot()))
	}
	if got := feed.UnreadCount(); got != 1 {
		t.Errorf("UnreadCount() = %d, want 1", got)
	}

	feed.MarkRead(2)
	if got := feed.UnreadCount(); got != 0 {
		t.Errorf("UnreadCount() = %d after MarkRead, want 0", got)
	}

	feed.Remove(1)
	if len(feed.Snapshot()) != 1 {
		t.Errorf("feed has %d alerts after Remove, want 1", len(feed.Snapshot()))
	}
}
