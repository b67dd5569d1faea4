package service

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"familysafe/internal/database"
	"familysafe/internal/models"
)

// BackupService exports and imports the whole dataset as JSON. Sessions are
// deliberately excluded; a restored instance starts with everyone logged out.
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Snapshot is the portable on-disk form of a full export.
type Snapshot struct {
	ExportedAt   time.Time                 `json:"exported_at"`
	Profiles     []models.Profile          `json:"profiles"`
	Links        []models.ParentChildLink  `json:"links"`
	Members      []models.Member           `json:"members"`
	History      []models.LocationEntry    `json:"location_history"`
	Schedules    []models.Schedule         `json:"schedules"`
	Destinations []models.Destination      `json:"destinations"`
	Alerts       []models.Alert            `json:"alerts"`
	Messages     []models.Message          `json:"messages"`
	Groups       []models.Group            `json:"groups"`
	GroupMembers []models.GroupMember      `json:"group_members"`
	GroupMsgs    []models.GroupMessage     `json:"group_messages"`
	Reads        []models.GroupMessageRead `json:"group_message_reads"`
}

// Export writes the full dataset to w as indented JSON
func (s *BackupService) Export(w io.Writer) error {
	snap := &Snapshot{ExportedAt: time.Now()}

	steps := []struct {
		name string
		load func() error
	}{
		{"profiles", func() error { return s.loadProfiles(snap) }},
		{"links", func() error { return s.loadLinks(snap) }},
		{"members", func() error { return s.loadMembers(snap) }},
		{"location_history", func() error { return s.loadHistory(snap) }},
		{"schedules", func() error { return s.loadSchedules(snap) }},
		{"destinations", func() error { return s.loadDestinations(snap) }},
		{"alerts", func() error { return s.loadAlerts(snap) }},
		{"messages", func() error { return s.loadMessages(snap) }},
		{"groups", func() error { return s.loadGroups(snap) }},
	}
	for _, step := range steps {
		if err := step.load(); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// Import reads a snapshot from r and inserts every row inside a single
// transaction. The target database is expected to be empty; conflicting rows
// fail the import and nothing is kept.
func (s *BackupService) Import(r io.Reader) error {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode snapshot: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := importSnapshot(tx, &snap); err != nil {
		return err
	}
	return tx.Commit()
}

func importSnapshot(tx *database.Tx, snap *Snapshot) error {
	for _, p := range snap.Profiles {
		_, err := tx.Exec(
			`INSERT INTO profiles (id, email, password_hash, oauth_provider, oauth_subject, name, role, phone, avatar_url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Email, p.PasswordHash, p.OAuthProvider, p.OAuthSubject,
			p.Name, p.Role, p.Phone, p.AvatarURL, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import profile %s: %w", p.ID, err)
		}
	}
	for _, l := range snap.Links {
		if _, err := tx.Exec(
			"INSERT INTO parent_children (parent_id, child_id) VALUES (?, ?)",
			l.ParentID, l.ChildID,
		); err != nil {
			return fmt.Errorf("failed to import link: %w", err)
		}
	}
	for _, m := range snap.Members {
		_, err := tx.Exec(
			`INSERT INTO members (id, user_id, name, status, latitude, longitude, address, battery, gps_enabled, last_update)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.UserID, m.Name, m.Status, m.Latitude, m.Longitude,
			m.Address, m.Battery, m.GPSEnabled, m.LastUpdate,
		)
		if err != nil {
			return fmt.Errorf("failed to import member %d: %w", m.ID, err)
		}
	}
	for _, e := range snap.History {
		if _, err := tx.Exec(
			"INSERT INTO location_history (member_id, latitude, longitude, address, created_at) VALUES (?, ?, ?, ?, ?)",
			e.MemberID, e.Latitude, e.Longitude, e.Address, e.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import history entry: %w", err)
		}
	}
	for _, sc := range snap.Schedules {
		if _, err := tx.Exec(
			"INSERT INTO schedules (member_id, date, time, title, type, location, completed) VALUES (?, ?, ?, ?, ?, ?, ?)",
			sc.MemberID, sc.Date, sc.Time, sc.Title, sc.Type, sc.Location, sc.Completed,
		); err != nil {
			return fmt.Errorf("failed to import schedule: %w", err)
		}
	}
	for _, d := range snap.Destinations {
		if _, err := tx.Exec(
			"INSERT INTO destinations (member_id, name, latitude, longitude, category, is_active) VALUES (?, ?, ?, ?, ?, ?)",
			d.MemberID, d.Name, d.Latitude, d.Longitude, d.Category, d.IsActive,
		); err != nil {
			return fmt.Errorf("failed to import destination: %w", err)
		}
	}
	for _, a := range snap.Alerts {
		if _, err := tx.Exec(
			"INSERT INTO alerts (member_id, type, message, read, created_at) VALUES (?, ?, ?, ?, ?)",
			a.MemberID, a.Type, a.Message, a.Read, a.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import alert: %w", err)
		}
	}
	for _, m := range snap.Messages {
		if _, err := tx.Exec(
			"INSERT INTO messages (from_user_id, to_user_id, text, read, edited, edited_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.FromUserID, m.ToUserID, m.Text, m.Read, m.Edited, m.EditedAt, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import message: %w", err)
		}
	}
	for _, g := range snap.Groups {
		if _, err := tx.Exec(
			"INSERT INTO groups (id, name, avatar_url, created_by, created_at) VALUES (?, ?, ?, ?, ?)",
			g.ID, g.Name, g.AvatarURL, g.CreatedBy, g.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import group %d: %w", g.ID, err)
		}
	}
	for _, gm := range snap.GroupMembers {
		if _, err := tx.Exec(
			"INSERT INTO group_members (group_id, user_id) VALUES (?, ?)",
			gm.GroupID, gm.UserID,
		); err != nil {
			return fmt.Errorf("failed to import group member: %w", err)
		}
	}
	for _, m := range snap.GroupMsgs {
		if _, err := tx.Exec(
			"INSERT INTO group_messages (id, group_id, from_user_id, text, edited, edited_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			m.ID, m.GroupID, m.FromUserID, m.Text, m.Edited, m.EditedAt, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to import group message %d: %w", m.ID, err)
		}
	}
	for _, rd := range snap.Reads {
		if _, err := tx.Exec(
			"INSERT INTO group_message_reads (message_id, user_id, read_at) VALUES (?, ?, ?)",
			rd.MessageID, rd.UserID, rd.ReadAt,
		); err != nil {
			return fmt.Errorf("failed to import read receipt: %w", err)
		}
	}
	return nil
}

func (s *BackupService) loadProfiles(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, email, password_hash, oauth_provider, oauth_subject, name, role, phone, avatar_url, created_at, updated_at FROM profiles")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.Email, &p.PasswordHash, &p.OAuthProvider, &p.OAuthSubject,
			&p.Name, &p.Role, &p.Phone, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}
		snap.Profiles = append(snap.Profiles, p)
	}
	return rows.Err()
}

func (s *BackupService) loadLinks(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, parent_id, child_id FROM parent_children")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l models.ParentChildLink
		if err := rows.Scan(&l.ID, &l.ParentID, &l.ChildID); err != nil {
			return err
		}
		snap.Links = append(snap.Links, l)
	}
	return rows.Err()
}

func (s *BackupService) loadMembers(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, user_id, name, status, latitude, longitude, address, battery, gps_enabled, last_update FROM members")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Status, &m.Latitude, &m.Longitude,
			&m.Address, &m.Battery, &m.GPSEnabled, &m.LastUpdate); err != nil {
			return err
		}
		snap.Members = append(snap.Members, m)
	}
	return rows.Err()
}

func (s *BackupService) loadHistory(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, member_id, latitude, longitude, address, created_at FROM location_history")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e models.LocationEntry
		if err := rows.Scan(&e.ID, &e.MemberID, &e.Latitude, &e.Longitude, &e.Address, &e.CreatedAt); err != nil {
			return err
		}
		snap.History = append(snap.History, e)
	}
	return rows.Err()
}

func (s *BackupService) loadSchedules(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, member_id, date, time, title, type, location, completed FROM schedules")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var sc models.Schedule
		if err := rows.Scan(&sc.ID, &sc.MemberID, &sc.Date, &sc.Time, &sc.Title, &sc.Type, &sc.Location, &sc.Completed); err != nil {
			return err
		}
		snap.Schedules = append(snap.Schedules, sc)
	}
	return rows.Err()
}

func (s *BackupService) loadDestinations(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, member_id, name, latitude, longitude, category, is_active FROM destinations")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d models.Destination
		if err := rows.Scan(&d.ID, &d.MemberID, &d.Name, &d.Latitude, &d.Longitude, &d.Category, &d.IsActive); err != nil {
			return err
		}
		snap.Destinations = append(snap.Destinations, d)
	}
	return rows.Err()
}

func (s *BackupService) loadAlerts(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, member_id, type, message, read, created_at FROM alerts")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.MemberID, &a.Type, &a.Message, &a.Read, &a.CreatedAt); err != nil {
			return err
		}
		snap.Alerts = append(snap.Alerts, a)
	}
	return rows.Err()
}

func (s *BackupService) loadMessages(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, from_user_id, to_user_id, text, read, edited, edited_at, created_at FROM messages")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Text, &m.Read, &m.Edited, &m.EditedAt, &m.CreatedAt); err != nil {
			return err
		}
		snap.Messages = append(snap.Messages, m)
	}
	return rows.Err()
}

func (s *BackupService) loadGroups(snap *Snapshot) error {
	rows, err := s.db.Query("SELECT id, name, avatar_url, created_by, created_at FROM groups")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.AvatarURL, &g.CreatedBy, &g.CreatedAt); err != nil {
			return err
		}
		snap.Groups = append(snap.Groups, g)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	memberRows, err := s.db.Query("SELECT id, group_id, user_id FROM group_members")
	if err != nil {
		return err
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var gm models.GroupMember
		if err := memberRows.Scan(&gm.ID, &gm.GroupID, &gm.UserID); err != nil {
			return err
		}
		snap.GroupMembers = append(snap.GroupMembers, gm)
	}
	if err := memberRows.Err(); err != nil {
		return err
	}

	msgRows, err := s.db.Query("SELECT id, group_id, from_user_id, text, edited, edited_at, created_at FROM group_messages")
	if err != nil {
		return err
	}
	defer msgRows.Close()
	for msgRows.Next() {
		var m models.GroupMessage
		if err := msgRows.Scan(&m.ID, &m.GroupID, &m.FromUserID, &m.Text, &m.Edited, &m.EditedAt, &m.CreatedAt); err != nil {
			return err
		}
		snap.GroupMsgs = append(snap.GroupMsgs, m)
	}
	if err := msgRows.Err(); err != nil {
		return err
	}

	readRows, err := s.db.Query("SELECT message_id, user_id, read_at FROM group_message_reads")
	if err != nil {
		return err
	}
	defer readRows.Close()
	for readRows.Next() {
		var rd models.GroupMessageRead
		if err := readRows.Scan(&rd.MessageID, &rd.UserID, &rd.ReadAt); err != nil {
			return err
		}
		snap.Reads = append(snap.Reads, rd)
	}
	return readRows.Err()
}
