package service

import (
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
)

// PresenceService records heartbeats and answers who-is-online queries.
// Status derivation happens at read time; the stored row is only the last
// report.
type PresenceService struct {
	presence *repository.PresenceRepository
	hub      *realtime.Hub
}

// NewPresenceService creates a new presence service
func NewPresenceService(presence *repository.PresenceRepository, hub *realtime.Hub) *PresenceService {
	return &PresenceService{presence: presence, hub: hub}
}

// Heartbeat records a liveness report for the user. The user's own client is
// the only writer of its row, so last-write-wins needs no coordination.
func (s *PresenceService) Heartbeat(userID, status string) error {
	if status != models.PresenceOnline && status != models.PresenceOffline {
		return apperr.Validationf("unknown presence status %q", status)
	}

	now := time.Now()
	if err := s.presence.Upsert(userID, status, now); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to record heartbeat", err)
	}

	s.hub.Publish(realtime.Event{
		Table: "user_presence",
		Type:  realtime.EventUpdate,
		Row:   models.Presence{UserID: userID, Status: status, LastSeen: now},
		Keys:  map[string]string{"user_id": userID},
	})
	return nil
}

// StatusMap derives the display status for each requested user at the
// current instant. Users with no stored row yet come back offline.
func (s *PresenceService) StatusMap(userIDs []string) (map[string]string, error) {
	statuses := make(map[string]string, len(userIDs))
	for _, id := range userIDs {
		statuses[id] = models.PresenceOffline
	}

	rows, err := s.presence.GetMany(userIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load presence", err)
	}
	now := time.Now()
	for _, p := range rows {
		statuses[p.UserID] = p.EffectiveStatus(now)
	}
	return statuses, nil
}

// Status derives the display status for one user.
func (s *PresenceService) Status(userID string) (string, error) {
	p, err := s.presence.Get(userID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "failed to load presence", err)
	}
	if p == nil {
		return models.PresenceOffline, nil
	}
	return p.EffectiveStatus(time.Now()), nil
}
