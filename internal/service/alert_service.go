package service

import (
	"context"
	"log"
	"strconv"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
	"familysafe/internal/validation"
)

// AlertService raises, lists and resolves safety alerts. Raising an alert
// carries side effects on the member row: an SOS marks the member in danger,
// a lost report marks them warning and forces tracking on.
type AlertService struct {
	alerts   *repository.AlertRepository
	members  *repository.MemberRepository
	links    *repository.LinkRepository
	profiles *repository.ProfileRepository
	hub      *realtime.Hub
	email    *EmailService
	guard    *graphGuard
}

// NewAlertService creates a new alert service
func NewAlertService(
	alerts *repository.AlertRepository,
	members *repository.MemberRepository,
	links *repository.LinkRepository,
	profiles *repository.ProfileRepository,
	hub *realtime.Hub,
	email *EmailService,
) *AlertService {
	return &AlertService{
		alerts:   alerts,
		members:  members,
		links:    links,
		profiles: profiles,
		hub:      hub,
		email:    email,
		guard:    newGraphGuard(links, members),
	}
}

// Raise creates an alert for a member the caller may act on, applies the
// status side effect and fans out notifications. The caller is the child
// themselves for an SOS, or a linked parent reporting them lost.
func (s *AlertService) Raise(ctx context.Context, callerID string, memberID int64, alertType, message string) (*models.Alert, error) {
	if err := validation.ValidateAlertType(alertType); err != nil {
		return nil, err
	}
	member, err := s.guard.requireMemberAccess(callerID, memberID)
	if err != nil {
		return nil, err
	}

	alert, err := s.alerts.CreateAlert(member.ID, alertType, message)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create alert", err)
	}

	switch alertType {
	case models.AlertSOS:
		if err := s.members.UpdateStatus(member.ID, models.StatusDanger); err != nil {
			return nil, apperr.Wrap(apperr.KindTransient, "failed to update member status", err)
		}
		member.Status = models.StatusDanger
	case models.AlertLost:
		if err := s.members.UpdateStatus(member.ID, models.StatusWarning); err != nil {
			return nil, apperr.Wrap(apperr.KindTransient, "failed to update member status", err)
		}
		member.Status = models.StatusWarning
		if !member.GPSEnabled {
			if err := s.members.SetGPSEnabled(member.ID, true); err != nil {
				return nil, apperr.Wrap(apperr.KindTransient, "failed to enable tracking", err)
			}
			member.GPSEnabled = true
		}
	}

	memberKey := strconv.FormatInt(member.ID, 10)
	s.hub.Publish(realtime.Event{
		Table: "alerts",
		Type:  realtime.EventInsert,
		Row:   alert,
		Keys:  map[string]string{"member_id": memberKey},
	})
	s.hub.Publish(realtime.Event{
		Table: "members",
		Type:  realtime.EventUpdate,
		Row:   member,
		Keys:  map[string]string{"id": memberKey, "user_id": member.UserID},
	})

	s.notifyParents(ctx, member, alert)
	return alert, nil
}

// notifyParents emails every linked parent. Notification failures are
// logged, never surfaced: the alert row is already durable.
func (s *AlertService) notifyParents(ctx context.Context, member *models.Member, alert *models.Alert) {
	if !s.email.Enabled() {
		return
	}
	parentIDs, err := s.links.GetParentIDs(member.UserID)
	if err != nil {
		log.Printf("alert %d: failed to load parents for notification: %v", alert.ID, err)
		return
	}
	parents, err := s.profiles.GetProfilesByIDs(parentIDs)
	if err != nil {
		log.Printf("alert %d: failed to load parent profiles: %v", alert.ID, err)
		return
	}
	for _, p := range parents {
		if err := s.email.SendAlertEmail(ctx, p.Email, member.Name, alert.Type, alert.Message); err != nil {
			log.Printf("alert %d: failed to email %s: %v", alert.ID, p.Email, err)
		}
	}
}

// List returns the alerts for every member the caller may see, newest first.
// The scope is re-derived from the family graph on every call.
func (s *AlertService) List(userID string) ([]models.Alert, error) {
	memberIDs, err := s.guard.authorizedMemberIDs(userID)
	if err != nil {
		return nil, err
	}
	alerts, err := s.alerts.GetAlertsByMemberIDs(memberIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load alerts", err)
	}
	return alerts, nil
}

// MarkRead flags an alert as read if the caller may see it. Reading an alert
// another session already deleted is a no-op.
func (s *AlertService) MarkRead(userID string, alertID int64) error {
	alert, err := s.requireAlertAccess(userID, alertID)
	if apperr.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.alerts.MarkRead(alert.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to mark alert read", err)
	}
	return nil
}

// Delete removes an alert if the caller may see it
func (s *AlertService) Delete(userID string, alertID int64) error {
	alert, err := s.requireAlertAccess(userID, alertID)
	if err != nil {
		return err
	}
	if err := s.alerts.DeleteAlert(alert.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete alert", err)
	}
	s.hub.Publish(realtime.Event{
		Table: "alerts",
		Type:  realtime.EventDelete,
		Row:   alert,
		Keys:  map[string]string{"member_id": strconv.FormatInt(alert.MemberID, 10)},
	})
	return nil
}

func (s *AlertService) requireAlertAccess(userID string, alertID int64) (*models.Alert, error) {
	alert, err := s.alerts.GetAlertByID(alertID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load alert", err)
	}
	if alert == nil {
		return nil, apperr.New(apperr.KindNotFound, "alert not found")
	}
	if _, err := s.guard.requireMemberAccess(userID, alert.MemberID); err != nil {
		return nil, err
	}
	return alert, nil
}
