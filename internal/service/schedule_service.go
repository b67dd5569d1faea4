package service

import (
	"regexp"
	"strings"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/repository"
	"familysafe/internal/validation"
)

var (
	dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRegex = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// ScheduleService manages schedule items and saved destinations for members.
// Both are member-scoped: the caller must be the child or a linked parent.
type ScheduleService struct {
	schedules    *repository.ScheduleRepository
	destinations *repository.DestinationRepository
	guard        *graphGuard
}

// NewScheduleService creates a new schedule service
func NewScheduleService(
	schedules *repository.ScheduleRepository,
	destinations *repository.DestinationRepository,
	links *repository.LinkRepository,
	members *repository.MemberRepository,
) *ScheduleService {
	return &ScheduleService{
		schedules:    schedules,
		destinations: destinations,
		guard:        newGraphGuard(links, members),
	}
}

// AddSchedule creates a schedule item for a member the caller may act on
func (s *ScheduleService) AddSchedule(userID string, item *models.Schedule) (*models.Schedule, error) {
	if err := validateScheduleItem(item); err != nil {
		return nil, err
	}
	if _, err := s.guard.requireMemberAccess(userID, item.MemberID); err != nil {
		return nil, err
	}
	created, err := s.schedules.CreateSchedule(item)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create schedule", err)
	}
	return created, nil
}

// ListSchedules returns a member's schedule items for today. Past and future
// items stay writable but never show on the read side.
func (s *ScheduleService) ListSchedules(userID string, memberID int64) ([]models.Schedule, error) {
	if _, err := s.guard.requireMemberAccess(userID, memberID); err != nil {
		return nil, err
	}
	items, err := s.schedules.GetSchedulesForDate(memberID, todayDate())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load schedules", err)
	}
	return items, nil
}

// UpdateSchedule rewrites a schedule item
func (s *ScheduleService) UpdateSchedule(userID string, item *models.Schedule) error {
	if err := validateScheduleItem(item); err != nil {
		return err
	}
	existing, err := s.requireSchedule(userID, item.ID)
	if err != nil {
		return err
	}
	item.MemberID = existing.MemberID
	if err := s.schedules.UpdateSchedule(item); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to update schedule", err)
	}
	return nil
}

// SetScheduleCompleted toggles the done flag on a schedule item
func (s *ScheduleService) SetScheduleCompleted(userID string, scheduleID int64, completed bool) error {
	item, err := s.requireSchedule(userID, scheduleID)
	if err != nil {
		return err
	}
	item.Completed = completed
	if err := s.schedules.UpdateSchedule(item); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to update schedule", err)
	}
	return nil
}

// DeleteSchedule removes a schedule item
func (s *ScheduleService) DeleteSchedule(userID string, scheduleID int64) error {
	if _, err := s.requireSchedule(userID, scheduleID); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedule(scheduleID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete schedule", err)
	}
	return nil
}

// AddDestination saves a place for a member. A new destination starts
// active, displacing any previous one.
func (s *ScheduleService) AddDestination(userID string, d *models.Destination) (*models.Destination, error) {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return nil, apperr.New(apperr.KindValidation, "destination name is required")
	}
	if err := validation.ValidateCoordinates(d.Latitude, d.Longitude); err != nil {
		return nil, err
	}
	if _, err := s.guard.requireMemberAccess(userID, d.MemberID); err != nil {
		return nil, err
	}

	d.IsActive = true
	created, err := s.destinations.CreateDestination(d)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create destination", err)
	}
	if err := s.destinations.SetActive(d.MemberID, created.ID); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to activate destination", err)
	}
	return created, nil
}

// ListDestinations returns a member's saved places
func (s *ScheduleService) ListDestinations(userID string, memberID int64) ([]models.Destination, error) {
	if _, err := s.guard.requireMemberAccess(userID, memberID); err != nil {
		return nil, err
	}
	items, err := s.destinations.GetDestinationsByMember(memberID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load destinations", err)
	}
	return items, nil
}

// ActivateDestination makes one saved place the active target
func (s *ScheduleService) ActivateDestination(userID string, destinationID int64) error {
	d, err := s.requireDestination(userID, destinationID)
	if err != nil {
		return err
	}
	if err := s.destinations.SetActive(d.MemberID, d.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to activate destination", err)
	}
	return nil
}

// DeleteDestination removes a saved place
func (s *ScheduleService) DeleteDestination(userID string, destinationID int64) error {
	if _, err := s.requireDestination(userID, destinationID); err != nil {
		return err
	}
	if err := s.destinations.DeleteDestination(destinationID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete destination", err)
	}
	return nil
}

func (s *ScheduleService) requireSchedule(userID string, scheduleID int64) (*models.Schedule, error) {
	item, err := s.schedules.GetScheduleByID(scheduleID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load schedule", err)
	}
	if item == nil {
		return nil, apperr.New(apperr.KindNotFound, "schedule not found")
	}
	if _, err := s.guard.requireMemberAccess(userID, item.MemberID); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ScheduleService) requireDestination(userID string, destinationID int64) (*models.Destination, error) {
	d, err := s.destinations.GetDestinationByID(destinationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load destination", err)
	}
	if d == nil {
		return nil, apperr.New(apperr.KindNotFound, "destination not found")
	}
	if _, err := s.guard.requireMemberAccess(userID, d.MemberID); err != nil {
		return nil, err
	}
	return d, nil
}

func todayDate() string {
	return time.Now().Format("2006-01-02")
}

func validateScheduleItem(item *models.Schedule) error {
	if strings.TrimSpace(item.Title) == "" {
		return apperr.New(apperr.KindValidation, "title is required")
	}
	if !dateRegex.MatchString(item.Date) {
		return apperr.Validationf("date %q is not YYYY-MM-DD", item.Date)
	}
	if !timeRegex.MatchString(item.Time) {
		return apperr.Validationf("time %q is not HH:MM", item.Time)
	}
	return nil
}
