package service

import (
	"strings"
	"sync"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/repository"
	"familysafe/internal/validation"
)

// historyLimit caps how many trail entries ride along with each roster row.
const historyLimit = 50

// RosterService builds the per-parent view of the family: which children are
// linked, where they are, what their day looks like.
type RosterService struct {
	profiles     *repository.ProfileRepository
	members      *repository.MemberRepository
	links        *repository.LinkRepository
	schedules    *repository.ScheduleRepository
	destinations *repository.DestinationRepository
	history      *repository.HistoryRepository
	guard        *graphGuard
}

// NewRosterService creates a new roster service
func NewRosterService(
	profiles *repository.ProfileRepository,
	members *repository.MemberRepository,
	links *repository.LinkRepository,
	schedules *repository.ScheduleRepository,
	destinations *repository.DestinationRepository,
	history *repository.HistoryRepository,
) *RosterService {
	return &RosterService{
		profiles:     profiles,
		members:      members,
		links:        links,
		schedules:    schedules,
		destinations: destinations,
		history:      history,
		guard:        newGraphGuard(links, members),
	}
}

// EnsureMember returns the member row for a child account, creating it on
// first login. A creation failure surfaces instead of leaving the child in
// a half-onboarded state.
func (s *RosterService) EnsureMember(profile *models.Profile) (*models.Member, error) {
	if profile.Role != models.RoleChild {
		return nil, apperr.New(apperr.KindPermission, "only child accounts have a member row")
	}

	member, err := s.members.GetMemberByUserID(profile.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load member", err)
	}
	if member != nil {
		return member, nil
	}

	member, err = s.members.CreateMember(&models.Member{
		UserID:     profile.ID,
		Name:       profile.Name,
		Status:     models.StatusSafe,
		Latitude:   35.6812,
		Longitude:  139.7671,
		Battery:    100,
		GPSEnabled: false,
		LastUpdate: time.Now(),
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create member", err)
	}
	return member, nil
}

// LinkChild connects a parent to a child account by its id. The id is
// validated by shape only; the link succeeds for any existing child account
// with that id.
func (s *RosterService) LinkChild(parentID, childUserID string) error {
	childUserID = strings.ToLower(strings.TrimSpace(childUserID))
	if err := validation.ValidateUserID(childUserID); err != nil {
		return err
	}
	if childUserID == parentID {
		return apperr.New(apperr.KindValidation, "cannot link your own account")
	}

	child, err := s.profiles.GetProfileByID(childUserID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to look up child", err)
	}
	if child == nil {
		return apperr.New(apperr.KindNotFound, "no account with that id")
	}
	if child.Role == models.RoleParent {
		return apperr.New(apperr.KindValidation, "that id belongs to a parent account")
	}

	exists, err := s.links.LinkExists(parentID, childUserID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check link", err)
	}
	if exists {
		return apperr.New(apperr.KindConflict, "child already linked")
	}

	if _, err := s.links.CreateLink(parentID, childUserID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to create link", err)
	}
	return nil
}

// UnlinkChild removes the parent-child connection
func (s *RosterService) UnlinkChild(parentID, childUserID string) error {
	if err := s.links.DeleteLink(parentID, childUserID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to remove link", err)
	}
	return nil
}

// GetRoster returns the hydrated view of every child linked to the parent.
// Each child's schedule, destination and trail load concurrently; one
// child's failure fails the whole roster rather than serving a partial one.
func (s *RosterService) GetRoster(parentID string) ([]models.MemberView, error) {
	childIDs, err := s.links.GetChildIDs(parentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load family links", err)
	}
	if len(childIDs) == 0 {
		return nil, nil
	}

	members, err := s.members.GetMembersByUserIDs(childIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load members", err)
	}
	profiles, err := s.profiles.GetProfilesByIDs(childIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load profiles", err)
	}
	avatars := make(map[string]string, len(profiles))
	for _, p := range profiles {
		avatars[p.ID] = p.AvatarURL
	}

	views := make([]models.MemberView, len(members))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, m := range members {
		views[i] = models.MemberView{Member: m, AvatarURL: avatars[m.UserID]}
		wg.Add(1)
		go func(i int, memberID int64) {
			defer wg.Done()
			view, err := s.hydrate(memberID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			views[i].Schedule = view.Schedule
			views[i].Destination = view.Destination
			views[i].History = view.History
		}(i, m.ID)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return views, nil
}

// GetMemberView returns the hydrated view of a single member the caller may
// see.
func (s *RosterService) GetMemberView(userID string, memberID int64) (*models.MemberView, error) {
	member, err := s.guard.requireMemberAccess(userID, memberID)
	if err != nil {
		return nil, err
	}
	hydrated, err := s.hydrate(member.ID)
	if err != nil {
		return nil, err
	}
	hydrated.Member = *member

	profile, err := s.profiles.GetProfileByID(member.UserID)
	if err == nil && profile != nil {
		hydrated.AvatarURL = profile.AvatarURL
	}
	return hydrated, nil
}

func (s *RosterService) hydrate(memberID int64) (*models.MemberView, error) {
	view := &models.MemberView{}

	schedules, err := s.schedules.GetSchedulesForDate(memberID, todayDate())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load schedules", err)
	}
	view.Schedule = schedules

	destinations, err := s.destinations.GetDestinationsByMember(memberID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load destinations", err)
	}
	for i := range destinations {
		if destinations[i].IsActive {
			view.Destination = &destinations[i]
			break
		}
	}

	history, err := s.history.GetRecent(memberID, historyLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load history", err)
	}
	view.History = history
	return view, nil
}
