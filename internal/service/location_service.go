package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
	"familysafe/internal/validation"
)

// arrivalRadiusMeters is how close a fix must land to the active destination
// to count as arrival.
const arrivalRadiusMeters = 100

// LocationService ingests position fixes from child devices and manages the
// tracking flag. The gps_enabled column is the single source of truth for
// whether a device should be watching; flipping it is the only way tracking
// starts or stops.
type LocationService struct {
	members      *repository.MemberRepository
	history      *repository.HistoryRepository
	destinations *repository.DestinationRepository
	hub          *realtime.Hub
	alerts       *AlertService
	guard        *graphGuard
}

// NewLocationService creates a new location service
func NewLocationService(
	members *repository.MemberRepository,
	history *repository.HistoryRepository,
	destinations *repository.DestinationRepository,
	links *repository.LinkRepository,
	hub *realtime.Hub,
	alerts *AlertService,
) *LocationService {
	return &LocationService{
		members:      members,
		history:      history,
		destinations: destinations,
		hub:          hub,
		alerts:       alerts,
		guard:        newGraphGuard(links, members),
	}
}

// RecordPosition ingests a fix from the child's own device: member row
// update, trail append, fan-out, arrival check. A continuous fix reported
// while the tracking flag is off is dropped; the device saw the flag flip
// late. One-shot fixes land regardless of the flag.
func (s *LocationService) RecordPosition(ctx context.Context, userID string, lat, lng float64, address string, battery int, continuous bool) (*models.Member, error) {
	if err := validation.ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}

	member, err := s.members.GetMemberByUserID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load member", err)
	}
	if member == nil {
		return nil, apperr.New(apperr.KindNotFound, "member not found")
	}
	if continuous && !member.GPSEnabled {
		return nil, apperr.New(apperr.KindConflict, "tracking is disabled")
	}

	now := time.Now()
	if err := s.members.UpdateLocation(member.ID, lat, lng, address, battery, now); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to update location", err)
	}
	entry, err := s.history.AddEntry(member.ID, lat, lng, address, now)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to append history", err)
	}

	member.Latitude = lat
	member.Longitude = lng
	member.Address = address
	member.Battery = battery
	member.LastUpdate = now

	memberKey := strconv.FormatInt(member.ID, 10)
	s.hub.Publish(realtime.Event{
		Table: "members",
		Type:  realtime.EventUpdate,
		Row:   member,
		Keys:  map[string]string{"id": memberKey, "user_id": member.UserID},
	})
	s.hub.Publish(realtime.Event{
		Table: "location_history",
		Type:  realtime.EventInsert,
		Row:   entry,
		Keys:  map[string]string{"member_id": memberKey},
	})

	s.checkArrival(ctx, member, lat, lng)
	return member, nil
}

// checkArrival raises an arrival alert when a fix lands inside the active
// destination's radius. The destination deactivates so one trip produces
// one alert.
func (s *LocationService) checkArrival(ctx context.Context, member *models.Member, lat, lng float64) {
	destinations, err := s.destinations.GetDestinationsByMember(member.ID)
	if err != nil {
		log.Printf("member %d: failed to load destinations for arrival check: %v", member.ID, err)
		return
	}
	for _, d := range destinations {
		if !d.IsActive {
			continue
		}
		if DistanceMeters(lat, lng, d.Latitude, d.Longitude) > arrivalRadiusMeters {
			continue
		}
		message := fmt.Sprintf("%s arrived at %s", member.Name, d.Name)
		if _, err := s.alerts.Raise(ctx, member.UserID, member.ID, models.AlertArrival, message); err != nil {
			log.Printf("member %d: failed to raise arrival alert: %v", member.ID, err)
			return
		}
		if err := s.destinations.DeleteDestination(d.ID); err != nil {
			log.Printf("member %d: failed to clear destination %d: %v", member.ID, d.ID, err)
		}
		return
	}
}

// ReportBattery updates the battery level outside of a position fix. Battery
// reports flow even while tracking is off.
func (s *LocationService) ReportBattery(userID string, battery int) error {
	if battery < 0 || battery > 100 {
		return apperr.Validationf("battery %d out of range", battery)
	}
	member, err := s.members.GetMemberByUserID(userID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to load member", err)
	}
	if member == nil {
		return apperr.New(apperr.KindNotFound, "member not found")
	}
	if err := s.members.UpdateBattery(member.ID, battery); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to update battery", err)
	}

	member.Battery = battery
	s.hub.Publish(realtime.Event{
		Table: "members",
		Type:  realtime.EventUpdate,
		Row:   member,
		Keys:  map[string]string{"id": strconv.FormatInt(member.ID, 10), "user_id": member.UserID},
	})
	return nil
}

// SetGPSEnabled flips the tracking flag for a member the caller may act on
func (s *LocationService) SetGPSEnabled(callerID string, memberID int64, enabled bool) (*models.Member, error) {
	member, err := s.guard.requireMemberAccess(callerID, memberID)
	if err != nil {
		return nil, err
	}
	if member.GPSEnabled == enabled {
		return member, nil
	}
	if err := s.members.SetGPSEnabled(member.ID, enabled); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to set tracking flag", err)
	}

	member.GPSEnabled = enabled
	s.hub.Publish(realtime.Event{
		Table: "members",
		Type:  realtime.EventUpdate,
		Row:   member,
		Keys:  map[string]string{"id": strconv.FormatInt(member.ID, 10), "user_id": member.UserID},
	})
	return member, nil
}

// History returns the recent trail for a member the caller may see,
// newest first.
func (s *LocationService) History(callerID string, memberID int64) ([]models.LocationEntry, error) {
	member, err := s.guard.requireMemberAccess(callerID, memberID)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.GetRecent(member.ID, historyLimit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load history", err)
	}
	return entries, nil
}

// DistanceMeters computes the great-circle distance between two coordinates
// using the haversine formula.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusMeters = 6371000

	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
