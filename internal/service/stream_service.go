package service

import (
	"strconv"

	"familysafe/internal/apperr"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
)

// StreamService derives the event subscriptions a connection is entitled
// to: its family's member rows, its own conversations, its groups and the
// presence of accounts it is linked with.
type StreamService struct {
	links  *repository.LinkRepository
	groups *repository.GroupRepository
	guard  *graphGuard
	tokens *realtime.TokenIssuer
}

// NewStreamService creates a new stream service
func NewStreamService(
	links *repository.LinkRepository,
	members *repository.MemberRepository,
	groups *repository.GroupRepository,
	tokens *realtime.TokenIssuer,
) *StreamService {
	return &StreamService{
		links:  links,
		groups: groups,
		guard:  newGraphGuard(links, members),
		tokens: tokens,
	}
}

// IssueToken mints a connection token for the user
func (s *StreamService) IssueToken(userID string) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return "", apperr.Wrap(apperr.KindTransient, "failed to issue stream token", err)
	}
	return token, nil
}

// VerifyToken checks a connection token and returns its user id
func (s *StreamService) VerifyToken(token string) (string, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPermission, "invalid stream token", err)
	}
	return userID, nil
}

// FiltersFor builds the subscription filters a user's connection gets. The
// scope is derived fresh on every connect, so a reconnect after a graph
// change picks up the new family shape.
func (s *StreamService) FiltersFor(userID string) ([]realtime.Filter, error) {
	var filters []realtime.Filter

	memberIDs, err := s.guard.authorizedMemberIDs(userID)
	if err != nil {
		return nil, err
	}
	for _, id := range memberIDs {
		key := strconv.FormatInt(id, 10)
		filters = append(filters,
			realtime.Filter{Table: "members", Column: "id", Value: key},
			realtime.Filter{Table: "location_history", Column: "member_id", Value: key},
			realtime.Filter{Table: "alerts", Column: "member_id", Value: key},
		)
	}

	filters = append(filters,
		realtime.Filter{Table: "messages", Column: "to_user_id", Value: userID},
		realtime.Filter{Table: "messages", Column: "from_user_id", Value: userID},
	)

	peerIDs, err := s.familyUserIDs(userID)
	if err != nil {
		return nil, err
	}
	for _, id := range peerIDs {
		filters = append(filters, realtime.Filter{Table: "user_presence", Column: "user_id", Value: id})
	}

	groups, err := s.groups.GetGroupsForUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load groups", err)
	}
	for _, g := range groups {
		key := strconv.FormatInt(g.ID, 10)
		filters = append(filters,
			realtime.Filter{Table: "group_messages", Column: "group_id", Value: key},
			realtime.Filter{Table: "group_message_reads", Column: "group_id", Value: key},
			realtime.Filter{Table: "groups", Column: "group_id", Value: key},
		)
	}

	return filters, nil
}

// familyUserIDs returns the account ids linked to the user in either
// direction.
func (s *StreamService) familyUserIDs(userID string) ([]string, error) {
	children, err := s.links.GetChildIDs(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load family links", err)
	}
	parents, err := s.links.GetParentIDs(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load family links", err)
	}
	return append(children, parents...), nil
}
