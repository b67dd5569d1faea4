package service

import (
	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/repository"
)

// graphGuard answers the authorization question every member-scoped
// operation asks: is this caller allowed to touch this member row?
// A child may touch their own row; a parent may touch the rows of
// linked children only.
type graphGuard struct {
	links   *repository.LinkRepository
	members *repository.MemberRepository
}

func newGraphGuard(links *repository.LinkRepository, members *repository.MemberRepository) *graphGuard {
	return &graphGuard{links: links, members: members}
}

// authorizedMemberIDs returns the member row ids a user may see: their own
// row if they have one, plus the rows of every linked child.
func (g *graphGuard) authorizedMemberIDs(userID string) ([]int64, error) {
	var ids []int64

	own, err := g.members.GetMemberByUserID(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load member", err)
	}
	if own != nil {
		ids = append(ids, own.ID)
	}

	childIDs, err := g.links.GetChildIDs(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load family links", err)
	}
	if len(childIDs) > 0 {
		members, err := g.members.GetMembersByUserIDs(childIDs)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransient, "failed to load members", err)
		}
		for _, m := range members {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// requireMemberAccess loads a member row and verifies the caller may act on
// it. The same error shape comes back for missing rows and foreign rows so
// probing cannot distinguish them.
func (g *graphGuard) requireMemberAccess(userID string, memberID int64) (*models.Member, error) {
	member, err := g.members.GetMemberByID(memberID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load member", err)
	}
	if member == nil {
		return nil, apperr.New(apperr.KindNotFound, "member not found")
	}
	if member.UserID == userID {
		return member, nil
	}

	linked, err := g.links.LinkExists(userID, member.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to check family link", err)
	}
	if !linked {
		return nil, apperr.New(apperr.KindNotFound, "member not found")
	}
	return member, nil
}
