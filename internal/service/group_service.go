package service

import (
	"strconv"
	"strings"
	"time"

	"familysafe/internal/apperr"
	"familysafe/internal/models"
	"familysafe/internal/realtime"
	"familysafe/internal/repository"
)

// groupMessagePage caps how many messages load per group fetch.
const groupMessagePage = 100

// GroupService handles group chat lifecycle, membership and messages.
// The creator is the admin; membership changes and renames are theirs alone
// until ownership transfers.
type GroupService struct {
	groups *repository.GroupRepository
	hub    *realtime.Hub
}

// NewGroupService creates a new group service
func NewGroupService(groups *repository.GroupRepository, hub *realtime.Hub) *GroupService {
	return &GroupService{groups: groups, hub: hub}
}

// Create makes a new group with the caller as admin and first member
func (s *GroupService) Create(userID, name, avatarURL string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, "group name is required")
	}
	group, err := s.groups.CreateGroup(name, avatarURL, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to create group", err)
	}
	return group, nil
}

// ListForUser returns the groups the caller belongs to
func (s *GroupService) ListForUser(userID string) ([]models.Group, error) {
	groups, err := s.groups.GetGroupsForUser(userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load groups", err)
	}
	return groups, nil
}

// Update renames a group. Admin only.
func (s *GroupService) Update(userID string, groupID int64, name, avatarURL string) error {
	group, err := s.requireAdmin(userID, groupID)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = group.Name
	}
	if avatarURL == "" {
		avatarURL = group.AvatarURL
	}
	if err := s.groups.UpdateGroup(groupID, name, avatarURL); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to update group", err)
	}
	return nil
}

// TransferOwnership hands the admin role to another member
func (s *GroupService) TransferOwnership(userID string, groupID int64, newOwnerID string) error {
	if _, err := s.requireAdmin(userID, groupID); err != nil {
		return err
	}
	isMember, err := s.groups.IsMember(groupID, newOwnerID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check membership", err)
	}
	if !isMember {
		return apperr.New(apperr.KindValidation, "new owner must already be a member")
	}
	if err := s.groups.TransferOwnership(groupID, newOwnerID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to transfer ownership", err)
	}
	return nil
}

// Delete removes a group and everything under it. Admin only.
func (s *GroupService) Delete(userID string, groupID int64) error {
	if _, err := s.requireAdmin(userID, groupID); err != nil {
		return err
	}
	if err := s.groups.DeleteGroup(groupID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete group", err)
	}
	s.hub.Publish(realtime.Event{
		Table: "groups",
		Type:  realtime.EventDelete,
		Row:   map[string]int64{"id": groupID},
		Keys:  map[string]string{"group_id": strconv.FormatInt(groupID, 10)},
	})
	return nil
}

// AddMember enrolls a user. Admin only.
func (s *GroupService) AddMember(userID string, groupID int64, newUserID string) error {
	if _, err := s.requireAdmin(userID, groupID); err != nil {
		return err
	}
	isMember, err := s.groups.IsMember(groupID, newUserID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check membership", err)
	}
	if isMember {
		return apperr.New(apperr.KindConflict, "already a member")
	}
	if err := s.groups.AddMember(groupID, newUserID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to add member", err)
	}
	return nil
}

// RemoveMember drops a user from the group. The admin may remove anyone;
// everyone else may only remove themselves. The admin cannot leave without
// transferring ownership first.
func (s *GroupService) RemoveMember(userID string, groupID int64, targetUserID string) error {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return err
	}
	if userID != group.CreatedBy && userID != targetUserID {
		return apperr.New(apperr.KindPermission, "only the admin may remove other members")
	}
	if targetUserID == group.CreatedBy {
		return apperr.New(apperr.KindConflict, "transfer ownership before leaving")
	}
	if err := s.groups.RemoveMember(groupID, targetUserID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to remove member", err)
	}
	return nil
}

// MemberIDs returns the user ids enrolled in a group the caller belongs to
func (s *GroupService) MemberIDs(userID string, groupID int64) ([]string, error) {
	if err := s.requireMember(userID, groupID); err != nil {
		return nil, err
	}
	ids, err := s.groups.GetMemberIDs(groupID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load members", err)
	}
	return ids, nil
}

// SendMessage posts a message to a group the caller belongs to
func (s *GroupService) SendMessage(userID string, groupID int64, text string) (*models.GroupMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "message text is required")
	}
	if err := s.requireMember(userID, groupID); err != nil {
		return nil, err
	}
	message, err := s.groups.CreateGroupMessage(groupID, userID, text)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to send message", err)
	}
	s.publishMessage(realtime.EventInsert, message)
	return message, nil
}

// Messages returns the newest page of messages for a group the caller
// belongs to, each with its read receipts attached.
func (s *GroupService) Messages(userID string, groupID int64) ([]models.GroupMessage, error) {
	if err := s.requireMember(userID, groupID); err != nil {
		return nil, err
	}
	messages, err := s.groups.GetGroupMessages(groupID, groupMessagePage)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load messages", err)
	}
	return messages, nil
}

// EditMessage rewrites a group message body. Only the sender may edit.
func (s *GroupService) EditMessage(userID string, messageID int64, text string) (*models.GroupMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.New(apperr.KindValidation, "message text is required")
	}
	message, err := s.requireMessageSender(userID, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.groups.UpdateGroupMessageText(message.ID, text); err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to edit message", err)
	}

	updated, err := s.groups.GetGroupMessageByID(message.ID)
	if err != nil || updated == nil {
		now := time.Now()
		updated = message
		updated.Text = text
		updated.Edited = true
		updated.EditedAt = &now
	}
	s.publishMessage(realtime.EventUpdate, updated)
	return updated, nil
}

// DeleteMessage removes a group message. Only the sender may delete.
func (s *GroupService) DeleteMessage(userID string, messageID int64) error {
	message, err := s.requireMessageSender(userID, messageID)
	if err != nil {
		return err
	}
	if err := s.groups.DeleteGroupMessage(message.ID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to delete message", err)
	}
	s.publishMessage(realtime.EventDelete, message)
	return nil
}

// MarkMessageRead records a read receipt for the caller. Repeated reads are
// no-ops; a reader counts once no matter how often the chat reopens.
func (s *GroupService) MarkMessageRead(userID string, messageID int64) error {
	message, err := s.groups.GetGroupMessageByID(messageID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to load message", err)
	}
	if message == nil {
		return apperr.New(apperr.KindNotFound, "message not found")
	}
	if err := s.requireMember(userID, message.GroupID); err != nil {
		return err
	}
	if err := s.groups.MarkMessageRead(messageID, userID); err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to mark message read", err)
	}
	s.hub.Publish(realtime.Event{
		Table: "group_message_reads",
		Type:  realtime.EventInsert,
		Row:   models.GroupMessageRead{MessageID: messageID, UserID: userID},
		Keys:  map[string]string{"group_id": strconv.FormatInt(message.GroupID, 10)},
	})
	return nil
}

func (s *GroupService) requireGroup(groupID int64) (*models.Group, error) {
	group, err := s.groups.GetGroupByID(groupID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load group", err)
	}
	if group == nil {
		return nil, apperr.New(apperr.KindNotFound, "group not found")
	}
	return group, nil
}

func (s *GroupService) requireAdmin(userID string, groupID int64) (*models.Group, error) {
	group, err := s.requireGroup(groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, apperr.New(apperr.KindPermission, "only the group admin may do that")
	}
	return group, nil
}

func (s *GroupService) requireMessageSender(userID string, messageID int64) (*models.GroupMessage, error) {
	message, err := s.groups.GetGroupMessageByID(messageID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, "failed to load message", err)
	}
	if message == nil {
		return nil, apperr.New(apperr.KindNotFound, "message not found")
	}
	if message.FromUserID != userID {
		return nil, apperr.New(apperr.KindPermission, "only the sender may change a message")
	}
	return message, nil
}

func (s *GroupService) requireMember(userID string, groupID int64) error {
	isMember, err := s.groups.IsMember(groupID, userID)
	if err != nil {
		return apperr.Wrap(apperr.KindTransient, "failed to check membership", err)
	}
	if !isMember {
		return apperr.New(apperr.KindPermission, "not a member of this group")
	}
	return nil
}

func (s *GroupService) publishMessage(eventType string, m *models.GroupMessage) {
	s.hub.Publish(realtime.Event{
		Table: "group_messages",
		Type:  eventType,
		Row:   m,
		Keys:  map[string]string{"group_id": strconv.FormatInt(m.GroupID, 10)},
	})
}
