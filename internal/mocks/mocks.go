package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"club-chat-service/internal/models"
	"club-chat-service/internal/repositories"
)

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, actorID int64, spec models.GroupSpec) (models.Group, error) {
	args := m.Called(ctx, actorID, spec)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateGroup(ctx context.Context, groupID, actorID int64, patch models.GroupPatch) (models.Group, error) {
	args := m.Called(ctx, groupID, actorID, patch)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID, actorID int64) error {
	args := m.Called(ctx, groupID, actorID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int64) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForMember(ctx context.Context, memberID int64) ([]models.GroupSummary, error) {
	args := m.Called(ctx, memberID)
	var list []models.GroupSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.GroupSummary)
	}
	return list, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID, memberID int64) (bool, error) {
	args := m.Called(ctx, groupID, memberID)
	return args.Bool(0), args.Error(1)
}

type MembershipRepositoryMock struct {
	mock.Mock
}

func (m *MembershipRepositoryMock) AddMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID, targetID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) JoinGroup(ctx context.Context, groupID, actorID int64) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) RemoveMember(ctx context.Context, groupID, actorID, targetID int64) error {
	args := m.Called(ctx, groupID, actorID, targetID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) PromoteToAdmin(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID, targetID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) DemoteToMember(ctx context.Context, groupID, actorID, targetID int64) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID, targetID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) TransferOwnership(ctx context.Context, groupID, actorID, targetID int64) error {
	args := m.Called(ctx, groupID, actorID, targetID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) LeaveGroup(ctx context.Context, groupID, actorID int64) error {
	args := m.Called(ctx, groupID, actorID)
	return args.Error(0)
}

func (m *MembershipRepositoryMock) UpdateSettings(ctx context.Context, groupID, actorID int64, patch models.MembershipSettingsPatch) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID, patch)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) ListMembers(ctx context.Context, groupID, actorID int64) ([]models.Membership, error) {
	args := m.Called(ctx, groupID, actorID)
	var members []models.Membership
	if val := args.Get(0); val != nil {
		members = val.([]models.Membership)
	}
	return members, args.Error(1)
}

func (m *MembershipRepositoryMock) GetMembership(ctx context.Context, groupID, memberID int64) (models.Membership, error) {
	args := m.Called(ctx, groupID, memberID)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

func (m *MembershipRepositoryMock) MarkRead(ctx context.Context, groupID, actorID int64, upto time.Time) (models.Membership, error) {
	args := m.Called(ctx, groupID, actorID, upto)
	var membership models.Membership
	if val := args.Get(0); val != nil {
		membership = val.(models.Membership)
	}
	return membership, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) SendMessage(ctx context.Context, groupID, actorID int64, draft models.MessageDraft) (models.Message, error) {
	args := m.Called(ctx, groupID, actorID, draft)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) EditMessage(ctx context.Context, messageID, actorID int64, newContent string) (models.Message, error) {
	args := m.Called(ctx, messageID, actorID, newContent)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, messageID, actorID int64) (models.Message, error) {
	args := m.Called(ctx, messageID, actorID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int64) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, groupID, actorID int64, cursor string, limit int) (models.MessagePage, error) {
	args := m.Called(ctx, groupID, actorID, cursor, limit)
	var page models.MessagePage
	if val := args.Get(0); val != nil {
		page = val.(models.MessagePage)
	}
	return page, args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, groupID, memberID int64) (int64, error) {
	args := m.Called(ctx, groupID, memberID)
	return args.Get(0).(int64), args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) ToggleReaction(ctx context.Context, messageID, actorID int64, emoji string) (models.Reaction, bool, error) {
	args := m.Called(ctx, messageID, actorID, emoji)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Bool(1), args.Error(2)
}

func (m *ReactionRepositoryMock) ListReactions(ctx context.Context, messageID int64) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

var _ repositories.GroupRepository = (*GroupRepositoryMock)(nil)
var _ repositories.MembershipRepository = (*MembershipRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
