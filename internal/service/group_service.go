package service

import (
	"context"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/BaiduAV/DividaFacil/internal/calculator"
	"github.com/BaiduAV/DividaFacil/internal/models"
	"github.com/BaiduAV/DividaFacil/internal/money"
	"github.com/BaiduAV/DividaFacil/internal/storage"
	"github.com/BaiduAV/DividaFacil/pkg/api"
)

var _ api.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store  storage.Store
	ledger *Ledger
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, ledger *Ledger) *GroupService {
	return &GroupService{store: store, ledger: ledger}
}

// CreateGroup creates a new group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}

	members := dedupe(append([]string{userID}, req.Msg.Members...))
	if err := s.checkUsersExist(ctx, members); err != nil {
		return nil, err
	}

	group := &models.Group{Name: name, Members: members}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)
	return connect.NewResponse(&api.CreateGroupResponse{Group: toAPIGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.GetGroupResponse{Group: toAPIGroup(group)}), nil
}

// ListGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		slog.Error("ListGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g)
	}

	slog.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// AddMembers adds users to a group and recomputes its ledger so the new
// members have a row.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	slog.Info("AddMembers request received", "group_id", req.Msg.GroupID, "members_count", len(req.Msg.Members))

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	members := dedupe(req.Msg.Members)
	if len(members) == 0 {
		return nil, invalidArgument("at least one member is required")
	}
	if err := s.checkUsersExist(ctx, members); err != nil {
		return nil, err
	}

	if err := s.store.AddMembers(ctx, req.Msg.GroupID, members); err != nil {
		slog.Error("AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	group, err := s.ledger.Recompute(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("Recompute after AddMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Members added", "group_id", group.ID, "members_count", len(group.Members))
	return connect.NewResponse(&api.AddMembersResponse{Group: toAPIGroup(group)}), nil
}

// UpdateGroup renames a group.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.UpdateGroupResponse], error) {
	slog.Info("UpdateGroup request received", "group_id", req.Msg.GroupID, "name", req.Msg.Name)

	group, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("group name is required")
	}

	group.Name = name
	if err := s.store.UpdateGroup(ctx, group); err != nil {
		slog.Error("UpdateGroup failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group updated", "group_id", group.ID)
	return connect.NewResponse(&api.UpdateGroupResponse{Group: toAPIGroup(group)}), nil
}

// DeleteGroup removes a settled group with all its expenses. A group where
// someone still owes money is refused with FailedPrecondition.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[api.DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	if err := s.ledger.Delete(ctx, req.Msg.GroupID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)
	return connect.NewResponse(&api.DeleteGroupResponse{}), nil
}

// GetBalances returns the group's pairwise ledger, each member's net position
// and the simplified payments that settle the group.
func (s *GroupService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	slog.Info("GetBalances request received", "group_id", req.Msg.GroupID)

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	settlement, err := s.ledger.Settle(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetBalances failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetBalances successful",
		"group_id", req.Msg.GroupID,
		"transactions", len(settlement.Transactions),
	)
	return connect.NewResponse(&api.GetBalancesResponse{
		Balances:     map[string]map[string]money.Money(settlement.Group.Balances),
		Net:          settlement.Net,
		Transactions: toAPITransactions(settlement.Transactions),
	}), nil
}

// GetMonthlyAnalysis returns what each member owes or is owed per month.
func (s *GroupService) GetMonthlyAnalysis(ctx context.Context, req *connect.Request[api.GetMonthlyAnalysisRequest]) (*connect.Response[api.GetMonthlyAnalysisResponse], error) {
	slog.Info("GetMonthlyAnalysis request received", "group_id", req.Msg.GroupID)

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}

	months, err := s.ledger.Monthly(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetMonthlyAnalysis failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.MonthlyAnalysis, len(months))
	for i, m := range months {
		out[i] = &api.MonthlyAnalysis{
			Month:        m.Month,
			Balances:     m.Balances,
			Transactions: toAPITransactions(m.Transactions),
		}
	}
	return connect.NewResponse(&api.GetMonthlyAnalysisResponse{Months: out}), nil
}

// GetStatistics returns group totals and the caller's own summary.
func (s *GroupService) GetStatistics(ctx context.Context, req *connect.Request[api.GetStatisticsRequest]) (*connect.Response[api.GetStatisticsResponse], error) {
	slog.Info("GetStatistics request received", "group_id", req.Msg.GroupID)

	if _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	userID, _ := callerID(ctx)

	group, err := s.store.LoadGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	stats, err := calculator.ComputeGroupStatistics(group)
	if err != nil {
		slog.Error("GetStatistics failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	summary, err := calculator.ComputeUserSummary(userID, group)
	if err != nil {
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetStatisticsResponse{
		Statistics: toAPIStatistics(stats),
		Summary:    toAPISummary(summary),
	}), nil
}

// memberGroup is requireMember bound to the service store.
func (s *GroupService) memberGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return requireMember(ctx, s.store, groupID)
}

func (s *GroupService) checkUsersExist(ctx context.Context, ids []string) error {
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return toConnectError(err)
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return invalidArgument("unknown user %q", id)
		}
	}
	return nil
}

// requireMember loads a group and checks that the caller belongs to it.
func requireMember(ctx context.Context, store storage.Store, groupID string) (*models.Group, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if groupID == "" {
		return nil, invalidArgument("group_id is required")
	}

	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if !group.HasMember(userID) {
		slog.Warn("Non-member access denied", "group_id", groupID, "user_id", userID)
		return nil, toConnectError(errNotMember)
	}
	return group, nil
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
