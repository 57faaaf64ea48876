package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/BaiduAV/DividaFacil/internal/money"
)

const (
	// GroupServiceName is the fully-qualified name of the GroupService.
	GroupServiceName = "dividafacil.v1.GroupService"

	GroupServiceCreateGroupProcedure        = "/dividafacil.v1.GroupService/CreateGroup"
	GroupServiceGetGroupProcedure           = "/dividafacil.v1.GroupService/GetGroup"
	GroupServiceListGroupsProcedure         = "/dividafacil.v1.GroupService/ListGroups"
	GroupServiceAddMembersProcedure         = "/dividafacil.v1.GroupService/AddMembers"
	GroupServiceUpdateGroupProcedure        = "/dividafacil.v1.GroupService/UpdateGroup"
	GroupServiceDeleteGroupProcedure        = "/dividafacil.v1.GroupService/DeleteGroup"
	GroupServiceGetBalancesProcedure        = "/dividafacil.v1.GroupService/GetBalances"
	GroupServiceGetMonthlyAnalysisProcedure = "/dividafacil.v1.GroupService/GetMonthlyAnalysis"
	GroupServiceGetStatisticsProcedure      = "/dividafacil.v1.GroupService/GetStatistics"
)

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Transaction is a suggested payment: From pays Amount to To.
type Transaction struct {
	From   string      `json:"from"`
	To     string      `json:"to"`
	Amount money.Money `json:"amount"`
}

type CreateGroupRequest struct {
	Name string `json:"name"`
	// Members besides the caller, who is always added.
	Members []string `json:"members"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"group_id"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct{}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type AddMembersRequest struct {
	GroupID string   `json:"group_id"`
	Members []string `json:"members"`
}

type AddMembersResponse struct {
	Group *Group `json:"group"`
}

// UpdateGroupRequest renames a group. Membership only grows, through AddMembers.
type UpdateGroupRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

type UpdateGroupResponse struct {
	Group *Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"group_id"`
}

type DeleteGroupResponse struct{}

type GetBalancesRequest struct {
	GroupID string `json:"group_id"`
}

type GetBalancesResponse struct {
	// Balances[a][b] > 0 means b owes a.
	Balances map[string]map[string]money.Money `json:"balances"`
	// Net is each member's overall position; positive means owed.
	Net          map[string]money.Money `json:"net"`
	Transactions []*Transaction         `json:"transactions"`
}

type GetMonthlyAnalysisRequest struct {
	GroupID string `json:"group_id"`
}

// MonthlyAnalysis is one calendar month of obligations.
type MonthlyAnalysis struct {
	Month        string                 `json:"month"`
	Balances     map[string]money.Money `json:"balances"`
	Transactions []*Transaction         `json:"transactions"`
}

type GetMonthlyAnalysisResponse struct {
	// Months in ascending order.
	Months []*MonthlyAnalysis `json:"months"`
}

type GetStatisticsRequest struct {
	GroupID string `json:"group_id"`
}

type GroupStatistics struct {
	TotalExpenses      money.Money `json:"total_expenses"`
	ExpenseCount       int         `json:"expense_count"`
	AverageExpense     money.Money `json:"average_expense"`
	LargestExpenseID   string      `json:"largest_expense_id,omitempty"`
	MostActivePayer    string      `json:"most_active_payer,omitempty"`
	PendingSettlements int         `json:"pending_settlements"`
}

type UserSummary struct {
	UserID     string      `json:"user_id"`
	TotalPaid  money.Money `json:"total_paid"`
	TotalShare money.Money `json:"total_share"`
	Owes       money.Money `json:"owes"`
	Owed       money.Money `json:"owed"`
}

type GetStatisticsResponse struct {
	Statistics *GroupStatistics `json:"statistics"`
	// Summary is the caller's own position.
	Summary *UserSummary `json:"summary"`
}

// GroupServiceHandler is implemented by the server.
type GroupServiceHandler interface {
	CreateGroup(context.Context, *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error)
	GetGroup(context.Context, *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error)
	ListGroups(context.Context, *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error)
	AddMembers(context.Context, *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error)
	UpdateGroup(context.Context, *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error)
	DeleteGroup(context.Context, *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
	GetMonthlyAnalysis(context.Context, *connect.Request[GetMonthlyAnalysisRequest]) (*connect.Response[GetMonthlyAnalysisResponse], error)
	GetStatistics(context.Context, *connect.Request[GetStatisticsRequest]) (*connect.Response[GetStatisticsResponse], error)
}

// NewGroupServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewGroupServiceHandler(svc GroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+GroupServiceName+"/", map[string]http.Handler{
		GroupServiceCreateGroupProcedure:        connect.NewUnaryHandler(GroupServiceCreateGroupProcedure, svc.CreateGroup, opts...),
		GroupServiceGetGroupProcedure:           connect.NewUnaryHandler(GroupServiceGetGroupProcedure, svc.GetGroup, opts...),
		GroupServiceListGroupsProcedure:         connect.NewUnaryHandler(GroupServiceListGroupsProcedure, svc.ListGroups, opts...),
		GroupServiceAddMembersProcedure:         connect.NewUnaryHandler(GroupServiceAddMembersProcedure, svc.AddMembers, opts...),
		GroupServiceUpdateGroupProcedure:        connect.NewUnaryHandler(GroupServiceUpdateGroupProcedure, svc.UpdateGroup, opts...),
		GroupServiceDeleteGroupProcedure:        connect.NewUnaryHandler(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, opts...),
		GroupServiceGetBalancesProcedure:        connect.NewUnaryHandler(GroupServiceGetBalancesProcedure, svc.GetBalances, opts...),
		GroupServiceGetMonthlyAnalysisProcedure: connect.NewUnaryHandler(GroupServiceGetMonthlyAnalysisProcedure, svc.GetMonthlyAnalysis, opts...),
		GroupServiceGetStatisticsProcedure:      connect.NewUnaryHandler(GroupServiceGetStatisticsProcedure, svc.GetStatistics, opts...),
	})
}

// GroupServiceClient calls a GroupService over HTTP.
type GroupServiceClient struct {
	createGroup        *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup           *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups         *connect.Client[ListGroupsRequest, ListGroupsResponse]
	addMembers         *connect.Client[AddMembersRequest, AddMembersResponse]
	updateGroup        *connect.Client[UpdateGroupRequest, UpdateGroupResponse]
	deleteGroup        *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	getBalances        *connect.Client[GetBalancesRequest, GetBalancesResponse]
	getMonthlyAnalysis *connect.Client[GetMonthlyAnalysisRequest, GetMonthlyAnalysisResponse]
	getStatistics      *connect.Client[GetStatisticsRequest, GetStatisticsResponse]
}

// NewGroupServiceClient returns a client for the GroupService at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &GroupServiceClient{
		createGroup:        connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		getGroup:           connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		listGroups:         connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+GroupServiceListGroupsProcedure, opts...),
		addMembers:         connect.NewClient[AddMembersRequest, AddMembersResponse](httpClient, baseURL+GroupServiceAddMembersProcedure, opts...),
		updateGroup:        connect.NewClient[UpdateGroupRequest, UpdateGroupResponse](httpClient, baseURL+GroupServiceUpdateGroupProcedure, opts...),
		deleteGroup:        connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		getBalances:        connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+GroupServiceGetBalancesProcedure, opts...),
		getMonthlyAnalysis: connect.NewClient[GetMonthlyAnalysisRequest, GetMonthlyAnalysisResponse](httpClient, baseURL+GroupServiceGetMonthlyAnalysisProcedure, opts...),
		getStatistics:      connect.NewClient[GetStatisticsRequest, GetStatisticsResponse](httpClient, baseURL+GroupServiceGetStatisticsProcedure, opts...),
	}
}

func (c *GroupServiceClient) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	return c.createGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	return c.getGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	return c.listGroups.CallUnary(ctx, req)
}

func (c *GroupServiceClient) AddMembers(ctx context.Context, req *connect.Request[AddMembersRequest]) (*connect.Response[AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *GroupServiceClient) UpdateGroup(ctx context.Context, req *connect.Request[UpdateGroupRequest]) (*connect.Response[UpdateGroupResponse], error) {
	return c.updateGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	return c.deleteGroup.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetMonthlyAnalysis(ctx context.Context, req *connect.Request[GetMonthlyAnalysisRequest]) (*connect.Response[GetMonthlyAnalysisResponse], error) {
	return c.getMonthlyAnalysis.CallUnary(ctx, req)
}

func (c *GroupServiceClient) GetStatistics(ctx context.Context, req *connect.Request[GetStatisticsRequest]) (*connect.Response[GetStatisticsResponse], error) {
	return c.getStatistics.CallUnary(ctx, req)
}
