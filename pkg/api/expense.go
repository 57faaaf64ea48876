package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/BaiduAV/DividaFacil/internal/money"
)

const (
	// ExpenseServiceName is the fully-qualified name of the ExpenseService.
	ExpenseServiceName = "dividafacil.v1.ExpenseService"

	ExpenseServiceCreateExpenseProcedure       = "/dividafacil.v1.ExpenseService/CreateExpense"
	ExpenseServiceGetExpenseProcedure          = "/dividafacil.v1.ExpenseService/GetExpense"
	ExpenseServiceUpdateExpenseProcedure       = "/dividafacil.v1.ExpenseService/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure       = "/dividafacil.v1.ExpenseService/DeleteExpense"
	ExpenseServiceListExpensesProcedure        = "/dividafacil.v1.ExpenseService/ListExpenses"
	ExpenseServicePayInstallmentProcedure      = "/dividafacil.v1.ExpenseService/PayInstallment"
	ExpenseServiceGetExpenseRemainingProcedure = "/dividafacil.v1.ExpenseService/GetExpenseRemaining"
)

// DateLayout is the format of due dates on the wire.
const DateLayout = time.DateOnly

type Installment struct {
	Number  int         `json:"number"`
	DueDate string      `json:"due_date"`
	Amount  money.Money `json:"amount"`
	Paid    bool        `json:"paid"`
	PaidAt  *time.Time  `json:"paid_at,omitempty"`
}

type Expense struct {
	ID               string             `json:"id"`
	GroupID          string             `json:"group_id"`
	Description      string             `json:"description"`
	Amount           money.Money        `json:"amount"`
	PayerID          string             `json:"payer_id"`
	Participants     []string           `json:"participants"`
	SplitRule        string             `json:"split_rule"`
	SplitValues      map[string]float64 `json:"split_values,omitempty"`
	CreatedBy        string             `json:"created_by,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	InstallmentCount int                `json:"installment_count"`
	FirstDueDate     string             `json:"first_due_date,omitempty"`
	Installments     []*Installment     `json:"installments,omitempty"`
}

// ExpenseInput carries the editable fields of an expense.
type ExpenseInput struct {
	Description  string             `json:"description"`
	Amount       money.Money        `json:"amount"`
	PayerID      string             `json:"payer_id"`
	Participants []string           `json:"participants"`
	SplitRule    string             `json:"split_rule"`
	SplitValues  map[string]float64 `json:"split_values,omitempty"`
	// InstallmentCount defaults to 1 (a single payment).
	InstallmentCount int `json:"installment_count,omitempty"`
	// FirstDueDate (YYYY-MM-DD) dates the expense and starts its installment
	// schedule. It defaults to the creation day on create and to the stored
	// date on update.
	FirstDueDate string `json:"first_due_date,omitempty"`
}

type CreateExpenseRequest struct {
	GroupID string `json:"group_id"`
	ExpenseInput
}

type CreateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type UpdateExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
	ExpenseInput
}

type UpdateExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expense_id"`
}

type DeleteExpenseResponse struct{}

type ListExpensesRequest struct {
	GroupID string `json:"group_id"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type PayInstallmentRequest struct {
	ExpenseID string `json:"expense_id"`
	Number    int    `json:"number"`
}

type PayInstallmentResponse struct {
	Expense *Expense `json:"expense"`
}

type GetExpenseRemainingRequest struct {
	ExpenseID string `json:"expense_id"`
}

type GetExpenseRemainingResponse struct {
	// Remaining maps each participant to what they still owe the payer.
	Remaining map[string]money.Money `json:"remaining"`
	// Unpaid is the total of unpaid installments (the full amount otherwise).
	Unpaid money.Money `json:"unpaid"`
}

// ExpenseServiceHandler is implemented by the server.
type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	PayInstallment(context.Context, *connect.Request[PayInstallmentRequest]) (*connect.Response[PayInstallmentResponse], error)
	GetExpenseRemaining(context.Context, *connect.Request[GetExpenseRemainingRequest]) (*connect.Response[GetExpenseRemainingResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler for svc and returns the path to mount it on.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+ExpenseServiceName+"/", map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceGetExpenseProcedure:          connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...),
		ExpenseServiceUpdateExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...),
		ExpenseServiceDeleteExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
		ExpenseServiceListExpensesProcedure:        connect.NewUnaryHandler(ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts...),
		ExpenseServicePayInstallmentProcedure:      connect.NewUnaryHandler(ExpenseServicePayInstallmentProcedure, svc.PayInstallment, opts...),
		ExpenseServiceGetExpenseRemainingProcedure: connect.NewUnaryHandler(ExpenseServiceGetExpenseRemainingProcedure, svc.GetExpenseRemaining, opts...),
	})
}

// ExpenseServiceClient calls an ExpenseService over HTTP.
type ExpenseServiceClient struct {
	createExpense       *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	getExpense          *connect.Client[GetExpenseRequest, GetExpenseResponse]
	updateExpense       *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense       *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses        *connect.Client[ListExpensesRequest, ListExpensesResponse]
	payInstallment      *connect.Client[PayInstallmentRequest, PayInstallmentResponse]
	getExpenseRemaining *connect.Client[GetExpenseRemainingRequest, GetExpenseRemainingResponse]
}

// NewExpenseServiceClient returns a client for the ExpenseService at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense:       connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:          connect.NewClient[GetExpenseRequest, GetExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		updateExpense:       connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:       connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
		listExpenses:        connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesProcedure, opts...),
		payInstallment:      connect.NewClient[PayInstallmentRequest, PayInstallmentResponse](httpClient, baseURL+ExpenseServicePayInstallmentProcedure, opts...),
		getExpenseRemaining: connect.NewClient[GetExpenseRemainingRequest, GetExpenseRemainingResponse](httpClient, baseURL+ExpenseServiceGetExpenseRemainingProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[GetExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) PayInstallment(ctx context.Context, req *connect.Request[PayInstallmentRequest]) (*connect.Response[PayInstallmentResponse], error) {
	return c.payInstallment.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpenseRemaining(ctx context.Context, req *connect.Request[GetExpenseRemainingRequest]) (*connect.Response[GetExpenseRemainingResponse], error) {
	return c.getExpenseRemaining.CallUnary(ctx, req)
}
