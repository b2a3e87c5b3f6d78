// Package service exposes the ledger over Connect RPC.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// LedgerServiceName is the fully-qualified name of the service.
const LedgerServiceName = "splitledger.v1.LedgerService"

// Procedure paths.
const (
	CreateGroupProcedure        = "/" + LedgerServiceName + "/CreateGroup"
	GetGroupProcedure           = "/" + LedgerServiceName + "/GetGroup"
	ListGroupsProcedure         = "/" + LedgerServiceName + "/ListGroups"
	AddMemberProcedure          = "/" + LedgerServiceName + "/AddMember"
	RemoveMemberProcedure       = "/" + LedgerServiceName + "/RemoveMember"
	ComputeSplitsProcedure      = "/" + LedgerServiceName + "/ComputeSplits"
	EditDraftProcedure          = "/" + LedgerServiceName + "/EditDraft"
	ValidateSplitsProcedure     = "/" + LedgerServiceName + "/ValidateSplits"
	CreateExpenseProcedure      = "/" + LedgerServiceName + "/CreateExpense"
	UpdateExpenseProcedure      = "/" + LedgerServiceName + "/UpdateExpense"
	DeleteExpenseProcedure      = "/" + LedgerServiceName + "/DeleteExpense"
	ListExpensesProcedure       = "/" + LedgerServiceName + "/ListExpenses"
	GetGroupBalancesProcedure   = "/" + LedgerServiceName + "/GetGroupBalances"
	RecordSettlementProcedure   = "/" + LedgerServiceName + "/RecordSettlement"
	CompleteSettlementProcedure = "/" + LedgerServiceName + "/CompleteSettlement"
	DeleteSettlementProcedure   = "/" + LedgerServiceName + "/DeleteSettlement"
	ListSettlementsProcedure    = "/" + LedgerServiceName + "/ListSettlements"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	ledger *ledger.Service
}

// NewLedgerService creates a new LedgerService over the given ledger.
func NewLedgerService(l *ledger.Service) *LedgerService {
	return &LedgerService{ledger: l}
}

// NewLedgerServiceHandler builds an HTTP handler serving every procedure and
// returns the path to mount it on. Calculation procedures accept anonymous
// callers; everything that reads or writes a group requires a valid token.
// opts apply to every procedure, outside the auth interceptor.
func NewLedgerServiceHandler(svc *LedgerService, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	public := handlerOptions(opts, middleware.OptionalAuth(jwtManager))
	private := handlerOptions(opts, middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(CreateGroupProcedure, connect.NewUnaryHandler(CreateGroupProcedure, svc.CreateGroup, private...))
	mux.Handle(GetGroupProcedure, connect.NewUnaryHandler(GetGroupProcedure, svc.GetGroup, private...))
	mux.Handle(ListGroupsProcedure, connect.NewUnaryHandler(ListGroupsProcedure, svc.ListGroups, private...))
	mux.Handle(AddMemberProcedure, connect.NewUnaryHandler(AddMemberProcedure, svc.AddMember, private...))
	mux.Handle(RemoveMemberProcedure, connect.NewUnaryHandler(RemoveMemberProcedure, svc.RemoveMember, private...))
	mux.Handle(ComputeSplitsProcedure, connect.NewUnaryHandler(ComputeSplitsProcedure, svc.ComputeSplits, public...))
	mux.Handle(EditDraftProcedure, connect.NewUnaryHandler(EditDraftProcedure, svc.EditDraft, public...))
	mux.Handle(ValidateSplitsProcedure, connect.NewUnaryHandler(ValidateSplitsProcedure, svc.ValidateSplits, public...))
	mux.Handle(CreateExpenseProcedure, connect.NewUnaryHandler(CreateExpenseProcedure, svc.CreateExpense, private...))
	mux.Handle(UpdateExpenseProcedure, connect.NewUnaryHandler(UpdateExpenseProcedure, svc.UpdateExpense, private...))
	mux.Handle(DeleteExpenseProcedure, connect.NewUnaryHandler(DeleteExpenseProcedure, svc.DeleteExpense, private...))
	mux.Handle(ListExpensesProcedure, connect.NewUnaryHandler(ListExpensesProcedure, svc.ListExpenses, private...))
	mux.Handle(GetGroupBalancesProcedure, connect.NewUnaryHandler(GetGroupBalancesProcedure, svc.GetGroupBalances, private...))
	mux.Handle(RecordSettlementProcedure, connect.NewUnaryHandler(RecordSettlementProcedure, svc.RecordSettlement, private...))
	mux.Handle(CompleteSettlementProcedure, connect.NewUnaryHandler(CompleteSettlementProcedure, svc.CompleteSettlement, private...))
	mux.Handle(DeleteSettlementProcedure, connect.NewUnaryHandler(DeleteSettlementProcedure, svc.DeleteSettlement, private...))
	mux.Handle(ListSettlementsProcedure, connect.NewUnaryHandler(ListSettlementsProcedure, svc.ListSettlements, private...))

	return "/" + LedgerServiceName + "/", mux
}

func handlerOptions(opts []connect.HandlerOption, authInterceptor connect.Interceptor) []connect.HandlerOption {
	out := make([]connect.HandlerOption, 0, len(opts)+2)
	out = append(out, connect.WithCodec(jsonCodec{}))
	out = append(out, opts...)
	return append(out, connect.WithInterceptors(authInterceptor))
}

// toConnectError maps the ledger's error taxonomy onto Connect codes.
func toConnectError(err error) error {
	var recon *models.ReconciliationError
	switch {
	case errors.As(err, &recon):
		// The validator message is written for display; send it as is.
		return connect.NewError(connect.CodeInvalidArgument, errors.New(recon.Message))
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case models.IsClientError(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case models.IsPreconditionError(err):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	return connect.NewError(connect.CodeInternal, err)
}

// callerID returns the authenticated user, or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// memberGroup loads groupID and checks that the caller belongs to it.
func (s *LedgerService) memberGroup(ctx context.Context, groupID string) (*models.Group, string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	if groupID == "" {
		return nil, "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("group_id required"))
	}
	g, err := s.ledger.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", toConnectError(err)
	}
	if !g.HasMember(userID) {
		return nil, "", connect.NewError(connect.CodePermissionDenied, fmt.Errorf("not a member of group %s", groupID))
	}
	return g, userID, nil
}

// CreateGroup creates a group with the caller as its first member.
func (s *LedgerService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	name := req.Msg.DisplayName
	if name == "" {
		name = middleware.GetDisplayName(ctx)
	}

	g, err := s.ledger.CreateGroup(ctx, req.Msg.Name, req.Msg.Description, models.Member{UserID: userID, DisplayName: name})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(g)}), nil
}

// GetGroup retrieves a group by ID.
func (s *LedgerService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	g, _, err := s.memberGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&GetGroupResponse{Group: toGroup(g)}), nil
}

// ListGroups lists the caller's groups.
func (s *LedgerService) ListGroups(ctx context.Context, req *connect.Request[ListGroupsRequest]) (*connect.Response[ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := s.ledger.ListGroups(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = toGroup(g)
	}
	return connect.NewResponse(&ListGroupsResponse{Groups: out}), nil
}

// AddMember adds a user to a group the caller belongs to.
func (s *LedgerService) AddMember(ctx context.Context, req *connect.Request[AddMemberRequest]) (*connect.Response[AddMemberResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	m := models.Member{UserID: req.Msg.UserID, DisplayName: req.Msg.DisplayName}
	if err := s.ledger.AddMember(ctx, req.Msg.GroupID, m); err != nil {
		return nil, toConnectError(err)
	}
	g, err := s.ledger.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&AddMemberResponse{Group: toGroup(g)}), nil
}

// RemoveMember removes a user from a group the caller belongs to.
func (s *LedgerService) RemoveMember(ctx context.Context, req *connect.Request[RemoveMemberRequest]) (*connect.Response[RemoveMemberResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	if err := s.ledger.RemoveMember(ctx, req.Msg.GroupID, req.Msg.UserID); err != nil {
		return nil, toConnectError(err)
	}
	g, err := s.ledger.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RemoveMemberResponse{Group: toGroup(g)}), nil
}

// ComputeSplits runs the split calculator and reports the live validation
// result for the allocation it produced.
func (s *LedgerService) ComputeSplits(ctx context.Context, req *connect.Request[ComputeSplitsRequest]) (*connect.Response[ComputeSplitsResponse], error) {
	total, err := money.NonNegative(req.Msg.Total)
	if err != nil {
		return nil, toConnectError(err)
	}
	splits, err := s.ledger.ComputeSplits(calculator.ExpenseDraft{
		Total:   total,
		Mode:    req.Msg.Mode,
		Members: req.Msg.Members,
		Splits:  req.Msg.Prior,
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	v := s.ledger.Validator()
	return connect.NewResponse(&ComputeSplitsResponse{
		Splits:         splits,
		Validation:     v.Validate(total, req.Msg.Mode, splits),
		RemainingLabel: v.RemainingLabel(total, splits),
	}), nil
}

// EditDraft applies one edit to an expense draft held by the client.
func (s *LedgerService) EditDraft(ctx context.Context, req *connect.Request[EditDraftRequest]) (*connect.Response[EditDraftResponse], error) {
	action, err := toAction(req.Msg.Action)
	if err != nil {
		return nil, toConnectError(err)
	}
	draft, err := calculator.Reduce(req.Msg.Draft, action)
	if err != nil {
		return nil, toConnectError(err)
	}

	v := s.ledger.Validator()
	return connect.NewResponse(&EditDraftResponse{
		Draft:          draft,
		Validation:     v.Validate(draft.Total, draft.Mode, draft.Splits),
		RemainingLabel: v.RemainingLabel(draft.Total, draft.Splits),
		CanLeave:       draft.CanLeave(),
	}), nil
}

func toAction(a DraftAction) (calculator.Action, error) {
	switch a.Type {
	case "setTotal":
		total, err := money.NonNegative(a.Total)
		if err != nil {
			return nil, err
		}
		return calculator.SetTotal{Total: total}, nil
	case "setMode":
		return calculator.SetMode{Mode: a.Mode}, nil
	case "setMembers":
		return calculator.SetMembers{Members: a.Members}, nil
	case "setPercentage":
		pct, err := decimal.NewFromString(a.Percent)
		if err != nil {
			return nil, fmt.Errorf("%w: percent %q is not a number", models.ErrInvalidInput, a.Percent)
		}
		return calculator.SetPercentage{UserID: a.UserID, Percent: pct}, nil
	case "setExactAmount":
		return calculator.SetExactAmount{UserID: a.UserID, Text: a.Text}, nil
	case "setPayer":
		return calculator.SetPayer{UserID: a.UserID}, nil
	case "setDetails":
		return calculator.SetDetails{Description: a.Description, Category: a.Category, Date: a.Date}, nil
	}
	return nil, fmt.Errorf("%w: unknown draft action %q", models.ErrInvalidInput, a.Type)
}

// ValidateSplits runs the split validator.
func (s *LedgerService) ValidateSplits(ctx context.Context, req *connect.Request[ValidateSplitsRequest]) (*connect.Response[ValidateSplitsResponse], error) {
	amount, err := money.NonNegative(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	result := s.ledger.ValidateSplits(models.Expense{
		Amount: amount,
		Mode:   req.Msg.Mode,
		Splits: req.Msg.Splits,
	})
	return connect.NewResponse(&ValidateSplitsResponse{Validation: result}), nil
}

// CreateExpense validates and stores a new expense.
func (s *LedgerService) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.Expense.GroupID); err != nil {
		return nil, err
	}
	e := fromExpense(req.Msg.Expense)
	e.ID, e.CreatedAt = "", 0
	if err := s.ledger.CreateExpense(ctx, e); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CreateExpenseResponse{Expense: toExpense(e)}), nil
}

// UpdateExpense replaces an expense in a group the caller belongs to.
func (s *LedgerService) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[UpdateExpenseResponse], error) {
	existing, err := s.ledger.GetExpense(ctx, req.Msg.Expense.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, _, err := s.memberGroup(ctx, existing.GroupID); err != nil {
		return nil, err
	}

	e := fromExpense(req.Msg.Expense)
	if err := s.ledger.UpdateExpense(ctx, e); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&UpdateExpenseResponse{Expense: toExpense(e)}), nil
}

// DeleteExpense removes an expense in a group the caller belongs to.
func (s *LedgerService) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[DeleteExpenseResponse], error) {
	existing, err := s.ledger.GetExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if _, _, err := s.memberGroup(ctx, existing.GroupID); err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteExpense(ctx, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteExpenseResponse{}), nil
}

// ListExpenses lists a group's expenses and their total.
func (s *LedgerService) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	expenses, err := s.ledger.ListExpenses(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]Expense, len(expenses))
	var total money.Money
	for i, e := range expenses {
		out[i] = toExpense(e)
		total = total.Add(e.Amount)
	}
	return connect.NewResponse(&ListExpensesResponse{Expenses: out, Total: total.Cents()}), nil
}

// GetGroupBalances returns every member's balance and the simplified debts.
func (s *LedgerService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	if _, _, err := s.memberGroup(ctx, groupID); err != nil {
		return nil, err
	}

	policy := calculator.CompletedOnly
	if req.Msg.IncludePending {
		policy = calculator.IncludePending
	}
	balances, err := s.ledger.Balances(ctx, groupID, policy)
	if err != nil {
		return nil, toConnectError(err)
	}
	debts, err := s.ledger.GetDebts(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	total, err := s.ledger.GetGroupTotal(ctx, groupID)
	if err != nil {
		return nil, toConnectError(err)
	}

	v := s.ledger.Validator()
	resp := &GetGroupBalancesResponse{
		Balances: make([]Balance, len(balances)),
		Debts:    make([]Debt, len(debts)),
		Total:    total.Cents(),
	}
	for i, b := range balances {
		resp.Balances[i] = toBalance(b, v)
	}
	for i, d := range debts {
		resp.Debts[i] = Debt{From: d.From, To: d.To, Amount: d.Amount.Cents()}
	}

	slog.Debug("GetGroupBalances successful",
		"group_id", groupID,
		"members_count", len(balances),
		"debts_count", len(debts),
	)
	return connect.NewResponse(resp), nil
}

// RecordSettlement records a pending payment between two members.
func (s *LedgerService) RecordSettlement(ctx context.Context, req *connect.Request[RecordSettlementRequest]) (*connect.Response[RecordSettlementResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	amount, err := money.Positive(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}
	st, err := s.ledger.RecordSettlement(ctx, req.Msg.GroupID, req.Msg.FromUserID, req.Msg.ToUserID, amount, req.Msg.Note)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RecordSettlementResponse{Settlement: toSettlement(st)}), nil
}

// CompleteSettlement confirms a pending settlement as the caller.
func (s *LedgerService) CompleteSettlement(ctx context.Context, req *connect.Request[CompleteSettlementRequest]) (*connect.Response[CompleteSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.ledger.CompleteSettlement(ctx, req.Msg.SettlementID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CompleteSettlementResponse{Settlement: toSettlement(st)}), nil
}

// DeleteSettlement deletes a pending settlement as the caller.
func (s *LedgerService) DeleteSettlement(ctx context.Context, req *connect.Request[DeleteSettlementRequest]) (*connect.Response[DeleteSettlementResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteSettlement(ctx, req.Msg.SettlementID, userID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteSettlementResponse{}), nil
}

// ListSettlements lists a group's settlements.
func (s *LedgerService) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	if _, _, err := s.memberGroup(ctx, req.Msg.GroupID); err != nil {
		return nil, err
	}
	settlements, err := s.ledger.ListSettlements(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, toConnectError(err)
	}
	out := make([]Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toSettlement(st)
	}
	return connect.NewResponse(&ListSettlementsResponse{Settlements: out}), nil
}
