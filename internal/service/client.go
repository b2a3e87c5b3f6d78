package service

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// LedgerClient is a typed client for LedgerService.
type LedgerClient struct {
	createGroup        *connect.Client[CreateGroupRequest, CreateGroupResponse]
	getGroup           *connect.Client[GetGroupRequest, GetGroupResponse]
	listGroups         *connect.Client[ListGroupsRequest, ListGroupsResponse]
	addMember          *connect.Client[AddMemberRequest, AddMemberResponse]
	removeMember       *connect.Client[RemoveMemberRequest, RemoveMemberResponse]
	computeSplits      *connect.Client[ComputeSplitsRequest, ComputeSplitsResponse]
	editDraft          *connect.Client[EditDraftRequest, EditDraftResponse]
	validateSplits     *connect.Client[ValidateSplitsRequest, ValidateSplitsResponse]
	createExpense      *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	updateExpense      *connect.Client[UpdateExpenseRequest, UpdateExpenseResponse]
	deleteExpense      *connect.Client[DeleteExpenseRequest, DeleteExpenseResponse]
	listExpenses       *connect.Client[ListExpensesRequest, ListExpensesResponse]
	getGroupBalances   *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
	recordSettlement   *connect.Client[RecordSettlementRequest, RecordSettlementResponse]
	completeSettlement *connect.Client[CompleteSettlementRequest, CompleteSettlementResponse]
	deleteSettlement   *connect.Client[DeleteSettlementRequest, DeleteSettlementResponse]
	listSettlements    *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
}

// NewLedgerClient constructs a client for the service at baseURL. A non-empty
// token is sent as a bearer token on every call.
func NewLedgerClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *LedgerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	if token != "" {
		opts = append(opts, connect.WithInterceptors(bearer(token)))
	}
	return &LedgerClient{
		createGroup:        connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+CreateGroupProcedure, opts...),
		getGroup:           connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GetGroupProcedure, opts...),
		listGroups:         connect.NewClient[ListGroupsRequest, ListGroupsResponse](httpClient, baseURL+ListGroupsProcedure, opts...),
		addMember:          connect.NewClient[AddMemberRequest, AddMemberResponse](httpClient, baseURL+AddMemberProcedure, opts...),
		removeMember:       connect.NewClient[RemoveMemberRequest, RemoveMemberResponse](httpClient, baseURL+RemoveMemberProcedure, opts...),
		computeSplits:      connect.NewClient[ComputeSplitsRequest, ComputeSplitsResponse](httpClient, baseURL+ComputeSplitsProcedure, opts...),
		editDraft:          connect.NewClient[EditDraftRequest, EditDraftResponse](httpClient, baseURL+EditDraftProcedure, opts...),
		validateSplits:     connect.NewClient[ValidateSplitsRequest, ValidateSplitsResponse](httpClient, baseURL+ValidateSplitsProcedure, opts...),
		createExpense:      connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+CreateExpenseProcedure, opts...),
		updateExpense:      connect.NewClient[UpdateExpenseRequest, UpdateExpenseResponse](httpClient, baseURL+UpdateExpenseProcedure, opts...),
		deleteExpense:      connect.NewClient[DeleteExpenseRequest, DeleteExpenseResponse](httpClient, baseURL+DeleteExpenseProcedure, opts...),
		listExpenses:       connect.NewClient[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL+ListExpensesProcedure, opts...),
		getGroupBalances:   connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+GetGroupBalancesProcedure, opts...),
		recordSettlement:   connect.NewClient[RecordSettlementRequest, RecordSettlementResponse](httpClient, baseURL+RecordSettlementProcedure, opts...),
		completeSettlement: connect.NewClient[CompleteSettlementRequest, CompleteSettlementResponse](httpClient, baseURL+CompleteSettlementProcedure, opts...),
		deleteSettlement:   connect.NewClient[DeleteSettlementRequest, DeleteSettlementResponse](httpClient, baseURL+DeleteSettlementProcedure, opts...),
		listSettlements:    connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+ListSettlementsProcedure, opts...),
	}
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				req.Header().Set("Authorization", "Bearer "+token)
			}
			return next(ctx, req)
		}
	}
}

// call unwraps the response message.
func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *LedgerClient) CreateGroup(ctx context.Context, req *CreateGroupRequest) (*CreateGroupResponse, error) {
	return call(ctx, c.createGroup, req)
}

func (c *LedgerClient) GetGroup(ctx context.Context, req *GetGroupRequest) (*GetGroupResponse, error) {
	return call(ctx, c.getGroup, req)
}

func (c *LedgerClient) ListGroups(ctx context.Context, req *ListGroupsRequest) (*ListGroupsResponse, error) {
	return call(ctx, c.listGroups, req)
}

func (c *LedgerClient) AddMember(ctx context.Context, req *AddMemberRequest) (*AddMemberResponse, error) {
	return call(ctx, c.addMember, req)
}

func (c *LedgerClient) RemoveMember(ctx context.Context, req *RemoveMemberRequest) (*RemoveMemberResponse, error) {
	return call(ctx, c.removeMember, req)
}

func (c *LedgerClient) ComputeSplits(ctx context.Context, req *ComputeSplitsRequest) (*ComputeSplitsResponse, error) {
	return call(ctx, c.computeSplits, req)
}

func (c *LedgerClient) EditDraft(ctx context.Context, req *EditDraftRequest) (*EditDraftResponse, error) {
	return call(ctx, c.editDraft, req)
}

func (c *LedgerClient) ValidateSplits(ctx context.Context, req *ValidateSplitsRequest) (*ValidateSplitsResponse, error) {
	return call(ctx, c.validateSplits, req)
}

func (c *LedgerClient) CreateExpense(ctx context.Context, req *CreateExpenseRequest) (*CreateExpenseResponse, error) {
	return call(ctx, c.createExpense, req)
}

func (c *LedgerClient) UpdateExpense(ctx context.Context, req *UpdateExpenseRequest) (*UpdateExpenseResponse, error) {
	return call(ctx, c.updateExpense, req)
}

func (c *LedgerClient) DeleteExpense(ctx context.Context, req *DeleteExpenseRequest) (*DeleteExpenseResponse, error) {
	return call(ctx, c.deleteExpense, req)
}

func (c *LedgerClient) ListExpenses(ctx context.Context, req *ListExpensesRequest) (*ListExpensesResponse, error) {
	return call(ctx, c.listExpenses, req)
}

func (c *LedgerClient) GetGroupBalances(ctx context.Context, req *GetGroupBalancesRequest) (*GetGroupBalancesResponse, error) {
	return call(ctx, c.getGroupBalances, req)
}

func (c *LedgerClient) RecordSettlement(ctx context.Context, req *RecordSettlementRequest) (*RecordSettlementResponse, error) {
	return call(ctx, c.recordSettlement, req)
}

func (c *LedgerClient) CompleteSettlement(ctx context.Context, req *CompleteSettlementRequest) (*CompleteSettlementResponse, error) {
	return call(ctx, c.completeSettlement, req)
}

func (c *LedgerClient) DeleteSettlement(ctx context.Context, req *DeleteSettlementRequest) (*DeleteSettlementResponse, error) {
	return call(ctx, c.deleteSettlement, req)
}

func (c *LedgerClient) ListSettlements(ctx context.Context, req *ListSettlementsRequest) (*ListSettlementsResponse, error) {
	return call(ctx, c.listSettlements, req)
}
