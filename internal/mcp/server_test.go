package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/liqscope/internal/domain"
)

const (
	alice = "0x1111111111111111111111111111111111111111"
	bob   = "0x2222222222222222222222222222222222222222"
	carol = "0x3333333333333333333333333333333333333333"
	weth  = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
)

type fakeEngine struct {
	snapshot    domain.AccountSnapshot
	opportunity *domain.LiquidationOpportunity
	batch       []domain.BatchResult
	reserves    []domain.ReserveDescriptor
	err         error

	mu          sync.Mutex
	batchInputs [][]string
}

func (f *fakeEngine) ListReserves(context.Context) ([]domain.ReserveDescriptor, error) {
	return f.reserves, f.err
}

func (f *fakeEngine) Snapshot(_ context.Context, address string) (domain.AccountSnapshot, error) {
	snap := f.snapshot
	snap.Address = common.HexToAddress(address)
	return snap, f.err
}

func (f *fakeEngine) Positions(context.Context, string) (domain.Positions, error) {
	return domain.Positions{Collateral: []domain.PositionEntry{}, Debt: []domain.PositionEntry{}}, f.err
}

func (f *fakeEngine) Analyze(context.Context, string) (*domain.LiquidationOpportunity, error) {
	return f.opportunity, f.err
}

func (f *fakeEngine) AnalyzeBatch(_ context.Context, addresses []string) []domain.BatchResult {
	f.mu.Lock()
	f.batchInputs = append(f.batchInputs, addresses)
	f.mu.Unlock()
	return f.batch
}

func (f *fakeEngine) AssetPrice(context.Context, string) (string, error) {
	return "3000.5", f.err
}

func (f *fakeEngine) AssetPrices(_ context.Context, assets []string) (map[string]string, error) {
	out := make(map[string]string, len(assets))
	for _, a := range assets {
		out[a] = "1"
	}
	return out, f.err
}

func (f *fakeEngine) ReserveStats(context.Context, string) (domain.ReserveStats, error) {
	return domain.ReserveStats{Symbol: "WETH", UtilizationRate: "0.5000"}, f.err
}

func (f *fakeEngine) ProtocolStatus(context.Context) (domain.ProtocolStatus, error) {
	return domain.ProtocolStatus{Protocol: "Aave V3", BlockNumber: 19_000_000, Status: "operational"}, f.err
}

func (f *fakeEngine) TokenBalance(_ context.Context, token, holder string) (domain.TokenBalance, error) {
	return domain.TokenBalance{Token: token, Holder: holder, Formatted: "1.5"}, f.err
}

type recordingObserver struct {
	mu    sync.Mutex
	calls map[string]int
	errs  int
}

func (o *recordingObserver) ToolCall(tool string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.calls == nil {
		o.calls = make(map[string]int)
	}
	o.calls[tool]++
	if err != nil {
		o.errs++
	}
}

func newTestServer(t *testing.T, engine Engine, observer Observer) *Server {
	t.Helper()
	srv, err := NewServer(engine, Options{
		Observer: observer,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return srv
}

func call(t *testing.T, srv *Server, tool string, args map[string]any) *Response {
	t.Helper()
	params, err := json.Marshal(CallToolParams{Name: tool, Arguments: args})
	require.NoError(t, err)
	req, err := json.Marshal(Request{JSONRPC: "2.0", ID: json.RawMessage("1"), Method: "tools/call", Params: params})
	require.NoError(t, err)
	resp := srv.Handle(context.Background(), req)
	require.NotNil(t, resp)
	return resp
}

// decodeText unmarshals the text content of a successful tool call.
func decodeText(t *testing.T, resp *Response, out any) {
	t.Helper()
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(*CallToolResult)
	require.True(t, ok)
	require.Len(t, result.Content, 1)
	require.Equal(t, "text", result.Content[0].Type)
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), out))
}

func requireRPCError(t *testing.T, resp *Response, code int) *RPCError {
	t.Helper()
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code, resp.Error.Message)
	require.Nil(t, resp.Result)
	return resp.Error
}

func TestInitializeAndPing(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)

	resp := srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	require.NotNil(t, resp)
	init, ok := resp.Result.(InitializeResult)
	require.True(t, ok)
	require.Equal(t, ProtocolVersion, init.ProtocolVersion)
	require.Equal(t, "liqscope", init.ServerInfo.Name)
	require.Contains(t, init.Capabilities, "tools")

	resp = srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":"abc","method":"ping"}`))
	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `"abc"`, string(resp.ID))
}

func TestNotificationGetsNoResponse(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)
	require.Nil(t, srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	require.Nil(t, srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","method":"no/such/method"}`)))
}

func TestMalformedRequests(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)

	resp := srv.Handle(context.Background(), []byte(`{not json`))
	requireRPCError(t, resp, ParseError)
	require.JSONEq(t, `null`, string(resp.ID))

	resp = srv.Handle(context.Background(), []byte(`{"jsonrpc":"1.0","id":7,"method":"ping"}`))
	requireRPCError(t, resp, InvalidRequest)
	require.JSONEq(t, `7`, string(resp.ID))

	resp = srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":8,"method":"resources/list"}`))
	requireRPCError(t, resp, MethodNotFound)

	resp = srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":9,"method":"tools/call"}`))
	requireRPCError(t, resp, InvalidParams)
}

func TestToolsList(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)
	resp := srv.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	require.NotNil(t, resp)

	list, ok := resp.Result.(ListToolsResult)
	require.True(t, ok)
	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
		require.NotEmpty(t, tool.Description)
		require.Equal(t, "object", tool.InputSchema["type"])
	}
	require.Equal(t, []string{
		ToolGetUserHealth, ToolAnalyzeLiquidation, ToolGetUserPositions, ToolGetAaveReserves,
		ToolGetAssetPrice, ToolGetAssetPrices, ToolGetReserveStats, ToolGetProtocolStatus,
		ToolBatchCheckAddresses, ToolValidateAddress, ToolGetTokenBalance,
	}, names)
}

func TestUnknownTool(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)
	rpcErr := requireRPCError(t, call(t, srv, "drain_pool", nil), MethodNotFound)
	require.Equal(t, "Unknown tool: drain_pool", rpcErr.Message)
}

func TestGetUserHealth(t *testing.T) {
	engine := &fakeEngine{snapshot: domain.AccountSnapshot{
		TotalCollateralBase:         big.NewInt(1_000_000_000_000),
		TotalDebtBase:               big.NewInt(850_050_000_000),
		AvailableBorrowsBase:        big.NewInt(0),
		CurrentLiquidationThreshold: big.NewInt(8250),
		LTV:                         big.NewInt(8000),
		HealthFactor:                big.NewInt(970_000_000_000_000_000),
		HealthFactorFormatted:       "0.97",
		IsLiquidatable:              true,
		IsAtRisk:                    true,
	}}
	srv := newTestServer(t, engine, nil)

	var got healthReport
	decodeText(t, call(t, srv, ToolGetUserHealth, map[string]any{"address": alice}), &got)
	require.Equal(t, healthReport{
		Address:              common.HexToAddress(alice).Hex(),
		HealthFactor:         "0.97",
		TotalCollateralUSD:   "10000.00",
		TotalDebtUSD:         "8500.50",
		AvailableBorrowsUSD:  "0.00",
		LiquidationThreshold: "82.50",
		LTV:                  "80.00",
		IsLiquidatable:       true,
		IsAtRisk:             true,
		Status:               StatusLiquidatable,
	}, got)
}

func TestAddressArgumentErrors(t *testing.T) {
	obs := &recordingObserver{}
	srv := newTestServer(t, &fakeEngine{}, obs)

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"missing", ToolGetUserHealth, nil},
		{"wrong type", ToolAnalyzeLiquidation, map[string]any{"address": 42}},
		{"empty", ToolGetUserPositions, map[string]any{"address": ""}},
		{"malformed", ToolGetUserHealth, map[string]any{"address": "0x1234"}},
		{"bad checksum", ToolGetAssetPrice, map[string]any{"assetAddress": "0x87870bca3F3fD6335C3F4ce8392D69350B4fA4E2"}},
		{"token holder", ToolGetTokenBalance, map[string]any{"tokenAddress": weth, "holderAddress": "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireRPCError(t, call(t, srv, tt.tool, tt.args), InvalidParams)
		})
	}
	require.Equal(t, len(tests), obs.errs)
}

func TestEngineFailureIsToolExecutionError(t *testing.T) {
	gwErr := &domain.GatewayError{Method: "getUserAccountData", Err: errors.New("connection refused")}
	srv := newTestServer(t, &fakeEngine{err: gwErr}, nil)

	rpcErr := requireRPCError(t, call(t, srv, ToolGetUserHealth, map[string]any{"address": alice}), InternalError)
	require.True(t, strings.HasPrefix(rpcErr.Message, "Tool execution failed: "))
	require.Contains(t, rpcErr.Message, "connection refused")
}

func TestEngineInvalidAddressMapsToInvalidParams(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{err: domain.InvalidAddressError("0xdead")}, nil)
	requireRPCError(t, call(t, srv, ToolGetAssetPrices, map[string]any{"assetAddresses": []string{weth}}), InvalidParams)
}

func TestAnalyzeLiquidationHealthy(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)

	var got map[string]string
	decodeText(t, call(t, srv, ToolAnalyzeLiquidation, map[string]any{"address": alice}), &got)
	require.Equal(t, "No liquidation opportunity found. Position is healthy.", got["message"])
	require.Equal(t, alice, got["address"])
}

func TestAnalyzeLiquidationOpportunity(t *testing.T) {
	opp := &domain.LiquidationOpportunity{
		Address:         common.HexToAddress(alice),
		HealthFactor:    "0.97",
		PotentialProfit: "20.00",
		RiskTier:        domain.RiskHigh,
		GasWarning:      domain.GasWarning,
	}
	srv := newTestServer(t, &fakeEngine{opportunity: opp}, nil)

	var got map[string]any
	decodeText(t, call(t, srv, ToolAnalyzeLiquidation, map[string]any{"address": alice}), &got)
	require.Equal(t, "HIGH", got["riskLevel"])
	require.Equal(t, "20.00", got["potentialProfit"])
	require.Equal(t, domain.GasWarning, got["gasWarning"])
}

func TestGetAaveReserves(t *testing.T) {
	engine := &fakeEngine{reserves: []domain.ReserveDescriptor{{
		Symbol:               "WETH",
		Asset:                common.HexToAddress(weth),
		Decimals:             18,
		LTV:                  8050,
		LiquidationThreshold: 8300,
		LiquidationBonus:     10500,
		CollateralEnabled:    true,
		BorrowEnabled:        true,
		Active:               true,
	}}}
	srv := newTestServer(t, engine, nil)

	var got struct {
		TotalReserves int           `json:"totalReserves"`
		Reserves      []reserveView `json:"reserves"`
	}
	decodeText(t, call(t, srv, ToolGetAaveReserves, nil), &got)
	require.Equal(t, 1, got.TotalReserves)
	require.Equal(t, reserveView{
		Symbol:               "WETH",
		Address:              common.HexToAddress(weth).Hex(),
		Decimals:             18,
		LTV:                  "80.50%",
		LiquidationThreshold: "83.00%",
		LiquidationBonus:     "5.00%",
		CanBeCollateral:      true,
		CanBeBorrowed:        true,
		IsActive:             true,
	}, got.Reserves[0])
}

func TestBatchCheckAddresses(t *testing.T) {
	engine := &fakeEngine{batch: []domain.BatchResult{
		{Address: alice, Opportunity: &domain.LiquidationOpportunity{HealthFactor: "0.9", TotalDebtUSD: "100", RiskTier: domain.RiskHigh}},
		{Address: bob, Opportunity: &domain.LiquidationOpportunity{HealthFactor: "1.01", TotalDebtUSD: "50", RiskTier: domain.RiskMedium}},
		{Address: carol},
		{Address: weth, Error: "gateway: getUserAccountData: boom"},
	}}
	srv := newTestServer(t, engine, nil)

	var got BatchSummary
	decodeText(t, call(t, srv, ToolBatchCheckAddresses, map[string]any{"addresses": []string{alice, bob, carol, weth}}), &got)
	require.Equal(t, 4, got.TotalChecked)
	require.Equal(t, 3, got.Successful)
	require.Equal(t, 1, got.Failed)
	require.Equal(t, 1, got.Liquidatable)
	require.Equal(t, 1, got.AtRisk)
	require.Equal(t, 1, got.Healthy)

	require.Equal(t, StatusLiquidatable, got.Results[0].Status)
	require.Equal(t, StatusAtRisk, got.Results[1].Status)
	require.Equal(t, "MEDIUM", got.Results[1].RiskLevel)
	require.Equal(t, BatchEntry{Address: carol, Status: StatusHealthy, HealthFactor: "N/A", TotalDebtUSD: "0", RiskLevel: "NONE"}, got.Results[2])
	require.Equal(t, StatusError, got.Results[3].Status)
	require.Contains(t, got.Results[3].Error, "boom")
}

func TestBatchCheckAddressesValidatesUpFront(t *testing.T) {
	engine := &fakeEngine{}
	srv := newTestServer(t, engine, nil)

	rpcErr := requireRPCError(t, call(t, srv, ToolBatchCheckAddresses, map[string]any{
		"addresses": []string{alice, "0xbad", bob, "zzz"},
	}), InvalidParams)
	require.Equal(t, "Invalid Ethereum addresses: 0xbad, zzz", rpcErr.Message)

	requireRPCError(t, call(t, srv, ToolBatchCheckAddresses, map[string]any{"addresses": []string{}}), InvalidParams)

	tooMany := make([]string, MaxBatchAddresses+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("0x%040x", i+1)
	}
	requireRPCError(t, call(t, srv, ToolBatchCheckAddresses, map[string]any{"addresses": tooMany}), InvalidParams)

	require.Empty(t, engine.batchInputs)
}

func TestValidateAddress(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)

	tests := []struct {
		in    string
		valid bool
	}{
		{"0x87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2", true},
		{alice, true},
		{"0x87870bca3F3fD6335C3F4ce8392D69350B4fA4E2", false},
		{"87870Bca3F3fD6335C3F4ce8392D69350B4fA4E2", false},
		{"hello", false},
	}
	for _, tt := range tests {
		var got map[string]any
		decodeText(t, call(t, srv, ToolValidateAddress, map[string]any{"address": tt.in}), &got)
		require.Equal(t, tt.valid, got["isValid"], tt.in)
	}
}

func TestSimpleTools(t *testing.T) {
	obs := &recordingObserver{}
	srv := newTestServer(t, &fakeEngine{}, obs)

	var price map[string]string
	decodeText(t, call(t, srv, ToolGetAssetPrice, map[string]any{"assetAddress": weth}), &price)
	require.Equal(t, map[string]string{"assetAddress": weth, "priceUSD": "3000.5"}, price)

	var prices struct {
		Prices map[string]string `json:"prices"`
	}
	decodeText(t, call(t, srv, ToolGetAssetPrices, map[string]any{"assetAddresses": []string{weth, alice}}), &prices)
	require.Len(t, prices.Prices, 2)

	var stats domain.ReserveStats
	decodeText(t, call(t, srv, ToolGetReserveStats, map[string]any{"assetAddress": weth}), &stats)
	require.Equal(t, "WETH", stats.Symbol)

	var status domain.ProtocolStatus
	decodeText(t, call(t, srv, ToolGetProtocolStatus, nil), &status)
	require.Equal(t, uint64(19_000_000), status.BlockNumber)

	var balance domain.TokenBalance
	decodeText(t, call(t, srv, ToolGetTokenBalance, map[string]any{"tokenAddress": weth, "holderAddress": alice}), &balance)
	require.Equal(t, "1.5", balance.Formatted)

	var positions positionsReport
	decodeText(t, call(t, srv, ToolGetUserPositions, map[string]any{"address": alice}), &positions)
	require.NotNil(t, positions.Collateral)

	require.Equal(t, 1, obs.calls[ToolGetAssetPrice])
	require.Equal(t, 1, obs.calls[ToolGetTokenBalance])
	require.Zero(t, obs.errs)
}

func TestServeStdio(t *testing.T) {
	srv := newTestServer(t, &fakeEngine{}, nil)

	in := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"validate_address","arguments":{"address":"nope"}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_user_health","arguments":{}}}`,
	}, "\n")
	var out bytes.Buffer
	require.NoError(t, srv.ServeStdio(context.Background(), strings.NewReader(in), &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)

	var last struct {
		ID    int       `json:"id"`
		Error *RPCError `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &last))
	require.Equal(t, 3, last.ID)
	require.Equal(t, InvalidParams, last.Error.Code)
}

func TestHTTPStatusFromError(t *testing.T) {
	require.Equal(t, 200, HTTPStatusFromError(nil))
	require.Equal(t, 400, HTTPStatusFromError(&RPCError{Code: InvalidParams}))
	require.Equal(t, 404, HTTPStatusFromError(&RPCError{Code: MethodNotFound}))
	require.Equal(t, 500, HTTPStatusFromError(&RPCError{Code: InternalError}))
}
