package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/yashhsm/morpho-on-solana/internal/amount"
	"github.com/yashhsm/morpho-on-solana/internal/config"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
	"github.com/yashhsm/morpho-on-solana/internal/readmodel"
)

type fakeReadModel struct {
	protocol  readmodel.ProtocolView
	markets   []readmodel.MarketView
	positions []readmodel.PositionView
	err       error
}

func (f *fakeReadModel) Protocol(context.Context) (readmodel.ProtocolView, error) {
	return f.protocol, f.err
}

func (f *fakeReadModel) Markets(context.Context) ([]readmodel.MarketView, error) {
	return f.markets, f.err
}

func (f *fakeReadModel) Positions(context.Context, solana.PublicKey) ([]readmodel.PositionView, error) {
	return f.positions, f.err
}

// fakeActions records the last dispatched call and returns a canned
// signature.
type fakeActions struct {
	verb   string
	market morpho.MarketID
	key    solana.PublicKey
	args   []string
	err    error
	sig    solana.Signature
}

func (f *fakeActions) record(verb string, id morpho.MarketID, key solana.PublicKey, args ...string) (solana.Signature, error) {
	f.verb = verb
	f.market = id
	f.key = key
	f.args = args
	return f.sig, f.err
}

func (f *fakeActions) Supply(_ context.Context, id morpho.MarketID, assets, shares string) (solana.Signature, error) {
	return f.record("supply", id, solana.PublicKey{}, assets, shares)
}

func (f *fakeActions) Withdraw(_ context.Context, id morpho.MarketID, assets, shares string) (solana.Signature, error) {
	return f.record("withdraw", id, solana.PublicKey{}, assets, shares)
}

func (f *fakeActions) SupplyCollateral(_ context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	return f.record("supply-collateral", id, solana.PublicKey{}, amountText)
}

func (f *fakeActions) WithdrawCollateral(_ context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	return f.record("withdraw-collateral", id, solana.PublicKey{}, amountText)
}

func (f *fakeActions) Borrow(_ context.Context, id morpho.MarketID, assets, shares string) (solana.Signature, error) {
	return f.record("borrow", id, solana.PublicKey{}, assets, shares)
}

func (f *fakeActions) Repay(_ context.Context, id morpho.MarketID, assets, shares string) (solana.Signature, error) {
	return f.record("repay", id, solana.PublicKey{}, assets, shares)
}

func (f *fakeActions) Liquidate(_ context.Context, id morpho.MarketID, borrower solana.PublicKey, assets, shares string) (solana.Signature, error) {
	return f.record("liquidate", id, borrower, assets, shares)
}

func (f *fakeActions) FlashLoan(_ context.Context, id morpho.MarketID, amountText string) (solana.Signature, error) {
	return f.record("flash-loan", id, solana.PublicKey{}, amountText)
}

func (f *fakeActions) FlashLoanCycle(_ context.Context, id morpho.MarketID, amountText string, between ...solana.Instruction) (solana.Signature, error) {
	return f.record("flash-loan-cycle", id, solana.PublicKey{}, amountText)
}

func (f *fakeActions) AccrueInterest(_ context.Context, id morpho.MarketID) (solana.Signature, error) {
	return f.record("accrue-interest", id, solana.PublicKey{})
}

func (f *fakeActions) ClosePosition(_ context.Context, id morpho.MarketID) (solana.Signature, error) {
	return f.record("close-position", id, solana.PublicKey{})
}

func (f *fakeActions) SetAuthorization(_ context.Context, authorized solana.PublicKey) (solana.Signature, error) {
	return f.record("authorize", morpho.MarketID{}, authorized)
}

func (f *fakeActions) RevokeAuthorization(_ context.Context, authorized solana.PublicKey) (solana.Signature, error) {
	return f.record("revoke-authorization", morpho.MarketID{}, authorized)
}

func (f *fakeActions) InitializeProtocol(_ context.Context, feeRecipient solana.PublicKey) (solana.Signature, error) {
	return f.record("initialize", morpho.MarketID{}, feeRecipient)
}

func (f *fakeActions) TransferOwnership(_ context.Context, newOwner solana.PublicKey) (solana.Signature, error) {
	return f.record("transfer-ownership", morpho.MarketID{}, newOwner)
}

func (f *fakeActions) AcceptOwnership(context.Context) (solana.Signature, error) {
	return f.record("accept-ownership", morpho.MarketID{}, solana.PublicKey{})
}

func (f *fakeActions) SetFeeRecipient(_ context.Context, newFeeRecipient solana.PublicKey) (solana.Signature, error) {
	return f.record("set-fee-recipient", morpho.MarketID{}, newFeeRecipient)
}

func (f *fakeActions) SetProtocolPaused(_ context.Context, paused bool) (solana.Signature, error) {
	return f.record("set-protocol-paused", morpho.MarketID{}, solana.PublicKey{})
}

func (f *fakeActions) EnableLltv(_ context.Context, lltvText string) (solana.Signature, error) {
	return f.record("enable-lltv", morpho.MarketID{}, solana.PublicKey{}, lltvText)
}

func (f *fakeActions) EnableIrm(_ context.Context, irm solana.PublicKey) (solana.Signature, error) {
	return f.record("enable-irm", morpho.MarketID{}, irm)
}

func (f *fakeActions) CreateMarket(_ context.Context, collateralMint, loanMint, oracle, irm solana.PublicKey, lltvText string) (morpho.MarketID, solana.Signature, error) {
	id := morpho.ComputeMarketID(collateralMint, loanMint, oracle, irm, 0)
	sig, err := f.record("create-market", id, oracle, lltvText)
	return id, sig, err
}

func (f *fakeActions) SetMarketPaused(_ context.Context, id morpho.MarketID, paused bool) (solana.Signature, error) {
	return f.record("set-market-paused", id, solana.PublicKey{})
}

func (f *fakeActions) SetFee(_ context.Context, id morpho.MarketID, feeText string) (solana.Signature, error) {
	return f.record("set-fee", id, solana.PublicKey{}, feeText)
}

func (f *fakeActions) ClaimFees(_ context.Context, id morpho.MarketID) (solana.Signature, error) {
	return f.record("claim-fees", id, solana.PublicKey{})
}

func newTestService(readModel ReadModel, actions Actions) *Service {
	return New(config.GatewayConfig{ListenAddr: ":0"}, readModel, actions,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testMarketID() morpho.MarketID {
	var a, b, c, d solana.PublicKey
	a[0], b[0], c[0], d[0] = 1, 2, 3, 4
	return morpho.ComputeMarketID(a, b, c, d, 8600)
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&out))
	return out
}

func TestHandleProtocol(t *testing.T) {
	readModel := &fakeReadModel{protocol: readmodel.ProtocolView{MarketCount: 3}}
	service := newTestService(readModel, nil)

	recorder := httptest.NewRecorder()
	service.handleProtocol(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/protocol", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	view := decodeBody[readmodel.ProtocolView](t, recorder)
	require.Equal(t, uint64(3), view.MarketCount)
}

func TestHandleMarketByID(t *testing.T) {
	id := testMarketID()
	readModel := &fakeReadModel{markets: []readmodel.MarketView{{ID: id.String(), LltvBps: 8600}}}
	service := newTestService(readModel, nil)

	t.Run("found", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		service.handleMarketByID(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/markets/"+id.String(), nil))
		require.Equal(t, http.StatusOK, recorder.Code)
		view := decodeBody[readmodel.MarketView](t, recorder)
		require.Equal(t, uint64(8600), view.LltvBps)
	})

	t.Run("bad hex", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		service.handleMarketByID(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/markets/zz", nil))
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		other := strings.Repeat("ab", 32)
		recorder := httptest.NewRecorder()
		service.handleMarketByID(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/markets/"+other, nil))
		require.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestHandlePositionsRequiresOwner(t *testing.T) {
	service := newTestService(&fakeReadModel{}, nil)

	recorder := httptest.NewRecorder()
	service.handlePositions(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	recorder = httptest.NewRecorder()
	service.handlePositions(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/positions?owner=not-a-key", nil))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandlePositions(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	readModel := &fakeReadModel{positions: []readmodel.PositionView{{BorrowShares: "42"}}}
	service := newTestService(readModel, nil)

	recorder := httptest.NewRecorder()
	service.handlePositions(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/positions?owner="+owner.String(), nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	response := decodeBody[positionListResponse](t, recorder)
	require.Equal(t, owner.String(), response.Owner)
	require.Len(t, response.Items, 1)
}

func postAction(service *Service, verb, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, "/api/v1/actions/"+verb, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	service.handleAction(recorder, request)
	return recorder
}

func TestHandleActionWithoutSigner(t *testing.T) {
	service := newTestService(&fakeReadModel{}, nil)
	recorder := postAction(service, "supply", `{"market_id":"00"}`)
	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestHandleSupplyDispatch(t *testing.T) {
	id := testMarketID()
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "supply", `{"market_id":"`+id.String()+`","assets":"1.5","shares":"0"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "supply", actions.verb)
	require.Equal(t, id, actions.market)
	require.Equal(t, []string{"1.5", "0"}, actions.args)
}

func TestHandleActionRejectsBadMarketID(t *testing.T) {
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "withdraw", `{"market_id":"deadbeef","assets":"1","shares":"0"}`)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Empty(t, actions.verb, "action must not dispatch on a bad market id")
}

func TestHandleActionMapsValidationErrors(t *testing.T) {
	id := testMarketID()
	actions := &fakeActions{err: amount.ErrMalformed}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "supply-collateral", `{"market_id":"`+id.String()+`","amount":"abc"}`)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	response := decodeBody[errorResponse](t, recorder)
	require.Contains(t, response.Error, "malformed amount")
}

func TestHandleLiquidateDispatch(t *testing.T) {
	id := testMarketID()
	borrower := solana.NewWallet().PublicKey()
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "liquidate",
		`{"market_id":"`+id.String()+`","borrower":"`+borrower.String()+`","repaid_assets":"10","repaid_shares":"0"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "liquidate", actions.verb)
	require.Equal(t, borrower, actions.key)
}

func TestHandleFlashLoanDispatch(t *testing.T) {
	id := testMarketID()
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "flash-loan", `{"market_id":"`+id.String()+`","amount":"5"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "flash-loan", actions.verb)
	require.Equal(t, []string{"5"}, actions.args)

	recorder = postAction(service, "flash-loan-cycle", `{"market_id":"`+id.String()+`","amount":"2.5"}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "flash-loan-cycle", actions.verb)
	require.Equal(t, id, actions.market)
	require.Equal(t, []string{"2.5"}, actions.args)
}

func TestHandleSetPausedRouting(t *testing.T) {
	id := testMarketID()
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	recorder := postAction(service, "set-paused", `{"paused":true}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "set-protocol-paused", actions.verb)

	recorder = postAction(service, "set-paused", `{"market_id":"`+id.String()+`","paused":true}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "set-market-paused", actions.verb)
	require.Equal(t, id, actions.market)
}

func TestHandleCreateMarketDispatch(t *testing.T) {
	actions := &fakeActions{}
	service := newTestService(&fakeReadModel{}, actions)

	mint := solana.NewWallet().PublicKey()
	body := `{"collateral_mint":"` + mint.String() + `","loan_mint":"` + mint.String() +
		`","oracle":"` + mint.String() + `","irm":"` + mint.String() + `","lltv":"8600"}`
	recorder := postAction(service, "create-market", body)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "create-market", actions.verb)
	response := decodeBody[createMarketResponse](t, recorder)
	require.Len(t, response.MarketID, 64)
}

func TestHandleUnknownAction(t *testing.T) {
	service := newTestService(&fakeReadModel{}, &fakeActions{})
	recorder := postAction(service, "mint-tokens", `{}`)
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCORSPreflightAndHeaders(t *testing.T) {
	service := newTestService(&fakeReadModel{}, nil)
	handler := service.withCORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodOptions, "/api/v1/markets", nil)
	request.Header.Set("Origin", "https://console.example")
	handler.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNoContent, recorder.Code)
	require.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictedOrigin(t *testing.T) {
	service := New(config.GatewayConfig{AllowedOrigins: []string{"https://console.example"}},
		&fakeReadModel{}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	require.True(t, service.isOriginAllowed("https://console.example"))
	require.False(t, service.isOriginAllowed("https://evil.example"))
}
