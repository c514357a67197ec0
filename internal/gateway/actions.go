package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/yashhsm/morpho-on-solana/internal/amount"
	"github.com/yashhsm/morpho-on-solana/internal/client"
	"github.com/yashhsm/morpho-on-solana/internal/morpho"
)

// Actions is the signing surface behind the POST routes. Satisfied by
// *client.SigningClient.
type Actions interface {
	Supply(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error)
	Withdraw(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error)
	SupplyCollateral(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error)
	WithdrawCollateral(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error)
	Borrow(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error)
	Repay(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error)
	Liquidate(ctx context.Context, id morpho.MarketID, borrower solana.PublicKey, repaidAssetsText, repaidSharesText string) (solana.Signature, error)
	FlashLoan(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error)
	FlashLoanCycle(ctx context.Context, id morpho.MarketID, amountText string, between ...solana.Instruction) (solana.Signature, error)
	AccrueInterest(ctx context.Context, id morpho.MarketID) (solana.Signature, error)
	ClosePosition(ctx context.Context, id morpho.MarketID) (solana.Signature, error)
	SetAuthorization(ctx context.Context, authorized solana.PublicKey) (solana.Signature, error)
	RevokeAuthorization(ctx context.Context, authorized solana.PublicKey) (solana.Signature, error)

	InitializeProtocol(ctx context.Context, feeRecipient solana.PublicKey) (solana.Signature, error)
	TransferOwnership(ctx context.Context, newOwner solana.PublicKey) (solana.Signature, error)
	AcceptOwnership(ctx context.Context) (solana.Signature, error)
	SetFeeRecipient(ctx context.Context, newFeeRecipient solana.PublicKey) (solana.Signature, error)
	SetProtocolPaused(ctx context.Context, paused bool) (solana.Signature, error)
	EnableLltv(ctx context.Context, lltvText string) (solana.Signature, error)
	EnableIrm(ctx context.Context, irm solana.PublicKey) (solana.Signature, error)
	CreateMarket(ctx context.Context, collateralMint, loanMint, oracle, irm solana.PublicKey, lltvText string) (morpho.MarketID, solana.Signature, error)
	SetMarketPaused(ctx context.Context, id morpho.MarketID, paused bool) (solana.Signature, error)
	SetFee(ctx context.Context, id morpho.MarketID, feeText string) (solana.Signature, error)
	ClaimFees(ctx context.Context, id morpho.MarketID) (solana.Signature, error)
}

type supplyRequest struct {
	MarketID string `json:"market_id"`
	Assets   string `json:"assets"`
	Shares   string `json:"shares"`
}

type collateralRequest struct {
	MarketID string `json:"market_id"`
	Amount   string `json:"amount"`
}

type liquidateRequest struct {
	MarketID     string `json:"market_id"`
	Borrower     string `json:"borrower"`
	RepaidAssets string `json:"repaid_assets"`
	RepaidShares string `json:"repaid_shares"`
}

type marketRequest struct {
	MarketID string `json:"market_id"`
}

type authorizationRequest struct {
	Authorized string `json:"authorized"`
}

type initializeRequest struct {
	FeeRecipient string `json:"fee_recipient"`
}

type ownerRequest struct {
	NewOwner string `json:"new_owner"`
}

type pausedRequest struct {
	MarketID string `json:"market_id,omitempty"`
	Paused   bool   `json:"paused"`
}

type lltvRequest struct {
	Lltv string `json:"lltv"`
}

type irmRequest struct {
	Irm string `json:"irm"`
}

type createMarketRequest struct {
	CollateralMint string `json:"collateral_mint"`
	LoanMint       string `json:"loan_mint"`
	Oracle         string `json:"oracle"`
	Irm            string `json:"irm"`
	Lltv           string `json:"lltv"`
}

type feeRequest struct {
	MarketID string `json:"market_id"`
	Fee      string `json:"fee"`
}

type actionResponse struct {
	Signature string `json:"signature"`
}

type createMarketResponse struct {
	MarketID  string `json:"market_id"`
	Signature string `json:"signature"`
}

func (s *Service) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondMethodNotAllowed(w)
		return
	}
	if s.actions == nil {
		s.respondError(w, http.StatusForbidden, "gateway is running without a signing wallet")
		return
	}

	verb := strings.TrimPrefix(r.URL.Path, "/api/v1/actions/")
	switch verb {
	case "supply":
		s.handleSupplyShaped(w, r, s.actions.Supply)
	case "withdraw":
		s.handleSupplyShaped(w, r, s.actions.Withdraw)
	case "borrow":
		s.handleSupplyShaped(w, r, s.actions.Borrow)
	case "repay":
		s.handleSupplyShaped(w, r, s.actions.Repay)
	case "supply-collateral":
		s.handleCollateralShaped(w, r, s.actions.SupplyCollateral)
	case "withdraw-collateral":
		s.handleCollateralShaped(w, r, s.actions.WithdrawCollateral)
	case "liquidate":
		s.handleLiquidate(w, r)
	case "flash-loan":
		s.handleCollateralShaped(w, r, s.actions.FlashLoan)
	case "flash-loan-cycle":
		s.handleFlashLoanCycle(w, r)
	case "accrue-interest":
		s.handleMarketShaped(w, r, s.actions.AccrueInterest)
	case "close-position":
		s.handleMarketShaped(w, r, s.actions.ClosePosition)
	case "claim-fees":
		s.handleMarketShaped(w, r, s.actions.ClaimFees)
	case "authorize":
		s.handleAuthorizationShaped(w, r, s.actions.SetAuthorization)
	case "revoke-authorization":
		s.handleAuthorizationShaped(w, r, s.actions.RevokeAuthorization)
	case "initialize":
		s.handleInitialize(w, r)
	case "transfer-ownership":
		s.handleTransferOwnership(w, r)
	case "accept-ownership":
		s.handleAcceptOwnership(w, r)
	case "set-fee-recipient":
		s.handleSetFeeRecipient(w, r)
	case "set-paused":
		s.handleSetPaused(w, r)
	case "enable-lltv":
		s.handleEnableLltv(w, r)
	case "enable-irm":
		s.handleEnableIrm(w, r)
	case "create-market":
		s.handleCreateMarket(w, r)
	case "set-fee":
		s.handleSetFee(w, r)
	default:
		s.respondError(w, http.StatusNotFound, "unknown action")
	}
}

type supplyShapedAction func(ctx context.Context, id morpho.MarketID, assetsText, sharesText string) (solana.Signature, error)

func (s *Service) handleSupplyShaped(w http.ResponseWriter, r *http.Request, action supplyShapedAction) {
	var request supplyRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}

	sig, err := action(r.Context(), id, request.Assets, request.Shares)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

type collateralShapedAction func(ctx context.Context, id morpho.MarketID, amountText string) (solana.Signature, error)

func (s *Service) handleCollateralShaped(w http.ResponseWriter, r *http.Request, action collateralShapedAction) {
	var request collateralRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}

	sig, err := action(r.Context(), id, request.Amount)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

type marketShapedAction func(ctx context.Context, id morpho.MarketID) (solana.Signature, error)

func (s *Service) handleMarketShaped(w http.ResponseWriter, r *http.Request, action marketShapedAction) {
	var request marketRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}

	sig, err := action(r.Context(), id)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

type authorizationShapedAction func(ctx context.Context, authorized solana.PublicKey) (solana.Signature, error)

func (s *Service) handleAuthorizationShaped(w http.ResponseWriter, r *http.Request, action authorizationShapedAction) {
	var request authorizationRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	authorized, ok := s.parsePubkey(w, request.Authorized, "authorized")
	if !ok {
		return
	}

	sig, err := action(r.Context(), authorized)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleLiquidate(w http.ResponseWriter, r *http.Request) {
	var request liquidateRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}
	borrower, ok := s.parsePubkey(w, request.Borrower, "borrower")
	if !ok {
		return
	}

	sig, err := s.actions.Liquidate(r.Context(), id, borrower, request.RepaidAssets, request.RepaidShares)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

// handleFlashLoanCycle runs an empty borrow-and-repay cycle. Instructions
// between start and end are a programmatic-caller feature; over HTTP the
// cycle is a vault liveness check.
func (s *Service) handleFlashLoanCycle(w http.ResponseWriter, r *http.Request) {
	var request collateralRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}

	sig, err := s.actions.FlashLoanCycle(r.Context(), id, request.Amount)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var request initializeRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	feeRecipient, ok := s.parsePubkey(w, request.FeeRecipient, "fee_recipient")
	if !ok {
		return
	}

	sig, err := s.actions.InitializeProtocol(r.Context(), feeRecipient)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	var request ownerRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	newOwner, ok := s.parsePubkey(w, request.NewOwner, "new_owner")
	if !ok {
		return
	}

	sig, err := s.actions.TransferOwnership(r.Context(), newOwner)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleAcceptOwnership(w http.ResponseWriter, r *http.Request) {
	sig, err := s.actions.AcceptOwnership(r.Context())
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleSetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	var request initializeRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	feeRecipient, ok := s.parsePubkey(w, request.FeeRecipient, "fee_recipient")
	if !ok {
		return
	}

	sig, err := s.actions.SetFeeRecipient(r.Context(), feeRecipient)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

// handleSetPaused pauses the protocol when market_id is absent, a single
// market when it is present.
func (s *Service) handleSetPaused(w http.ResponseWriter, r *http.Request) {
	var request pausedRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		sig solana.Signature
		err error
	)
	if strings.TrimSpace(request.MarketID) == "" {
		sig, err = s.actions.SetProtocolPaused(r.Context(), request.Paused)
	} else {
		id, ok := s.parseMarketID(w, request.MarketID)
		if !ok {
			return
		}
		sig, err = s.actions.SetMarketPaused(r.Context(), id, request.Paused)
	}
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleEnableLltv(w http.ResponseWriter, r *http.Request) {
	var request lltvRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sig, err := s.actions.EnableLltv(r.Context(), request.Lltv)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleEnableIrm(w http.ResponseWriter, r *http.Request) {
	var request irmRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	irm, ok := s.parsePubkey(w, request.Irm, "irm")
	if !ok {
		return
	}

	sig, err := s.actions.EnableIrm(r.Context(), irm)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) handleCreateMarket(w http.ResponseWriter, r *http.Request) {
	var request createMarketRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	collateralMint, ok := s.parsePubkey(w, request.CollateralMint, "collateral_mint")
	if !ok {
		return
	}
	loanMint, ok := s.parsePubkey(w, request.LoanMint, "loan_mint")
	if !ok {
		return
	}
	oracle, ok := s.parsePubkey(w, request.Oracle, "oracle")
	if !ok {
		return
	}
	irm, ok := s.parsePubkey(w, request.Irm, "irm")
	if !ok {
		return
	}

	id, sig, err := s.actions.CreateMarket(r.Context(), collateralMint, loanMint, oracle, irm, request.Lltv)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, createMarketResponse{MarketID: id.String(), Signature: sig.String()})
}

func (s *Service) handleSetFee(w http.ResponseWriter, r *http.Request) {
	var request feeRequest
	if err := decodeJSONBody(r, &request); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := s.parseMarketID(w, request.MarketID)
	if !ok {
		return
	}

	sig, err := s.actions.SetFee(r.Context(), id, request.Fee)
	if err != nil {
		s.respondActionError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, actionResponse{Signature: sig.String()})
}

func (s *Service) parseMarketID(w http.ResponseWriter, raw string) (morpho.MarketID, bool) {
	id, err := morpho.MarketIDFromHex(strings.TrimSpace(raw))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "market_id must be 64 hex characters")
		return morpho.MarketID{}, false
	}
	return id, true
}

func (s *Service) parsePubkey(w http.ResponseWriter, raw, field string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(strings.TrimSpace(raw))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid "+field)
		return solana.PublicKey{}, false
	}
	return key, true
}

// respondActionError maps action failures to status codes. Submission
// failures keep their message; it carries the simulation log summary the
// operator needs to see.
func (s *Service) respondActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, amount.ErrMalformed), errors.Is(err, amount.ErrOverflow),
		errors.Is(err, client.ErrUnsupportedMint), errors.Is(err, client.ErrEmptyTransaction):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, client.ErrAccountNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	default:
		s.logger.Error("action failed", "err", err)
		s.respondError(w, http.StatusBadGateway, err.Error())
	}
}
