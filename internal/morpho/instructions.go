package morpho

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Instruction discriminators, sha256("global:<name>")[:8] per Anchor.
var (
	Instruction_Initialize          = instructionDiscriminator("initialize")
	Instruction_TransferOwnership   = instructionDiscriminator("transfer_ownership")
	Instruction_AcceptOwnership     = instructionDiscriminator("accept_ownership")
	Instruction_SetFeeRecipient     = instructionDiscriminator("set_fee_recipient")
	Instruction_SetProtocolPaused   = instructionDiscriminator("set_protocol_paused")
	Instruction_EnableLltv          = instructionDiscriminator("enable_lltv")
	Instruction_EnableIrm           = instructionDiscriminator("enable_irm")
	Instruction_CreateMarket        = instructionDiscriminator("create_market")
	Instruction_SetMarketPaused     = instructionDiscriminator("set_market_paused")
	Instruction_SetFee              = instructionDiscriminator("set_fee")
	Instruction_ClaimFees           = instructionDiscriminator("claim_fees")
	Instruction_AccrueInterest      = instructionDiscriminator("accrue_interest")
	Instruction_CreatePosition      = instructionDiscriminator("create_position")
	Instruction_ClosePosition       = instructionDiscriminator("close_position")
	Instruction_Supply              = instructionDiscriminator("supply")
	Instruction_Withdraw            = instructionDiscriminator("withdraw")
	Instruction_SupplyCollateral    = instructionDiscriminator("supply_collateral")
	Instruction_WithdrawCollateral  = instructionDiscriminator("withdraw_collateral")
	Instruction_Borrow              = instructionDiscriminator("borrow")
	Instruction_Repay               = instructionDiscriminator("repay")
	Instruction_Liquidate           = instructionDiscriminator("liquidate")
	Instruction_FlashLoan           = instructionDiscriminator("flash_loan")
	Instruction_FlashLoanStart      = instructionDiscriminator("flash_loan_start")
	Instruction_FlashLoanEnd        = instructionDiscriminator("flash_loan_end")
	Instruction_SetAuthorization    = instructionDiscriminator("set_authorization")
	Instruction_RevokeAuthorization = instructionDiscriminator("revoke_authorization")
)

// instructionData prefixes the discriminator and borsh-encodes the args.
// Account order in every builder below is part of the on-chain program's
// interface and must not be reordered.
func instructionData(disc [8]byte, encode func(*bin.Encoder) error) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if encode != nil {
		if err := encode(bin.NewBorshEncoder(buf)); err != nil {
			return nil, fmt.Errorf("encode instruction args: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func NewInitializeInstruction(
	owner solana.PublicKey,
	protocol solana.PublicKey,
	feeRecipient solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Initialize, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(protocol, true, false),
		solana.NewAccountMeta(feeRecipient, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewTransferOwnershipInstruction(
	owner solana.PublicKey,
	protocol solana.PublicKey,
	newOwner solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_TransferOwnership, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, true, false),
		solana.NewAccountMeta(newOwner, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewAcceptOwnershipInstruction(
	pendingOwner solana.PublicKey,
	protocol solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_AcceptOwnership, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(pendingOwner, false, true),
		solana.NewAccountMeta(protocol, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewSetFeeRecipientInstruction(
	owner solana.PublicKey,
	protocol solana.PublicKey,
	newFeeRecipient solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SetFeeRecipient, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, true, false),
		solana.NewAccountMeta(newFeeRecipient, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewSetProtocolPausedInstruction(
	paused bool,
	owner solana.PublicKey,
	protocol solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SetProtocolPaused, func(enc *bin.Encoder) error {
		return enc.WriteBool(paused)
	})
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewEnableLltvInstruction(
	lltv uint64,
	owner solana.PublicKey,
	protocol solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_EnableLltv, func(enc *bin.Encoder) error {
		return enc.WriteUint64(lltv, bin.LE)
	})
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewEnableIrmInstruction(
	owner solana.PublicKey,
	protocol solana.PublicKey,
	irm solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_EnableIrm, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, true, false),
		solana.NewAccountMeta(irm, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewCreateMarketInstruction(
	lltv uint64,
	payer solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	collateralMint solana.PublicKey,
	loanMint solana.PublicKey,
	oracle solana.PublicKey,
	irm solana.PublicKey,
	loanVault solana.PublicKey,
	collateralVault solana.PublicKey,
	loanTokenProgram solana.PublicKey,
	collateralTokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_CreateMarket, func(enc *bin.Encoder) error {
		return enc.WriteUint64(lltv, bin.LE)
	})
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(protocol, true, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(collateralMint, false, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(oracle, false, false),
		solana.NewAccountMeta(irm, false, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(collateralVault, true, false),
		solana.NewAccountMeta(loanTokenProgram, false, false),
		solana.NewAccountMeta(collateralTokenProgram, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewSetMarketPausedInstruction(
	paused bool,
	owner solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SetMarketPaused, func(enc *bin.Encoder) error {
		return enc.WriteBool(paused)
	})
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewSetFeeInstruction(
	fee uint64,
	owner solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SetFee, func(enc *bin.Encoder) error {
		return enc.WriteUint64(fee, bin.LE)
	})
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewClaimFeesInstruction(
	owner solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	feeRecipientTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_ClaimFees, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(feeRecipientTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewAccrueInterestInstruction is permissionless; any signer may crank it.
func NewAccrueInterestInstruction(
	caller solana.PublicKey,
	market solana.PublicKey,
	irm solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_AccrueInterest, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(caller, false, true),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(irm, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewCreatePositionInstruction(
	owner solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_CreatePosition, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(market, false, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewClosePositionInstruction(
	owner solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_ClosePosition, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, true, true),
		solana.NewAccountMeta(market, false, false),
		solana.NewAccountMeta(position, true, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewSupplyInstruction deposits loan assets. Exactly one of assets/shares is
// non-zero, per program convention.
func NewSupplyInstruction(
	assets uint64,
	shares uint64,
	supplier solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	supplierTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Supply, assetsSharesArgs(assets, shares))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(supplier, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(supplierTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewWithdrawInstruction(
	assets uint64,
	shares uint64,
	owner solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	receiverTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Withdraw, assetsSharesArgs(assets, shares))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(receiverTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewSupplyCollateralInstruction(
	amount uint64,
	owner solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	ownerTokenAccount solana.PublicKey,
	collateralVault solana.PublicKey,
	collateralMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SupplyCollateral, amountArgs(amount))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(ownerTokenAccount, true, false),
		solana.NewAccountMeta(collateralVault, true, false),
		solana.NewAccountMeta(collateralMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewWithdrawCollateralInstruction needs the oracle for the post-withdrawal
// health check.
func NewWithdrawCollateralInstruction(
	amount uint64,
	owner solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	receiverTokenAccount solana.PublicKey,
	collateralVault solana.PublicKey,
	collateralMint solana.PublicKey,
	oracle solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_WithdrawCollateral, amountArgs(amount))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(receiverTokenAccount, true, false),
		solana.NewAccountMeta(collateralVault, true, false),
		solana.NewAccountMeta(collateralMint, false, false),
		solana.NewAccountMeta(oracle, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewBorrowInstruction(
	assets uint64,
	shares uint64,
	owner solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	receiverTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	oracle solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Borrow, assetsSharesArgs(assets, shares))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(receiverTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(oracle, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewRepayInstruction(
	assets uint64,
	shares uint64,
	owner solana.PublicKey,
	market solana.PublicKey,
	position solana.PublicKey,
	ownerTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Repay, assetsSharesArgs(assets, shares))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(owner, false, true),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(position, true, false),
		solana.NewAccountMeta(ownerTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewLiquidateInstruction repays a share of the borrower's debt and seizes
// collateral; the seized amount is computed on chain from the oracle price.
func NewLiquidateInstruction(
	repaidAssets uint64,
	repaidShares uint64,
	liquidator solana.PublicKey,
	protocol solana.PublicKey,
	market solana.PublicKey,
	borrowerPosition solana.PublicKey,
	liquidatorLoanTokenAccount solana.PublicKey,
	liquidatorCollateralTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	collateralVault solana.PublicKey,
	loanMint solana.PublicKey,
	collateralMint solana.PublicKey,
	oracle solana.PublicKey,
	loanTokenProgram solana.PublicKey,
	collateralTokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_Liquidate, assetsSharesArgs(repaidAssets, repaidShares))
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(liquidator, false, true),
		solana.NewAccountMeta(protocol, false, false),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(borrowerPosition, true, false),
		solana.NewAccountMeta(liquidatorLoanTokenAccount, true, false),
		solana.NewAccountMeta(liquidatorCollateralTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(collateralVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(collateralMint, false, false),
		solana.NewAccountMeta(oracle, false, false),
		solana.NewAccountMeta(loanTokenProgram, false, false),
		solana.NewAccountMeta(collateralTokenProgram, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

// NewFlashLoanInstruction is the single-instruction variant: the borrower
// must repay within the same instruction via a program it controls. Usable
// only with a custom on-chain callee.
func NewFlashLoanInstruction(
	amount uint64,
	borrower solana.PublicKey,
	market solana.PublicKey,
	borrowerTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_FlashLoan, amountArgs(amount))
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, flashLoanAccounts(borrower, market, borrowerTokenAccount, loanVault, loanMint, tokenProgram), data), nil
}

// NewFlashLoanStartInstruction locks the market and lends; the repayment is
// verified by flash_loan_end in the same transaction.
func NewFlashLoanStartInstruction(
	amount uint64,
	borrower solana.PublicKey,
	market solana.PublicKey,
	borrowerTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_FlashLoanStart, amountArgs(amount))
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, flashLoanAccounts(borrower, market, borrowerTokenAccount, loanVault, loanMint, tokenProgram), data), nil
}

func NewFlashLoanEndInstruction(
	borrower solana.PublicKey,
	market solana.PublicKey,
	borrowerTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_FlashLoanEnd, nil)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(ProgramID, flashLoanAccounts(borrower, market, borrowerTokenAccount, loanVault, loanMint, tokenProgram), data), nil
}

func NewSetAuthorizationInstruction(
	authorizer solana.PublicKey,
	authorization solana.PublicKey,
	authorized solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_SetAuthorization, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(authorizer, true, true),
		solana.NewAccountMeta(authorization, true, false),
		solana.NewAccountMeta(authorized, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func NewRevokeAuthorizationInstruction(
	authorizer solana.PublicKey,
	authorization solana.PublicKey,
	authorized solana.PublicKey,
) (solana.Instruction, error) {
	data, err := instructionData(Instruction_RevokeAuthorization, nil)
	if err != nil {
		return nil, err
	}
	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(authorizer, true, true),
		solana.NewAccountMeta(authorization, true, false),
		solana.NewAccountMeta(authorized, false, false),
	}
	return solana.NewInstruction(ProgramID, accounts, data), nil
}

func flashLoanAccounts(
	borrower solana.PublicKey,
	market solana.PublicKey,
	borrowerTokenAccount solana.PublicKey,
	loanVault solana.PublicKey,
	loanMint solana.PublicKey,
	tokenProgram solana.PublicKey,
) solana.AccountMetaSlice {
	return solana.AccountMetaSlice{
		solana.NewAccountMeta(borrower, false, true),
		solana.NewAccountMeta(market, true, false),
		solana.NewAccountMeta(borrowerTokenAccount, true, false),
		solana.NewAccountMeta(loanVault, true, false),
		solana.NewAccountMeta(loanMint, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
	}
}

func assetsSharesArgs(assets, shares uint64) func(*bin.Encoder) error {
	return func(enc *bin.Encoder) error {
		if err := enc.WriteUint64(assets, bin.LE); err != nil {
			return err
		}
		return enc.WriteUint64(shares, bin.LE)
	}
}

func amountArgs(amount uint64) func(*bin.Encoder) error {
	return func(enc *bin.Encoder) error {
		return enc.WriteUint64(amount, bin.LE)
	}
}
