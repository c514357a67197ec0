package morpho

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/sha3"
)

// MarketID is the 32-byte identifier correlating a market account with its
// vaults and positions.
type MarketID [32]byte

func (id MarketID) String() string {
	return hex.EncodeToString(id[:])
}

func MarketIDFromHex(raw string) (MarketID, error) {
	var id MarketID
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return MarketID{}, err
	}
	if len(decoded) != len(id) {
		return MarketID{}, ErrInvalidAccountData
	}
	copy(id[:], decoded)
	return id, nil
}

// ComputeMarketID hashes the five market parameters exactly the way the
// on-chain program does when validating create_market:
// keccak256(collateral_mint || loan_mint || oracle || irm || lltv as u64 LE).
// Any divergence in byte order or width here breaks every downstream
// derivation for the market.
func ComputeMarketID(collateralMint, loanMint, oracle, irm solana.PublicKey, lltv uint64) MarketID {
	buf := make([]byte, 0, 4*32+8)
	buf = append(buf, collateralMint.Bytes()...)
	buf = append(buf, loanMint.Bytes()...)
	buf = append(buf, oracle.Bytes()...)
	buf = append(buf, irm.Bytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, lltv)

	hash := sha3.NewLegacyKeccak256()
	hash.Write(buf)

	var id MarketID
	copy(id[:], hash.Sum(nil))
	return id
}
