package morpho

import (
	"fmt"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Oracle prices are scaled by 1e36: price = scaled loan units per collateral
// unit * 10^36, accounting for the decimal difference between the two mints.
var OracleScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(36), nil)

// Accounts at least this large are Switchboard feeds; the static oracle
// account is 57 bytes.
const switchboardMinAccountSize = 1000

var Account_StaticOracle = accountDiscriminator("StaticOracle")

// StaticOracle is the admin-settable fixed-price oracle used by test and
// bootstrap markets.
type StaticOracle struct {
	Bump  uint8
	Price bin.Uint128
	Admin solana.PublicKey
}

func ParseAccount_StaticOracle(data []byte) (*StaticOracle, error) {
	if _, err := checkDiscriminator(data, Account_StaticOracle, "StaticOracle"); err != nil {
		return nil, err
	}
	dec := bin.NewBorshDecoder(data[8:])
	out := new(StaticOracle)
	var err error
	if out.Bump, err = dec.ReadUint8(); err != nil {
		return nil, fmt.Errorf("read bump: %w", err)
	}
	if out.Price, err = dec.ReadUint128(bin.LE); err != nil {
		return nil, fmt.Errorf("read price: %w", err)
	}
	if out.Admin, err = readPublicKey(dec); err != nil {
		return nil, fmt.Errorf("read admin: %w", err)
	}
	return out, nil
}

// IsSwitchboardFeed reports whether raw oracle account data looks like a
// Switchboard aggregator rather than a static oracle. The console only
// decodes static oracles; Switchboard feeds are read on chain by the program
// itself.
func IsSwitchboardFeed(data []byte) bool {
	return len(data) >= switchboardMinAccountSize
}

// OraclePrice decodes a price out of raw oracle account data, routing on the
// account's shape.
func OraclePrice(data []byte) (*big.Int, error) {
	if IsSwitchboardFeed(data) {
		return nil, fmt.Errorf("switchboard feed: %w", ErrUnsupportedOracle)
	}
	oracle, err := ParseAccount_StaticOracle(data)
	if err != nil {
		return nil, err
	}
	return oracle.Price.BigInt(), nil
}
