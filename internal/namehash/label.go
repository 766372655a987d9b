package namehash

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrTokenIDRange is returned for token ids outside [0, 2^256).
var ErrTokenIDRange = errors.New("token id out of uint256 range")

// LabelFromTokenID encodes an ERC-721 token id as its 32-byte big-endian
// label. The registrar mints token id = uint256(labelhash).
func LabelFromTokenID(id *big.Int) (common.Hash, error) {
	if id == nil {
		return common.Hash{}, fmt.Errorf("%w: nil", ErrTokenIDRange)
	}
	if id.Sign() < 0 || id.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrTokenIDRange, id)
	}
	return common.BigToHash(id), nil
}

// TokenIDFromLabel is the inverse of LabelFromTokenID.
func TokenIDFromLabel(label common.Hash) *big.Int {
	return new(big.Int).SetBytes(label.Bytes())
}

// RegistrationID returns the registration identifier for a label.
func RegistrationID(label common.Hash) string {
	return label.Hex()
}

// AccountID returns the lowercase hex form of an address. The checksummed
// form from common.Address.Hex is not used so ids compare byte-wise.
func AccountID(addr common.Address) string {
	return hexutil.Encode(addr.Bytes())
}
