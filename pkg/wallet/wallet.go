package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrInvalidSignature = errors.New("invalid signature")
)

// NormalizeAddress проверяет адрес и приводит его к нижнему регистру
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if !common.IsHexAddress(address) {
		return "", ErrInvalidAddress
	}
	return strings.ToLower(common.HexToAddress(address).Hex()), nil
}

func ChallengeMessage(nonce string) string {
	return fmt.Sprintf("Sign this message to log in.\nNonce: %s", nonce)
}

// VerifySignature восстанавливает подписанта personal_sign сообщения и сравнивает с адресом
func VerifySignature(address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return ErrInvalidSignature
	}
	// кошельки отдают v = 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return ErrInvalidSignature
	}

	expected, err := NormalizeAddress(address)
	if err != nil {
		return err
	}
	if strings.ToLower(crypto.PubkeyToAddress(*pub).Hex()) != expected {
		return ErrInvalidSignature
	}
	return nil
}
