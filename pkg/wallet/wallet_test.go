package wallet

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	addr, err := NormalizeAddress("  0x52908400098527886E0F7030069857D2E4169EE7 ")
	require.NoError(t, err)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", addr)

	_, err = NormalizeAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)

	_, err = NormalizeAddress("")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func sign(t *testing.T, message string) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)
	sig[crypto.RecoveryIDOffset] += 27

	return crypto.PubkeyToAddress(key.PublicKey).Hex(), hexutil.Encode(sig)
}

func TestVerifySignature(t *testing.T) {
	msg := ChallengeMessage("abc")
	address, sig := sign(t, msg)

	assert.NoError(t, VerifySignature(address, msg, sig))
	assert.NoError(t, VerifySignature(strings.ToLower(address), msg, sig))
}

func TestVerifySignature_WrongMessage(t *testing.T) {
	address, sig := sign(t, ChallengeMessage("abc"))

	assert.ErrorIs(t, VerifySignature(address, ChallengeMessage("other"), sig), ErrInvalidSignature)
}

func TestVerifySignature_Malformed(t *testing.T) {
	address, _ := sign(t, "x")

	assert.ErrorIs(t, VerifySignature(address, "x", "0xdeadbeef"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature(address, "x", "not-hex"), ErrInvalidSignature)
}
