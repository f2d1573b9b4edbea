package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// Solana addresses are base58-encoded ed25519 public keys, 32 bytes raw,
// 32-44 characters encoded.
const (
	minAddressLen = 32
	maxAddressLen = 44
)

// IsValidAddress проверяет формат адреса. Никогда не паникует,
// на любом мусоре возвращает false.
func IsValidAddress(address string) bool {
	if len(address) < minAddressLen || len(address) > maxAddressLen {
		return false
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return false
	}
	return len(raw) == ed25519.PublicKeySize
}

// VerifySignedMessage проверяет, что signature над message произведена ключом
// адреса address. Возвращаемый error описывает проблему декодирования (для
// логов), но наружу в любом случае уходит false — fail closed.
//
// Кошельки (Phantom и т.п.) подписывают сырые байты сообщения ed25519-ключом;
// подпись приходит в base58 либо base64.
func VerifySignedMessage(message string, signature string, address string) (bool, error) {
	if message == "" || signature == "" {
		return false, fmt.Errorf("empty message or signature")
	}

	pubKey, err := base58.Decode(address)
	if err != nil {
		return false, fmt.Errorf("invalid address encoding: %w", err)
	}
	if len(pubKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key size: %d", len(pubKey))
	}

	sig, err := decodeSignature(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature encoding: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return false, fmt.Errorf("invalid signature size: %d", len(sig))
	}

	return ed25519.Verify(ed25519.PublicKey(pubKey), []byte(message), sig), nil
}

// decodeSignature принимает base58 (Phantom) или base64 (solana-web3 клиенты).
func decodeSignature(signature string) ([]byte, error) {
	if sig, err := base58.Decode(signature); err == nil && len(sig) == ed25519.SignatureSize {
		return sig, nil
	}
	if sig, err := base64.StdEncoding.DecodeString(signature); err == nil {
		return sig, nil
	}
	return nil, fmt.Errorf("signature is neither base58 nor base64")
}
