package signature_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/noobcash/blockchain/foundation/blockchain/signature"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	v, r, s, err := signature.Sign(value, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signature.VerifySignature(v, r, s); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}

	key, err := signature.FromPublicKey(value, v, r, s)
	if err != nil {
		t.Fatalf("Should be able to recover the public key: %s", err)
	}

	exp := signature.PublicKeyString(pk.PublicKey)
	if key != exp {
		t.Logf("got: %s", key)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the right public key.")
	}

	str := signature.SignatureString(v, r, s)
	if len(str) != 2+2*crypto.SignatureLength {
		t.Logf("got: %d", len(str))
		t.Logf("exp: %d", 2+2*crypto.SignatureLength)
		t.Fatalf("Should get back the right signature string length.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}
	hash := "0x0f6887ac85101d6d6425a617edf35bd721b5f619fb92c36c3d2224e3bdb0ee5a"

	h := signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_TamperedValue(t *testing.T) {
	value1 := struct {
		Name string
	}{
		Name: "Bill",
	}
	value2 := struct {
		Name string
	}{
		Name: "Jill",
	}

	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	v, r, s, err := signature.Sign(value1, pk)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	key, err := signature.FromPublicKey(value2, v, r, s)
	if err == nil && key == signature.PublicKeyString(pk.PublicKey) {
		t.Fatalf("Should not recover the signer's key from different data.")
	}
}
