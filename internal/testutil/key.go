package testutil

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// Key is a generated secret key ring for signing tests
type Key struct {
	Public  openpgp.EntityList
	Armored []byte
	KeyID   string
}

// GenerateKey creates a secret key. A non-empty passphrase encrypts the
// private key material before it is serialized.
func GenerateKey(t *testing.T, passphrase string) *Key {
	t.Helper()

	entity, err := openpgp.NewEntity("Repo Signer", "test", "signer@example.com", nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	// Public half, used to verify signatures
	var pub bytes.Buffer
	if err := entity.Serialize(&pub); err != nil {
		t.Fatalf("failed to serialize public key: %v", err)
	}
	verifier, err := openpgp.ReadKeyRing(bytes.NewReader(pub.Bytes()))
	if err != nil {
		t.Fatalf("failed to read public key: %v", err)
	}

	if passphrase != "" {
		if err := entity.PrivateKey.Encrypt([]byte(passphrase)); err != nil {
			t.Fatalf("failed to encrypt key: %v", err)
		}
		for _, sub := range entity.Subkeys {
			if sub.PrivateKey != nil {
				if err := sub.PrivateKey.Encrypt([]byte(passphrase)); err != nil {
					t.Fatalf("failed to encrypt subkey: %v", err)
				}
			}
		}
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor encode failed: %v", err)
	}
	if err := entity.SerializePrivateWithoutSigning(w, nil); err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	w.Close()

	return &Key{
		Public:  verifier,
		Armored: buf.Bytes(),
		KeyID:   fmt.Sprintf("%016X", entity.PrimaryKey.KeyId),
	}
}

// KeyRing returns the public half for signature verification
func (k *Key) KeyRing() openpgp.EntityList {
	return k.Public
}
