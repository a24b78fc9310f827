package signer

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/ralt/aptrepo/internal/models"

	// Register hashes that may be selected for signatures
	_ "crypto/md5"
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	_ "golang.org/x/crypto/ripemd160"
)

// GPGSigner implements Signer interface using OpenPGP
type GPGSigner struct {
	entity *openpgp.Entity
	config *packet.Config
}

// NewGPGSigner loads the key named by req.KeyID from req.KeyRing and unlocks it
func NewGPGSigner(req *Request) (*GPGSigner, error) {
	if req == nil {
		return nil, models.NewError(models.ErrInvalidConfig, "no signing request")
	}
	if !req.Digest.Hash.Available() {
		return nil, models.NewError(models.ErrSigning, "digest algorithm %s is not available", req.Digest.Name)
	}

	entityList, err := readKeyRing(req.KeyRing)
	if err != nil {
		return nil, err
	}

	entity, err := findEntity(entityList, req.KeyID)
	if err != nil {
		return nil, err
	}

	if err := decryptEntity(entity, req.Passphrase); err != nil {
		return nil, err
	}

	s := &GPGSigner{
		entity: entity,
		config: &packet.Config{DefaultHash: req.Digest.Hash},
	}
	if err := s.checkDigest(req.Digest); err != nil {
		return nil, err
	}
	return s, nil
}

// checkDigest signs an empty message both ways and fails unless each
// signature carries the requested digest. The library substitutes another
// hash for digests it refuses when clear signing.
func (s *GPGSigner) checkDigest(digest DigestAlgorithm) error {
	if got := s.config.Hash(); got != digest.Hash {
		return models.NewError(models.ErrSigning, "digest algorithm %s is not supported for signing", digest.Name)
	}

	if _, err := s.SignDetached(nil); err != nil {
		return models.NewError(models.ErrSigning, "digest algorithm %s is not supported for signing: %v", digest.Name, err)
	}

	signed, err := s.SignCleartext(nil)
	if err != nil {
		return models.NewError(models.ErrSigning, "digest algorithm %s is not supported for signing: %v", digest.Name, err)
	}
	block, _ := clearsign.Decode(signed)
	if block == nil {
		return models.NewError(models.ErrSigning, "failed to decode clear signature")
	}
	p, err := packet.Read(block.ArmoredSignature.Body)
	if err != nil {
		return models.NewError(models.ErrSigning, "failed to read clear signature: %v", err)
	}
	sig, ok := p.(*packet.Signature)
	if !ok || sig.Hash != digest.Hash {
		return models.NewError(models.ErrSigning, "digest algorithm %s is not supported for clear signing", digest.Name)
	}
	return nil
}

func readKeyRing(data []byte) (openpgp.EntityList, error) {
	// Try to parse as armored key first
	entityList, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(data))
	if err != nil {
		entityList, err = openpgp.ReadKeyRing(bytes.NewReader(data))
		if err != nil {
			return nil, models.NewError(models.ErrSigning, "failed to read key ring: %v", err)
		}
	}
	if len(entityList) == 0 {
		return nil, models.NewError(models.ErrSigning, "no keys found in key ring")
	}
	return entityList, nil
}

// findEntity matches keyID against the 8 or 16 digit key id or fingerprint of
// every primary key and subkey. An empty keyID selects the first secret key.
func findEntity(entities openpgp.EntityList, keyID string) (*openpgp.Entity, error) {
	want := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(keyID, "0x"), "0X"))
	want = strings.ReplaceAll(want, " ", "")

	for _, e := range entities {
		if e.PrivateKey == nil {
			continue
		}
		if want == "" || keyMatches(e.PrimaryKey, want) {
			return e, nil
		}
		for _, sub := range e.Subkeys {
			if keyMatches(sub.PublicKey, want) {
				return e, nil
			}
		}
	}

	if want == "" {
		return nil, models.NewError(models.ErrSigning, "no secret key found in key ring")
	}
	return nil, models.NewError(models.ErrSigning, "secret key %s not found in key ring", keyID)
}

func keyMatches(pk *packet.PublicKey, want string) bool {
	if pk == nil {
		return false
	}
	switch want {
	case fmt.Sprintf("%016X", pk.KeyId),
		fmt.Sprintf("%08X", uint32(pk.KeyId)),
		fmt.Sprintf("%X", pk.Fingerprint):
		return true
	}
	return false
}

func decryptEntity(entity *openpgp.Entity, passphrase string) error {
	if entity.PrivateKey != nil && entity.PrivateKey.Encrypted {
		if err := entity.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
			return models.NewError(models.ErrSigning, "failed to decrypt private key: %v", err)
		}
	}

	for _, subkey := range entity.Subkeys {
		if subkey.PrivateKey != nil && subkey.PrivateKey.Encrypted {
			if err := subkey.PrivateKey.Decrypt([]byte(passphrase)); err != nil {
				return models.NewError(models.ErrSigning, "failed to decrypt subkey: %v", err)
			}
		}
	}
	return nil
}

// SignCleartext creates a cleartext signature (for Debian InRelease)
func (s *GPGSigner) SignCleartext(data []byte) ([]byte, error) {
	key, ok := s.entity.SigningKey(time.Now())
	if !ok || key.PrivateKey == nil {
		return nil, models.NewError(models.ErrSigning, "key has no usable signing key")
	}

	var buf bytes.Buffer
	w, err := clearsign.Encode(&buf, key.PrivateKey, s.config)
	if err != nil {
		return nil, models.NewError(models.ErrSigning, "failed to start clear signature: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, models.NewError(models.ErrSigning, "failed to write clear signed text: %v", err)
	}
	if err := w.Close(); err != nil {
		return nil, models.NewError(models.ErrSigning, "failed to clear sign: %v", err)
	}

	return buf.Bytes(), nil
}

// SignDetached creates an armored detached signature (for Release.gpg)
func (s *GPGSigner) SignDetached(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	if err := openpgp.ArmoredDetachSign(&buf, s.entity, bytes.NewReader(data), s.config); err != nil {
		return nil, models.NewError(models.ErrSigning, "failed to create detached signature: %v", err)
	}

	return buf.Bytes(), nil
}

// GetPublicKey returns the public key in armored format
func (s *GPGSigner) GetPublicKey() ([]byte, error) {
	var buf bytes.Buffer

	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		return nil, err
	}

	if err := s.entity.Serialize(w); err != nil {
		w.Close()
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// KeyID returns the 16 digit id of the signing entity's primary key
func (s *GPGSigner) KeyID() string {
	return fmt.Sprintf("%016X", s.entity.PrimaryKey.KeyId)
}
