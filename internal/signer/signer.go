package signer

// Signer interface for signing repository metadata
type Signer interface {
	// SignCleartext creates a cleartext signature (for InRelease)
	SignCleartext(data []byte) ([]byte, error)

	// SignDetached creates a detached signature (for Release.gpg)
	SignDetached(data []byte) ([]byte, error)

	// GetPublicKey returns the public key
	GetPublicKey() ([]byte, error)
}
