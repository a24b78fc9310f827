package models

// RepositoryConfig contains configuration for repository generation
type RepositoryConfig struct {
	// Input/Output
	InputDir  string   `yaml:"input_dir"`
	Packages  []string `yaml:"packages"` // Explicit archive paths, merged with InputDir results
	OutputDir string   `yaml:"output_dir"`

	// CopyPackages copies archives into OutputDir so the repository is a flat pool
	CopyPackages bool `yaml:"copy_packages"`
	// Workers bounds the per-archive digest/extract/parse phase
	Workers int `yaml:"workers"`
	// ControlCompressions lists accepted control.tar.<ext> members ("gz", "xz", "zst")
	ControlCompressions []string `yaml:"control_compressions"`

	// Optional Release header fields, rendered only when set
	Origin        string `yaml:"origin"`
	Label         string `yaml:"label"`
	Suite         string `yaml:"suite"`
	Codename      string `yaml:"codename"`
	Architectures string `yaml:"architectures"`
	Components    string `yaml:"components"`
	Description   string `yaml:"description"`

	Signing SigningConfig `yaml:"signing"`
}

// SigningConfig describes how Release is signed
type SigningConfig struct {
	Enabled        bool   `yaml:"enabled"`
	KeyRing        string `yaml:"keyring"` // Path to the armored or binary secret key ring
	KeyID          string `yaml:"key_id"`
	Passphrase     string `yaml:"passphrase"`
	PassphraseFile string `yaml:"passphrase_file"`
	Digest         string `yaml:"digest"`          // MD5, SHA1, SHA224, SHA256, SHA384, SHA512, RIPEMD160
	PublicKeyName  string `yaml:"public_key_name"` // Written next to Release when set
}

// DefaultConfig returns a config with the defaults used by the CLI
func DefaultConfig() *RepositoryConfig {
	return &RepositoryConfig{
		OutputDir:           "./repo",
		CopyPackages:        true,
		Workers:             1,
		ControlCompressions: []string{"gz"},
		Signing: SigningConfig{
			Digest: "SHA256",
		},
	}
}
