package cli

import (
	"context"
	"fmt"

	"github.com/ralt/aptrepo/internal/config"
	"github.com/ralt/aptrepo/internal/generator"
	"github.com/ralt/aptrepo/internal/generator/deb"
	"github.com/ralt/aptrepo/internal/models"
	"github.com/ralt/aptrepo/internal/scanner"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// NewGenerateCmd creates the generate command
func NewGenerateCmd() *cobra.Command {
	var configPath string
	flags := models.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "generate [package.deb...]",
		Short: "Generate repository structure",
		Long: `Scans the input directory for .deb packages, adds any packages given
as arguments, and writes the index, Release and signature files to the
output directory. Packages are processed in lexicographic path order.

Settings are read from --config, then APTREPO_* environment variables
(a .env file is loaded when present), then flags given on the command line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd.Flags(), flags, cfg)
			cfg.Packages = append(cfg.Packages, args...)

			// Validate configuration
			if err := config.Validate(cfg); err != nil {
				return err
			}

			logrus.Info("Starting repository generation...")
			logrus.Debugf("Configuration: %+v", redact(*cfg))

			// Run generation
			return runGeneration(cmd.Context(), cfg, deb.NewGenerator(nil))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	// Input/Output flags
	cmd.Flags().StringVarP(&flags.InputDir, "input-dir", "i", "", "Input directory to scan (default \".\" when no packages are given)")
	cmd.Flags().StringVarP(&flags.OutputDir, "output-dir", "o", flags.OutputDir, "Output directory")
	cmd.Flags().BoolVar(&flags.CopyPackages, "copy", flags.CopyPackages, "Copy packages into the output directory")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", flags.Workers, "Number of packages read in parallel")
	cmd.Flags().StringSliceVar(&flags.ControlCompressions, "control-compression", flags.ControlCompressions, "Accepted control.tar compressions (gz, xz, zst)")

	// GPG signing flags
	cmd.Flags().BoolVarP(&flags.Signing.Enabled, "sign", "s", false, "Sign the Release file")
	cmd.Flags().StringVarP(&flags.Signing.KeyRing, "gpg-key", "k", "", "Path to GPG secret key ring")
	cmd.Flags().StringVar(&flags.Signing.KeyID, "key-id", "", "Key ID or fingerprint to sign with (default: first secret key)")
	cmd.Flags().StringVarP(&flags.Signing.Passphrase, "gpg-passphrase", "p", "", "GPG key passphrase")
	cmd.Flags().StringVar(&flags.Signing.PassphraseFile, "gpg-passphrase-file", "", "File whose first line is the GPG key passphrase")
	cmd.Flags().StringVar(&flags.Signing.Digest, "digest", flags.Signing.Digest, "Signature digest (MD5, SHA1, SHA224, SHA256, SHA384, SHA512, RIPEMD160)")
	cmd.Flags().StringVar(&flags.Signing.PublicKeyName, "export-key", "", "Write the armored public key to this file in the output directory")

	// Repository metadata flags
	cmd.Flags().StringVar(&flags.Origin, "origin", "", "Repository origin name")
	cmd.Flags().StringVar(&flags.Label, "label", "", "Repository label")
	cmd.Flags().StringVar(&flags.Suite, "suite", "", "Repository suite")
	cmd.Flags().StringVar(&flags.Codename, "codename", "", "Repository codename")
	cmd.Flags().StringVar(&flags.Architectures, "architectures", "", "Architectures field of Release")
	cmd.Flags().StringVar(&flags.Components, "components", "", "Components field of Release")
	cmd.Flags().StringVar(&flags.Description, "description", "", "Description field of Release")

	return cmd
}

// applyFlags copies the flags set on the command line from src to dst
func applyFlags(fs *pflag.FlagSet, src, dst *models.RepositoryConfig) {
	setters := map[string]func(){
		"input-dir":           func() { dst.InputDir = src.InputDir },
		"output-dir":          func() { dst.OutputDir = src.OutputDir },
		"copy":                func() { dst.CopyPackages = src.CopyPackages },
		"workers":             func() { dst.Workers = src.Workers },
		"control-compression": func() { dst.ControlCompressions = src.ControlCompressions },
		"sign":                func() { dst.Signing.Enabled = src.Signing.Enabled },
		"gpg-key":             func() { dst.Signing.KeyRing = src.Signing.KeyRing },
		"key-id":              func() { dst.Signing.KeyID = src.Signing.KeyID },
		"gpg-passphrase":      func() { dst.Signing.Passphrase = src.Signing.Passphrase },
		"gpg-passphrase-file": func() { dst.Signing.PassphraseFile = src.Signing.PassphraseFile },
		"digest":              func() { dst.Signing.Digest = src.Signing.Digest },
		"export-key":          func() { dst.Signing.PublicKeyName = src.Signing.PublicKeyName },
		"origin":              func() { dst.Origin = src.Origin },
		"label":               func() { dst.Label = src.Label },
		"suite":               func() { dst.Suite = src.Suite },
		"codename":            func() { dst.Codename = src.Codename },
		"architectures":       func() { dst.Architectures = src.Architectures },
		"components":          func() { dst.Components = src.Components },
		"description":         func() { dst.Description = src.Description },
	}

	fs.Visit(func(f *pflag.Flag) {
		if set, ok := setters[f.Name]; ok {
			set()
		}
	})
}

// redact hides the passphrase from debug output
func redact(cfg models.RepositoryConfig) models.RepositoryConfig {
	if cfg.Signing.Passphrase != "" {
		cfg.Signing.Passphrase = "***"
	}
	return cfg
}

// collectArchives scans the input directory and merges explicit package
// paths into one sorted list
func collectArchives(ctx context.Context, cfg *models.RepositoryConfig) ([]string, error) {
	inputDir := cfg.InputDir
	if inputDir == "" && len(cfg.Packages) == 0 {
		inputDir = "."
	}

	var scanned []scanner.ScannedPackage
	if inputDir != "" {
		logrus.Infof("Scanning directory: %s", inputDir)
		sc := scanner.NewFileSystemScanner(cfg.OutputDir)
		var err error
		scanned, err = sc.Scan(ctx, inputDir)
		if err != nil {
			return nil, &models.RepoGenError{
				Type: models.ErrFileOp,
				Err:  err,
			}
		}
	}

	return scanner.MergePaths(scanned, cfg.Packages), nil
}

func runGeneration(ctx context.Context, cfg *models.RepositoryConfig, gen generator.Generator) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Step 1: Find packages
	archives, err := collectArchives(ctx, cfg)
	if err != nil {
		return err
	}

	if len(archives) == 0 {
		logrus.Warn("No packages found, generating an empty repository")
	} else {
		logrus.Infof("Found %d packages", len(archives))
	}

	// Step 2: Build the repository
	if err := gen.Generate(ctx, cfg, archives); err != nil {
		return fmt.Errorf("failed to generate repository: %w", err)
	}

	logrus.Info("Repository generation completed successfully!")
	logrus.Infof("Output directory: %s", cfg.OutputDir)

	return nil
}
