package deb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ralt/aptrepo/internal/generator"
	"github.com/ralt/aptrepo/internal/models"
	"github.com/ralt/aptrepo/internal/signer"
	"github.com/ralt/aptrepo/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Output file names of a flat repository
const (
	PackagesFile   = "Packages"
	PackagesGzFile = "Packages.gz"
	ReleaseFile    = "Release"
	ReleaseGPGFile = "Release.gpg"
	InReleaseFile  = "InRelease"
)

var _ generator.Generator = (*Generator)(nil)

// Generator builds a flat Debian repository
type Generator struct {
	signer signer.Signer
	now    func() time.Time
}

// NewGenerator creates a new Debian generator. A nil signer means the signer
// is built from the signing configuration, if enabled.
func NewGenerator(s signer.Signer) *Generator {
	return &Generator{
		signer: s,
		now:    time.Now,
	}
}

// WithClock overrides the time used for the Release Date field
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate creates the Packages, Packages.gz and Release files, and the
// signed variants when a signer is available. Any per-archive failure aborts
// before an index file is written.
func (g *Generator) Generate(ctx context.Context, config *models.RepositoryConfig, archives []string) error {
	logrus.Info("Generating Debian repository...")

	if err := signer.ValidateConfig(config.Signing); err != nil {
		return err
	}
	extractor, err := NewExtractor(config.ControlCompressions...)
	if err != nil {
		return err
	}
	logrus.Debugf("Reading control members with %s", extractor)

	s, err := g.resolveSigner(config)
	if err != nil {
		return err
	}

	if len(archives) == 0 {
		logrus.Warn("No package archives given, the index will be empty")
	}

	packages, err := collectPackages(ctx, extractor, archives, config.Workers)
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(config.OutputDir); err != nil {
		return &models.RepoGenError{Type: models.ErrFileOp, Err: err}
	}

	if err := assignFilenames(config, packages); err != nil {
		return err
	}

	if err := g.ValidatePackages(packages); err != nil {
		return err
	}

	if config.CopyPackages {
		if err := copyToPool(config.OutputDir, packages); err != nil {
			return err
		}
	}

	index := NewPackageIndex()
	for _, pkg := range packages {
		index.Add(pkg)
	}

	if err := writeIndex(config.OutputDir, index); err != nil {
		return err
	}

	releaseData, err := g.writeRelease(config)
	if err != nil {
		return err
	}

	if s == nil {
		removeStaleSignatures(config.OutputDir)
		logrus.Warn("No signer configured, repository will be unsigned")
	} else if err := writeSignatures(config, s, releaseData); err != nil {
		return err
	}

	logrus.Infof("Debian repository generated successfully (%d packages)", index.Len())
	return nil
}

func (g *Generator) resolveSigner(config *models.RepositoryConfig) (signer.Signer, error) {
	if g.signer != nil {
		return g.signer, nil
	}
	if !config.Signing.Enabled {
		return nil, nil
	}

	req, err := signer.LoadRequest(config.Signing)
	if err != nil {
		return nil, err
	}
	s, err := signer.NewGPGSigner(req)
	if err != nil {
		return nil, err
	}
	logrus.Infof("GPG signer initialized (key %s, digest %s)", s.KeyID(), req.Digest.Name)
	return s, nil
}

// ParsePackage digests a .deb file and extracts its control metadata.
// Filename is left empty; it depends on where the archive is published.
func ParsePackage(extractor *Extractor, path string) (*models.Package, error) {
	checksums, err := utils.CalculateChecksums(path)
	if err != nil {
		return nil, models.WithPackage(err, path, models.ErrFileRead)
	}

	pkg := &models.Package{
		Source:    path,
		Size:      checksums.Size,
		MD5Sum:    checksums.MD5,
		SHA1Sum:   checksums.SHA1,
		SHA256Sum: checksums.SHA256,
		SHA512Sum: checksums.SHA512,
	}

	control, err := extractor.ExtractControl(path)
	if err != nil {
		return nil, models.WithPackage(err, path, models.ErrExtraction)
	}

	if err := ParseControl(control, pkg); err != nil {
		return nil, models.WithPackage(err, path, models.ErrPackageParse)
	}

	logrus.Debugf("Parsed %s %s (%s) from %s", pkg.Name, pkg.Version, humanize.Bytes(uint64(pkg.Size)), path)
	return pkg, nil
}

// collectPackages parses archives with up to workers goroutines. Results keep
// the order of archives.
func collectPackages(ctx context.Context, extractor *Extractor, archives []string, workers int) ([]models.Package, error) {
	if workers < 1 {
		workers = 1
	}

	packages := make([]models.Package, len(archives))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, path := range archives {
		i, path := i, path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			logrus.Debugf("Parsing deb package: %s", path)
			pkg, err := ParsePackage(extractor, path)
			if err != nil {
				return err
			}
			packages[i] = *pkg
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return packages, nil
}

// assignFilenames sets Filename on every record: the pool file name when
// archives are copied, otherwise the path relative to the output directory.
func assignFilenames(config *models.RepositoryConfig, packages []models.Package) error {
	seen := make(map[string]string)

	for i := range packages {
		pkg := &packages[i]

		if !config.CopyPackages {
			rel, err := filepath.Rel(absPath(config.OutputDir), absPath(pkg.Source))
			if err != nil {
				return models.WithPackage(err, pkg.Source, models.ErrFileOp)
			}
			pkg.Filename = filepath.ToSlash(rel)
			continue
		}

		name := filepath.Base(pkg.Source)
		if other, dup := seen[name]; dup && !utils.SamePath(other, pkg.Source) {
			return &models.RepoGenError{
				Type:    models.ErrFileOp,
				Package: pkg.Source,
				Err:     fmt.Errorf("pool file name %s already used by %s", name, other),
			}
		}
		seen[name] = pkg.Source
		pkg.Filename = name
	}

	return nil
}

func copyToPool(outputDir string, packages []models.Package) error {
	for _, pkg := range packages {
		dstPath := filepath.Join(outputDir, pkg.Filename)
		copyNeeded, err := utils.ShouldCopyPackage(pkg.Source, dstPath, pkg.SHA256Sum)
		if err != nil {
			return models.WithPackage(err, pkg.Source, models.ErrFileOp)
		}
		if !copyNeeded {
			continue
		}

		logrus.Debugf("Copying %s to %s", pkg.Source, dstPath)
		if err := utils.CopyFile(pkg.Source, dstPath); err != nil {
			return models.WithPackage(fmt.Errorf("failed to copy: %w", err), pkg.Source, models.ErrFileOp)
		}
	}
	return nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func writeIndex(outputDir string, index *PackageIndex) error {
	packagesData := index.Render()

	packagesPath := filepath.Join(outputDir, PackagesFile)
	if err := utils.WriteFile(packagesPath, packagesData, 0644); err != nil {
		return &models.RepoGenError{Type: models.ErrFileOp, Err: fmt.Errorf("failed to write Packages: %w", err)}
	}

	packagesGz, err := utils.GzipCompress(packagesData)
	if err != nil {
		return &models.RepoGenError{Type: models.ErrMetadataGen, Err: fmt.Errorf("failed to compress Packages: %w", err)}
	}

	packagesGzPath := filepath.Join(outputDir, PackagesGzFile)
	if err := utils.WriteFile(packagesGzPath, packagesGz, 0644); err != nil {
		return &models.RepoGenError{Type: models.ErrFileOp, Err: fmt.Errorf("failed to write Packages.gz: %w", err)}
	}

	logrus.Infof("Generated Packages files (%d packages, %s)", index.Len(), humanize.Bytes(uint64(len(packagesData))))
	return nil
}

// writeRelease digests the index files as written and renders Release
func (g *Generator) writeRelease(config *models.RepositoryConfig) ([]byte, error) {
	logrus.Info("Generating Release file...")

	infos, err := CalculateReleaseFileInfos(config.OutputDir, []string{PackagesFile, PackagesGzFile})
	if err != nil {
		return nil, err
	}

	release := NewRelease(HeaderFromConfig(config), g.now())
	for _, info := range infos {
		if err := release.Add(info); err != nil {
			return nil, err
		}
	}

	releaseData := release.Render()
	releasePath := filepath.Join(config.OutputDir, ReleaseFile)
	if err := utils.WriteFile(releasePath, releaseData, 0644); err != nil {
		return nil, &models.RepoGenError{Type: models.ErrFileOp, Err: fmt.Errorf("failed to write Release: %w", err)}
	}

	return releaseData, nil
}

// writeSignatures signs Release and writes the signature set. Nothing is
// written until every signature exists, and a failure leaves no signature
// files behind.
func writeSignatures(config *models.RepositoryConfig, s signer.Signer, releaseData []byte) error {
	outputs, err := signRelease(config, s, releaseData)
	if err != nil {
		removeStaleSignatures(config.OutputDir)
		return err
	}

	for _, out := range outputs {
		if err := utils.WriteFile(filepath.Join(config.OutputDir, out.name), out.data, 0644); err != nil {
			removeStaleSignatures(config.OutputDir)
			return &models.RepoGenError{Type: models.ErrFileOp, Err: fmt.Errorf("failed to write %s: %w", out.name, err)}
		}
	}

	logrus.Info("Release file signed successfully")
	return nil
}

type signedOutput struct {
	name string
	data []byte
}

func signRelease(config *models.RepositoryConfig, s signer.Signer, releaseData []byte) ([]signedOutput, error) {
	// InRelease (cleartext signed)
	inRelease, err := s.SignCleartext(releaseData)
	if err != nil {
		return nil, models.WithPackage(err, ReleaseFile, models.ErrSigning)
	}

	// Release.gpg (detached signature)
	releaseGpg, err := s.SignDetached(releaseData)
	if err != nil {
		return nil, models.WithPackage(err, ReleaseFile, models.ErrSigning)
	}

	outputs := []signedOutput{
		{name: InReleaseFile, data: inRelease},
		{name: ReleaseGPGFile, data: releaseGpg},
	}

	if name := config.Signing.PublicKeyName; name != "" {
		pub, err := s.GetPublicKey()
		if err != nil {
			return nil, &models.RepoGenError{Type: models.ErrSigning, Err: fmt.Errorf("failed to export public key: %w", err)}
		}
		outputs = append(outputs, signedOutput{name: name, data: pub})
	}

	return outputs, nil
}

// removeStaleSignatures drops signatures left over from an earlier signed
// build, which would no longer match Release.
func removeStaleSignatures(outputDir string) {
	for _, name := range []string{InReleaseFile, ReleaseGPGFile} {
		path := filepath.Join(outputDir, name)
		if err := os.Remove(path); err == nil {
			logrus.Warnf("Removed stale %s", path)
		} else if !os.IsNotExist(err) {
			logrus.Warnf("Failed to remove stale %s: %v", path, err)
		}
	}
}

// ValidatePackages checks if packages are complete Debian index records
func (g *Generator) ValidatePackages(packages []models.Package) error {
	for i := range packages {
		if err := packages[i].Validate(); err != nil {
			return models.WithPackage(err, packages[i].Source, models.ErrPackageParse)
		}
	}
	return nil
}
