package generator

import (
	"context"

	"github.com/ralt/aptrepo/internal/models"
)

// Generator interface for repository generators
type Generator interface {
	// Generate builds a repository in config.OutputDir from the given archives,
	// processed in the order given
	Generate(ctx context.Context, config *models.RepositoryConfig, archives []string) error

	// ValidatePackages checks that finalized records are complete
	ValidatePackages(packages []models.Package) error
}
