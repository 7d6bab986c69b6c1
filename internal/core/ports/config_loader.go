package ports

import "go.trai.ch/ward/internal/core/domain"

// ConfigLoader defines the interface for loading the vault configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load walks up from cwd to find ward.yaml, parses it, applies defaults
	// and validates. Returns domain.ErrConfigNotFound if no file is found.
	Load(cwd string) (*domain.Config, error)
}
