package config

// Values injected at build time via ldflags. EmbeddedCatalogKey serves as
// the default and can be overridden by environment variables or config file.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/tvtracker/tvtracker/internal/config.EmbeddedCatalogKey=xxx' -X 'github.com/tvtracker/tvtracker/internal/config.Version=1.0.0'"
var (
	EmbeddedCatalogKey string
	Version            = "dev"
)
