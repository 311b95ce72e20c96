package app

import (
	"github.com/vk/autoregister/internal/config"
	"github.com/vk/autoregister/internal/hcl"
	"github.com/vk/autoregister/internal/yamlconfig"
)

// DefaultLoader reads .hcl, .yaml and .yml rule files.
func DefaultLoader() *config.MultiLoader {
	yamlLoader := yamlconfig.NewLoader()
	return config.NewMultiLoader(map[string]config.Loader{
		".hcl":  hcl.NewLoader(),
		".yaml": yamlLoader,
		".yml":  yamlLoader,
	})
}
