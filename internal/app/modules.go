package app

import (
	"github.com/vk/tunegrid/internal/registry"
	"github.com/vk/tunegrid/modules/layers"
	"github.com/vk/tunegrid/modules/synthetic"
)

// coreModules is the definitive list of all modules that are compiled into
// the tunegrid binary.
var coreModules = []registry.Module{
	&synthetic.Module{},
	&layers.Module{},
}
