package tables

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/JonMunkholm/csvmap/internal/core"
	"github.com/JonMunkholm/csvmap/internal/schema"
	"github.com/JonMunkholm/csvmap/internal/typeconv"
)

//go:embed specs/*.yaml
var specFiles embed.FS

// registerSpecs registers every embedded spec. A broken spec is a build
// defect, so it panics.
func registerSpecs() {
	names, err := fs.Glob(specFiles, "specs/*.yaml")
	if err != nil {
		panic(fmt.Sprintf("tables: %v", err))
	}

	reg := typeconv.Default()
	for _, name := range names {
		data, err := specFiles.ReadFile(name)
		if err != nil {
			panic(fmt.Sprintf("tables: %s: %v", name, err))
		}
		spec, err := schema.ParseYAML(data)
		if err != nil {
			panic(fmt.Sprintf("tables: %s: %v", name, err))
		}
		def, err := core.FromSpec(spec, reg)
		if err != nil {
			panic(fmt.Sprintf("tables: %s: %v", name, err))
		}
		core.Register(def)
	}
}
