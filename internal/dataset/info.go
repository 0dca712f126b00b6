package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// InfoPath returns the sidecar path for a raster: the extension swapped
// for .info.yaml.
func InfoPath(rasterPath string) string {
	ext := filepath.Ext(rasterPath)
	return strings.TrimSuffix(rasterPath, ext) + ".info.yaml"
}

// WriteInfo persists the load diagnostics next to the raster.
func WriteInfo(path string, info *LoadInfo) error {
	data, err := yaml.Marshal(info)
	if err != nil {
		return eris.Wrap(err, "dataset: marshal load info")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "dataset: write %s", path)
	}
	return nil
}
