package prefabs

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

//go:embed scenes/*.yaml
var ScenesFS embed.FS

// Load returns a scene file, preferring an on-disk copy under prefabs/ so
// edits are picked up without a rebuild.
func Load(name string) ([]byte, error) {
	clean := cleanPath(name, "scenes")
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScenesFS.ReadFile(clean)
}

func LoadScript(name string) ([]byte, error) {
	clean := cleanPath(name, "scripts")
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// cleanPath maps "chain.yaml", "scenes/chain.yaml" and
// "prefabs/scenes/chain.yaml" to "scenes/chain.yaml".
func cleanPath(path, dir string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, dir+"/")
	return dir + "/" + s
}

func diskPath(clean string) string {
	return filepath.Join("prefabs", filepath.FromSlash(clean))
}
