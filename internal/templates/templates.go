// Package templates ships the embedded feature payloads: the default feature
// manifest, the default detection signatures, and the per-feature source files
// that integration plans copy into target projects.
package templates

import (
	"embed"
	"io/fs"
)

//go:embed manifest.json signatures.toml all:features
var content embed.FS

// Read returns the embedded template at path.
func Read(path string) ([]byte, error) {
	return content.ReadFile(path)
}

// Walk walks the embedded template tree rooted at root.
func Walk(root string, fn fs.WalkDirFunc) error {
	return fs.WalkDir(content, root, fn)
}

// FS exposes the embedded tree as a read-only filesystem for the executor.
func FS() fs.FS {
	return content
}
