// Package manifest reads and writes kit manifest files.
//
// Kits describe themselves either with the flat stub this tool generates
// (kit.yaml with id/name/version) or with a MANIFEST.yml carrying a kit_info
// block. Both shapes reduce to the same Metadata record so nothing outside
// this package depends on the file format.
package manifest

import (
	"os"
	"path/filepath"
	"strings"

	goslug "github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

// StubName is the manifest filename this tool generates for kits that ship
// without one.
const StubName = "kit.yaml"

// fileNames are checked when locating a kit manifest, in preference order.
var fileNames = []string{StubName, "kit.yml", "MANIFEST.yml", "MANIFEST.yaml"}

// Metadata identifies a kit.
type Metadata struct {
	ID          string
	Name        string
	Version     string
	Description string
}

// Synthesize returns the fallback metadata recorded when a kit ships no
// usable manifest.
func Synthesize(kitName string) Metadata {
	return Metadata{ID: kitName, Name: kitName, Version: "0.0.0"}
}

// FileNames returns the recognized manifest filenames in preference order.
func FileNames() []string {
	names := make([]string, len(fileNames))
	copy(names, fileNames)
	return names
}

// PreferFile returns the first manifest file present in dir.
func PreferFile(dir string) (string, bool) {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// scalar decodes any YAML scalar as its literal text, so unquoted versions
// like 1.0 don't fail the string fields they land in.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	*s = scalar(strings.TrimSpace(node.Value))
	return nil
}

type kitInfo struct {
	ID          scalar `yaml:"id"`
	Name        scalar `yaml:"name"`
	Version     scalar `yaml:"version"`
	Description scalar `yaml:"description"`
}

type document struct {
	ID          scalar  `yaml:"id"`
	Name        scalar  `yaml:"name"`
	Version     scalar  `yaml:"version"`
	Description scalar  `yaml:"description"`
	KitInfo     kitInfo `yaml:"kit_info"`
}

// Parse extracts Metadata from raw manifest bytes.
//
// ok is false when the document is not valid YAML or carries no identity
// (neither id nor name at either level); callers then synthesize a default.
func Parse(data []byte) (Metadata, bool) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, false
	}

	meta := Metadata{
		ID:          string(doc.ID),
		Name:        string(doc.Name),
		Version:     string(doc.Version),
		Description: string(doc.Description),
	}
	if meta.ID == "" {
		meta.ID = string(doc.KitInfo.ID)
	}
	if meta.Name == "" {
		meta.Name = string(doc.KitInfo.Name)
	}
	if meta.Version == "" {
		meta.Version = string(doc.KitInfo.Version)
	}
	if meta.Description == "" {
		meta.Description = string(doc.KitInfo.Description)
	}

	if meta.ID == "" && meta.Name != "" {
		meta.ID = goslug.Make(meta.Name)
	}
	if meta.ID == "" {
		return Metadata{}, false
	}
	if meta.Name == "" {
		meta.Name = meta.ID
	}
	return meta, true
}

// Extract parses the manifest file at path.
func Extract(path string) (Metadata, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, false
	}
	return Parse(data)
}

// ReadDir locates and parses the manifest inside a kit directory.
func ReadDir(dir string) (Metadata, bool) {
	path, ok := PreferFile(dir)
	if !ok {
		return Metadata{}, false
	}
	return Extract(path)
}

// stub is the minimal kit.yaml document, field order fixed.
type stub struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// EnsureStub writes a minimal kit.yaml into kitDir unless one already
// exists. The stub keys the kit by its install name; name and version come
// from meta with the usual defaults.
func EnsureStub(kitDir, kitName string, meta Metadata) error {
	path := filepath.Join(kitDir, StubName)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	doc := stub{ID: kitName, Name: meta.Name, Version: meta.Version}
	if doc.Name == "" {
		doc.Name = kitName
	}
	if doc.Version == "" {
		doc.Version = "0.0.0"
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
