//go:build tools
// +build tools

// verifymanifest cross-checks the embedded feature manifest against the
// template tree: every source the manifest references must exist under
// features/, and every file under features/ must be referenced. Run it in CI
// before cutting a release so a renamed payload cannot ship half-wired.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

type manifestPayload struct {
	Features map[string]struct {
		Providers map[string]struct {
			Frameworks map[string]struct {
				Languages map[string]struct {
					Files []struct {
						Path   string `json:"path"`
						Source string `json:"source"`
						Action string `json:"action"`
					} `json:"files"`
				} `json:"languages"`
			} `json:"frameworks"`
		} `json:"providers"`
	} `json:"features"`
}

func main() {
	templatesDir := flag.String("templates", "internal/templates", "templates directory holding manifest.json and features/")
	flag.Parse()

	root, err := filepath.Abs(*templatesDir)
	if err != nil {
		fatalf("resolve templates dir %q: %v", *templatesDir, err)
	}

	data, err := os.ReadFile(filepath.Join(root, "manifest.json"))
	if err != nil {
		fatalf("read manifest: %v", err)
	}
	var payload manifestPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		fatalf("parse manifest: %v", err)
	}

	referenced := map[string]bool{}
	for featureID, feature := range payload.Features {
		for providerID, provider := range feature.Providers {
			for frameworkID, framework := range provider.Frameworks {
				for languageID, language := range framework.Languages {
					for _, file := range language.Files {
						if file.Action == "install-dependency" {
							continue
						}
						source := file.Source
						if source == "" {
							source = file.Path
						}
						referenced[path.Join("features", featureID, providerID, frameworkID, languageID, source)] = true
					}
				}
			}
		}
	}

	present := map[string]bool{}
	featuresRoot := filepath.Join(root, "features")
	err = filepath.WalkDir(featuresRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		present[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", featuresRoot, err)
	}

	var problems []string
	for source := range referenced {
		if !present[source] {
			problems = append(problems, fmt.Sprintf("manifest references missing template %s", source))
		}
	}
	for file := range present {
		if !referenced[file] {
			problems = append(problems, fmt.Sprintf("template %s is not referenced by the manifest", file))
		}
	}
	if len(problems) > 0 {
		sort.Strings(problems)
		fmt.Fprintln(os.Stderr, strings.Join(problems, "\n"))
		os.Exit(1)
	}
	fmt.Printf("manifest and template tree agree (%d templates)\n", len(present))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
