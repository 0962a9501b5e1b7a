// Package resolver answers whether a Node package is installed where a
// project would pick it up, using the same lookup order as Node's require().
package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Resolver reports where a package resolves from a directory.
type Resolver interface {
	Resolve(fromDir, name string) (string, bool)
}

// Node resolves packages through node_modules directories and NODE_PATH.
type Node struct {
	// NodePath overrides the NODE_PATH environment variable when non-nil.
	NodePath []string
}

// Resolve walks from fromDir towards the filesystem root looking in each
// node_modules directory, then in NODE_PATH. It returns the package's entry
// file. Failure to resolve is reported through the bool, never as an error.
func (n Node) Resolve(fromDir, name string) (string, bool) {
	start, err := filepath.Abs(fromDir)
	if err != nil {
		start = fromDir
	}

	for _, dir := range n.searchPaths(start) {
		if entry, ok := packageEntry(filepath.Join(dir, filepath.FromSlash(name))); ok {
			log.WithFields(log.Fields{"package": name, "entry": entry}).Debug("resolved local package")
			return entry, true
		}
	}
	log.WithFields(log.Fields{"package": name, "from": start}).Debug("package not installed locally")
	return "", false
}

func (n Node) searchPaths(start string) []string {
	var paths []string
	dir := start
	for {
		if filepath.Base(dir) != "node_modules" {
			paths = append(paths, filepath.Join(dir, "node_modules"))
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	nodePath := n.NodePath
	if nodePath == nil {
		nodePath = filepath.SplitList(os.Getenv("NODE_PATH"))
	}
	for _, p := range nodePath {
		if strings.TrimSpace(p) != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// packageEntry finds the file require() would load for the package at dir.
func packageEntry(dir string) (string, bool) {
	if data, err := os.ReadFile(filepath.Join(dir, "package.json")); err == nil {
		var pkg struct {
			Main string `json:"main"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Main != "" {
			if entry, ok := fileOrIndex(filepath.Join(dir, filepath.FromSlash(pkg.Main))); ok {
				return entry, true
			}
		}
	}
	return fileOrIndex(filepath.Join(dir, "index"))
}

// fileOrIndex applies Node's file and directory resolution to base.
func fileOrIndex(base string) (string, bool) {
	candidates := []string{
		base,
		base + ".js",
		base + ".json",
		base + ".node",
		filepath.Join(base, "index.js"),
		filepath.Join(base, "index.json"),
		filepath.Join(base, "index.node"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
