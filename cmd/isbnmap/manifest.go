package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newManifestCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "manifest [dir]",
		Short: "Generate manifest.json from a dataset directory",
		Long: `Scans the dataset directory and writes the manifest the web app fetches
at startup: the available tile sets, the publisher shard keys, and the
plot rasters.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir := "data"
			if len(args) == 1 {
				dataDir = args[0]
			}
			m, err := buildManifest(dataDir)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(m, "", "  ")
			if err != nil {
				return err
			}
			data = append(data, '\n')

			if outPath == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if outPath == "" {
				outPath = filepath.Join(dataDir, "manifest.json")
			}
			if err := os.WriteFile(outPath, data, 0644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default <dir>/manifest.json, - for stdout)")

	return cmd
}

// buildManifest scans the dataset layout:
//
//	tiles/<set>/*.png      count tiles per dataset
//	props/<set>/*.png      proportion tiles per dataset
//	publishers/<key>.json  publisher name shards
//	plots/<name>.png       membership rasters
//
// The sets entry lists dataset names; the others list extension-less file
// names, sorted.
func buildManifest(dataDir string) (map[string][]string, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return nil, fmt.Errorf("scan %s: %w", dataDir, err)
	}

	m := map[string][]string{
		"sets": subdirNames(filepath.Join(dataDir, "tiles"), filepath.Join(dataDir, "props")),
	}
	for _, dir := range []string{"publishers", "plots"} {
		m[dir] = fileStems(filepath.Join(dataDir, dir))
	}
	return m, nil
}

// subdirNames returns the union of immediate subdirectory names, sorted.
func subdirNames(roots ...string) []string {
	seen := make(map[string]bool)
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
				seen[e.Name()] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// fileStems returns the extension-less names of the regular files in dir,
// sorted. A missing directory yields an empty list.
func fileStems(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}
	}
	stems := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		stems = append(stems, strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())))
	}
	sort.Strings(stems)
	return stems
}
