package dataset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Manifest enumerates the artifacts the pipeline produced: a JSON object
// mapping each artifact directory to its sorted, extension-less file names.
// It is fetched once at startup; everything else keys off it.
type Manifest map[string][]string

// ParseManifest decodes a manifest document.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// Datasets returns the available tile dataset names, in declared order.
func (m Manifest) Datasets() []string {
	return m["sets"]
}

// PublisherKeys returns the sorted shard keys of the publisher data. Each
// key is the first prefix stored in the shard "{key}.json".
func (m Manifest) PublisherKeys() []string {
	keys := append([]string(nil), m["publishers"]...)
	sort.Strings(keys)
	return keys
}

// PlotFile is one pre-rendered plot raster. Odd depth groups are stored
// rotated a quarter turn (filename suffix "r") for better compression; the
// deepest groups are sharded into vertically-stacked strips
// ("{name}_{strip}").
type PlotFile struct {
	Group   int
	Rotated bool
	Strips  []string // file names, in stack order; one entry when unsharded
}

// PlotFiles interprets the manifest entry for a plot directory, grouping
// strip shards under their depth group.
func (m Manifest) PlotFiles(dir string) []PlotFile {
	byGroup := make(map[int]*PlotFile)
	for _, name := range m[dir] {
		base := name
		if i := strings.IndexByte(name, '_'); i >= 0 {
			base = name[:i]
		}
		rotated := strings.HasSuffix(base, "r")
		group := 0
		if _, err := fmt.Sscanf(strings.TrimSuffix(base, "r"), "%d", &group); err != nil {
			continue
		}
		pf := byGroup[group]
		if pf == nil {
			pf = &PlotFile{Group: group, Rotated: rotated}
			byGroup[group] = pf
		}
		pf.Strips = append(pf.Strips, name)
	}

	groups := make([]int, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Ints(groups)

	out := make([]PlotFile, 0, len(groups))
	for _, g := range groups {
		pf := byGroup[g]
		sort.Strings(pf.Strips)
		out = append(out, *pf)
	}
	return out
}
