package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFiles(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildManifest(t *testing.T) {
	data := t.TempDir()
	writeFiles(t, data,
		"tiles/all/1_00_0_0.png",
		"tiles/md5/1_00_0_0.png",
		"props/rare/20_00_0_0.png",
		"publishers/0.json",
		"publishers/3.json",
		"publishers/1.json",
		"plots/4.png",
		"plots/5r.png",
		"plots/9r_0.png",
		"plots/9r_1.png",
	)

	m, err := buildManifest(data)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]string{
		"sets":       {"all", "md5", "rare"},
		"publishers": {"0", "1", "3"},
		"plots":      {"4", "5r", "9r_0", "9r_1"},
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("manifest = %v, want %v", m, want)
	}
}

func TestBuildManifestEmptyDirs(t *testing.T) {
	data := t.TempDir()
	m, err := buildManifest(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(m["sets"]) != 0 || len(m["publishers"]) != 0 || len(m["plots"]) != 0 {
		t.Errorf("manifest = %v, want empty entries", m)
	}
}

func TestBuildManifestMissingDir(t *testing.T) {
	if _, err := buildManifest(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
