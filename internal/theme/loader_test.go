package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/postcrab/postcrab/internal/errdef"
)

func TestLoadCatalogIncludesBuiltinsAndUserThemes(t *testing.T) {
	dir := t.TempDir()

	tomlContent := []byte(`
base = "light"

[metadata]
name = "Oceanic"
author = "QA"

[colors]
accent = "#335577"
`)
	if err := os.WriteFile(filepath.Join(dir, "oceanic.toml"), tomlContent, 0o644); err != nil {
		t.Fatalf("write toml theme: %v", err)
	}

	jsonContent := []byte(`{
  "metadata": {
    "name": "Oceanic",
    "author": "QA"
  },
  "colors": {
    "error": "#ff9900"
  },
  "methods": {
    "post": "#123123"
  }
}`)
	if err := os.WriteFile(filepath.Join(dir, "sunset.json"), jsonContent, 0o644); err != nil {
		t.Fatalf("write json theme: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}

	keys := catalog.Keys()
	if len(keys) != 4 || keys[0] != "dark" || keys[1] != "light" {
		t.Fatalf("expected built-ins first, got %v", keys)
	}

	oceanic, ok := catalog.Get("oceanic")
	if !ok {
		t.Fatalf("expected oceanic theme to load")
	}
	if oceanic.Metadata.Author != "QA" {
		t.Fatalf("expected author QA, got %q", oceanic.Metadata.Author)
	}
	if oceanic.Theme.Palette.Accent != "#335577" {
		t.Fatalf("expected accent override, got %q", oceanic.Theme.Palette.Accent)
	}
	if oceanic.Theme.Palette.Text != LightPalette().Text {
		t.Fatalf("expected light base palette, got text %q", oceanic.Theme.Palette.Text)
	}

	duplicate, ok := catalog.Get("oceanic-1")
	if !ok {
		t.Fatalf("expected duplicate slug to be uniquified")
	}
	if duplicate.Theme.Palette.Error != "#ff9900" {
		t.Fatalf("expected JSON theme colour override, got %q", duplicate.Theme.Palette.Error)
	}
	if duplicate.Theme.MethodColors.POST != "#123123" {
		t.Fatalf("expected method colour override, got %q", duplicate.Theme.MethodColors.POST)
	}
	if duplicate.Source != SourceUser || duplicate.Format != FormatJSON {
		t.Fatalf("unexpected source/format %s/%s", duplicate.Source, duplicate.Format)
	}
}

func TestLoadCatalogHandlesMissingDirectory(t *testing.T) {
	catalog, err := LoadCatalog([]string{"/nonexistent/path"})
	if err != nil {
		t.Fatalf("LoadCatalog should not error on missing directories: %v", err)
	}
	if _, ok := catalog.Get("dark"); !ok {
		t.Fatalf("expected dark theme even when directories are missing")
	}
	if len(catalog.All()) != 2 {
		t.Fatalf("expected only built-in themes, got %d", len(catalog.All()))
	}
}

func TestLoadCatalogReportsBrokenTheme(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.toml"), []byte(`base = "neon"`), 0o644); err != nil {
		t.Fatalf("write theme: %v", err)
	}
	catalog, err := LoadCatalog([]string{dir})
	if err == nil {
		t.Fatalf("expected error for unknown base")
	}
	if errdef.CodeOf(err) != errdef.CodeConfig {
		t.Fatalf("expected config code, got %q", errdef.CodeOf(err))
	}
	if len(catalog.All()) != 2 {
		t.Fatalf("expected built-ins to survive a broken user theme")
	}
}

func TestCatalogResolveFallsBack(t *testing.T) {
	catalog, _ := LoadCatalog(nil)
	if got := catalog.Resolve(" Light "); got.Palette != LightPalette() {
		t.Fatalf("expected light theme, got %+v", got.Palette)
	}
	if got := catalog.Resolve("missing"); got.Palette != DarkPalette() {
		t.Fatalf("expected fallback to dark theme, got %+v", got.Palette)
	}
	var empty Catalog
	if got := empty.Resolve("light"); got.Palette != LightPalette() {
		t.Fatalf("expected empty catalog to resolve built-in light theme")
	}
	if got := empty.Resolve("missing"); got.Palette != DarkPalette() {
		t.Fatalf("expected empty catalog to fall back to default theme")
	}
}

func TestLoadCatalogReadsYAMLThemes(t *testing.T) {
	dir := t.TempDir()
	content := []byte("base: dark\ncolors:\n  accent: \"#abcdef\"\nmethods:\n  delete: \"#ff0000\"\n")
	if err := os.WriteFile(filepath.Join(dir, "night-owl.yml"), content, 0o644); err != nil {
		t.Fatalf("write yaml theme: %v", err)
	}

	catalog, err := LoadCatalog([]string{dir})
	if err != nil {
		t.Fatalf("LoadCatalog returned error: %v", err)
	}
	def, ok := catalog.Get("night-owl")
	if !ok {
		t.Fatalf("expected theme keyed by file name, got %v", catalog.Keys())
	}
	if def.DisplayName != "Night Owl" {
		t.Fatalf("expected display name from key, got %q", def.DisplayName)
	}
	if def.Format != FormatYAML {
		t.Fatalf("expected yaml format, got %s", def.Format)
	}
	if def.Theme.Palette.Accent != "#abcdef" || def.Theme.MethodColors.DELETE != "#ff0000" {
		t.Fatalf("expected overrides to apply, got %+v", def.Theme.Palette)
	}
}

func TestLoadCatalogRejectsUnknownYAMLFields(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "typo.yaml"), []byte("colours:\n  accent: red\n"), 0o644); err != nil {
		t.Fatalf("write yaml theme: %v", err)
	}
	if _, err := LoadCatalog([]string{dir}); err == nil {
		t.Fatalf("expected unknown field to be reported")
	}
}
