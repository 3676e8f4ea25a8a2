package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"VOTOS_ADDR", "VOTOS_DATASET", "VOTOS_DATA_DIR"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8080" || cfg.Dataset != "colchado" || cfg.DataDir != "public" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("VOTOS_ADDR", ":9090")
	t.Setenv("VOTOS_BASE_URL", "https://example.org/votos/")
	t.Setenv("VOTOS_DATASET", "mef")
	t.Setenv("VOTOS_DEBUG", "true")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.BaseURL != "https://example.org/votos/" || cfg.Dataset != "mef" || !cfg.Debug {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigInvalidBool(t *testing.T) {
	t.Setenv("VOTOS_DEBUG", "talvez")
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for invalid VOTOS_DEBUG")
	}
}

func TestDefaultCatalogue(t *testing.T) {
	t.Parallel()

	cat, err := loadCatalogue("")
	if err != nil {
		t.Fatalf("loadCatalogue: %v", err)
	}
	if got := cat.Names(); len(got) != 2 || got[0] != "colchado" || got[1] != "mef" {
		t.Fatalf("names = %v", got)
	}
	if _, ok := cat.Lookup("inexistente"); ok {
		t.Fatal("Lookup found unknown dataset")
	}
}

func TestLoadCatalogueFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "datasets.toml")
	data := `
[[dataset]]
name = "pleno"
source = "https://example.org/pleno.json"

[[dataset]]
name = "mef"
label = "Ministerio de Economía"
source = "votos_mef.json"
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := loadCatalogue(path)
	if err != nil {
		t.Fatalf("loadCatalogue: %v", err)
	}
	pleno, ok := cat.Lookup("pleno")
	if !ok || pleno.Label != "Pleno" || pleno.Source != "https://example.org/pleno.json" {
		t.Fatalf("pleno = %+v", pleno)
	}
	if mef, _ := cat.Lookup("mef"); mef.Label != "Ministerio de Economía" {
		t.Fatalf("mef label = %q", mef.Label)
	}
}

func TestParseCatalogueErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"empty":     ``,
		"no source": "[[dataset]]\nname = \"a\"\n",
		"duplicate": "[[dataset]]\nname = \"a\"\nsource = \"a.json\"\n[[dataset]]\nname = \"a\"\nsource = \"b.json\"\n",
		"bad toml":  "[[dataset]\n",
	}
	for name, data := range tests {
		if _, err := parseCatalogue([]byte(data)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadCatalogueMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := loadCatalogue(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
