package main

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ==== Configuración ====

// Config lese do ambiente; os flags de cobra sobrescriben estes valores.
type Config struct {
	Addr         string `env:"VOTOS_ADDR" envDefault:"127.0.0.1:8080"`
	BaseURL      string `env:"VOTOS_BASE_URL"`
	DataDir      string `env:"VOTOS_DATA_DIR" envDefault:"public"`
	DatasetsFile string `env:"VOTOS_DATASETS"`
	Dataset      string `env:"VOTOS_DATASET" envDefault:"colchado"`
	Debug        bool   `env:"VOTOS_DEBUG"`
}

func loadConfig() (cfg Config, err error) {
	if err = env.Parse(&cfg); err != nil {
		err = errors.Wrap(err, "parse env")
		return cfg, err
	}
	return cfg, err
}

// ==== Catálogo de datasets ====

// Dataset é unha opción do selector; Source é URL, ruta relativa á base URL ou ficheiro local.
type Dataset struct {
	Name   string `toml:"name" json:"name"`
	Label  string `toml:"label" json:"label"`
	Source string `toml:"source" json:"source"`
}

type Catalogue struct {
	Datasets []Dataset `toml:"dataset"`
}

// datasets incorporados
func defaultCatalogue() Catalogue {
	return Catalogue{Datasets: []Dataset{
		{Name: "colchado", Label: "Colchado", Source: "votos_colchado.json"},
		{Name: "mef", Label: "MEF", Source: "votos_mef.json"},
	}}
}

// loadCatalogue le o TOML se hai ruta; se non, os incorporados.
func loadCatalogue(path string) (cat Catalogue, err error) {
	if path == "" {
		cat = defaultCatalogue()
		return cat, err
	}
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read datasets file: %s", path)
		return cat, err
	}
	cat, err = parseCatalogue(data)
	if err != nil {
		err = errors.Wrapf(err, "invalid datasets file: %s", path)
	}
	return cat, err
}

func parseCatalogue(data []byte) (cat Catalogue, err error) {
	if err = toml.Unmarshal(data, &cat); err != nil {
		err = errors.Wrap(err, "decode toml")
		return cat, err
	}
	if len(cat.Datasets) == 0 {
		err = errors.New("no datasets defined")
		return cat, err
	}
	caser := cases.Title(language.Spanish)
	seen := map[string]bool{}
	for i, d := range cat.Datasets {
		d.Name = strings.TrimSpace(d.Name)
		if d.Name == "" || d.Source == "" {
			err = errors.Errorf("dataset %d: name and source are required", i+1)
			return cat, err
		}
		if seen[d.Name] {
			err = errors.Errorf("dataset %q defined twice", d.Name)
			return cat, err
		}
		seen[d.Name] = true
		if d.Label == "" {
			d.Label = caser.String(d.Name)
		}
		cat.Datasets[i] = d
	}
	return cat, err
}

// Lookup busca un dataset polo nome.
func (c Catalogue) Lookup(name string) (Dataset, bool) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, true
		}
	}
	return Dataset{}, false
}

func (c Catalogue) Names() []string {
	out := make([]string, len(c.Datasets))
	for i, d := range c.Datasets {
		out[i] = d.Name
	}
	return out
}
