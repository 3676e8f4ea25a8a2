// main.go
// Build/run:
//
//	go run . web --addr 127.0.0.1:8080 --data-dir ./public   # UI web
//	go run . tui --base-url https://example.org/              # UI TUI (terminal)
//	go run . export --dataset mef --query garcía --format xlsx
//	go run . search mef_votos_1700000000.sqlite alvarez
//
// Notas:
// - Só lectura: os datasets JSON non se modifican nunca.
// - Cada dataset resólvese como URL, ruta sobre --base-url ou ficheiro en --data-dir.
// - Exportación: CSV, XLSX (Excel) e SQLite da vista filtrada.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var (
	cfg       Config
	exportFmt string
	exportQ   string
	exportOut string
	flagAddr  string
	flagBase  string
	flagData  string
	flagFile  string
	flagDs    string
	flagDebug bool
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "votos",
	Short: "Explora votaciones do Congreso por congresista e lei",
	Long: `votos carga un dataset JSON de votacións ({"Nome": {"Ley 1": "Favor"}}),
permite filtrar congresistas polo nome e amosa a matriz de votos e o resumo
por estado (Favor, Contra, Abstencion, Ausente, Sin voto).`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

//nolint:gochecknoglobals // Cobra boilerplate
var webCmd = &cobra.Command{
	Use:   "web",
	Short: "UI web",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, loader, err := prepare()
		if err != nil {
			return err
		}
		srv, err := newServer(loader, cat, cfg.Dataset, cfg.DataDir, cfg.Debug)
		if err != nil {
			return err
		}
		return srv.routes(cfg.Addr)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "UI TUI (terminal)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, loader, err := prepare()
		if err != nil {
			return err
		}
		if _, ok := cat.Lookup(cfg.Dataset); !ok {
			return errors.Errorf("dataset descoñecido: %s", cfg.Dataset)
		}
		// o log iría por riba da pantalla
		log.SetOutput(logSink())
		p := tea.NewProgram(initialTUI(loader, cat, cfg.Dataset), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Exporta a vista filtrada a CSV, XLSX ou SQLite",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, loader, err := prepare()
		if err != nil {
			return err
		}
		return runExport(cmd.Context(), loader, cat, cfg.Dataset, exportQ, exportFmt, exportOut)
	},
}

//nolint:gochecknoglobals // Cobra boilerplate
var searchCmd = &cobra.Command{
	Use:   "search [ficheiro.sqlite] [busca]",
	Short: "Busca congresistas nunha exportación SQLite (sen acentos)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openSQLiteRO(args[0])
		if err != nil {
			return err
		}
		defer db.Close()
		names, err := searchSQLite(db, args[1])
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagDs, "dataset", "", "dataset inicial (VOTOS_DATASET)")
	pf.StringVar(&flagFile, "datasets", "", "ficheiro TOML co catálogo de datasets (VOTOS_DATASETS)")
	pf.StringVar(&flagBase, "base-url", "", "URL base para as orixes relativas (VOTOS_BASE_URL)")
	pf.StringVar(&flagData, "data-dir", "", "directorio local cos JSON (VOTOS_DATA_DIR)")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging (VOTOS_DEBUG)")

	webCmd.Flags().StringVar(&flagAddr, "addr", "", "enderezo para o modo web (VOTOS_ADDR)")

	exportCmd.Flags().StringVar(&exportFmt, "format", "csv", "csv|xlsx|sqlite")
	exportCmd.Flags().StringVarP(&exportQ, "query", "q", "", "filtro por nome")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "ficheiro de saída (por defecto <dataset>_votos_<unix>.<formato>)")

	rootCmd.AddCommand(webCmd, tuiCmd, exportCmd, searchCmd)
}

// setup le o ambiente e aplica por riba os flags indicados.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("dataset") {
		cfg.Dataset = flagDs
	}
	if flags.Changed("datasets") {
		cfg.DatasetsFile = flagFile
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = flagBase
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = flagData
	}
	if flags.Changed("debug") {
		cfg.Debug = flagDebug
	}
	if flags.Changed("addr") {
		cfg.Addr = flagAddr
	}
	return nil
}

func prepare() (Catalogue, *Loader, error) {
	cat, err := loadCatalogue(cfg.DatasetsFile)
	if err != nil {
		return cat, nil, err
	}
	loader := NewLoader(Fetcher{BaseURL: cfg.BaseURL, DataDir: cfg.DataDir})
	return cat, loader, nil
}

// runExport carga o dataset de forma síncrona e garda a vista filtrada.
func runExport(ctx context.Context, loader *Loader, cat Catalogue, name, q, format, out string) error {
	ds, ok := cat.Lookup(name)
	if !ok {
		return errors.Errorf("dataset descoñecido: %s", name)
	}
	gen, fctx := loader.Begin(ctx, ds)
	records, err := loader.Fetch(fctx, ds)
	loader.Finish(gen, records, err)

	view, ok := Resolve(loader.State(), q).(ReadyView)
	if !ok {
		return errors.Wrap(err, userMessage(err))
	}
	if out == "" {
		out = exportFileName(view, format, time.Now())
	}
	switch format {
	case "csv":
		err = saveCSV(out, view)
	case "xlsx":
		err = saveXLSX(out, view)
	case "sqlite":
		err = writeSQLite(out, view)
	default:
		return errors.Errorf("formato descoñecido: %s", format)
	}
	if err != nil {
		return err
	}
	log.Printf("Exportadas %d filas a %s", len(view.Records), out)
	return nil
}

// logSink: no modo TUI o log vai a un ficheiro se VOTOS_DEBUG, se non descártase.
func logSink() *os.File {
	if cfg.Debug {
		if f, err := tea.LogToFile(filepath.Join(os.TempDir(), "votos-tui.log"), "votos"); err == nil {
			return f
		}
	}
	f, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr
	}
	return f
}

// ==== main ====
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
