package main

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

//go:embed webstatic/*
var webFS embed.FS

//go:embed templates/*
var tplFS embed.FS

type server struct {
	loader  *Loader
	cat     Catalogue
	def     string
	dataDir string
	debug   bool
	tpl     *template.Template

	mu sync.Mutex // serializa o cambio de dataset entre peticións
}

func newServer(loader *Loader, cat Catalogue, def, dataDir string, debug bool) (*server, error) {
	tpl, err := template.New("").
		Funcs(template.FuncMap{
			"vote":    func(r PersonRecord, ley string) VoteValue { return r.Vote(ley) },
			"intent":  IntentOf,
			"count":   countLabel,
			"noMatch": noMatchMessage,
			"trim":    strings.TrimSpace,
		}).
		ParseFS(tplFS, "templates/*.gohtml")
	if err != nil {
		return nil, err
	}
	if _, ok := cat.Lookup(def); !ok {
		return nil, errors.Errorf("dataset descoñecido: %s", def)
	}
	return &server{loader: loader, cat: cat, def: def, dataDir: dataDir, debug: debug, tpl: tpl}, nil
}

func (s *server) handler() (http.Handler, error) {
	assets, err := fs.Sub(webFS, "webstatic")
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(assets))))
	if s.dataDir != "" {
		mux.Handle("/data/", http.StripPrefix("/data/", http.FileServer(http.Dir(s.dataDir))))
	}
	mux.HandleFunc("/", withLogging(s.debug, s.handleIndex))
	mux.HandleFunc("/api/votos", withLogging(s.debug, s.handleAPIVotos))
	mux.HandleFunc("/export/csv", withLogging(s.debug, s.handleExport("csv")))
	mux.HandleFunc("/export/xlsx", withLogging(s.debug, s.handleExport("xlsx")))
	mux.HandleFunc("/export/sqlite", withLogging(s.debug, s.handleExport("sqlite")))
	return mux, nil
}

func (s *server) routes(addr string) error {
	h, err := s.handler()
	if err != nil {
		return err
	}
	log.Printf("Web UI en http://%s", addr)
	if s.dataDir != "" {
		log.Printf("Datos en %s", http.Dir(s.dataDir))
	}
	return http.ListenAndServe(addr, h)
}

// middleware para empregar de debug nos handlers
func withLogging(debug bool, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if debug {
			start := time.Now()
			log.Printf("→ %s %s %s", r.Method, r.URL.Path, r.URL.RawQuery)
			defer func() { log.Printf("← %s %s (%s)", r.Method, r.URL.Path, time.Since(start)) }()
		}
		h(w, r)
	}
}

// activate aplica o ?dataset= da petición. Só lanza unha carga se cambia o dataset
// (ou se se pide ?reload=1); devolve o canal da carga lanzada ou nil.
func (s *server) activate(r *http.Request) (<-chan struct{}, error) {
	name := strings.TrimSpace(r.URL.Query().Get("dataset"))
	reload := r.URL.Query().Get("reload") == "1"

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.loader.State()
	if name == "" {
		name = st.Dataset.Name
		if name == "" {
			name = s.def
		}
	}
	ds, ok := s.cat.Lookup(name)
	if !ok {
		return nil, errors.Errorf("dataset descoñecido: %s", name)
	}
	if st.Generation > 0 && st.Dataset.Name == ds.Name && !reload {
		return nil, nil
	}
	// a carga sobrevive á petición
	_, done := s.loader.Select(context.Background(), ds)
	return done, nil
}

type pageData struct {
	Datasets []Dataset
	Active   Dataset
	Query    string
	Loading  bool
	Error    string
	Ready    *ReadyView
	Count    int
}

func (s *server) pageData(view View, q string) pageData {
	data := pageData{Datasets: s.cat.Datasets, Query: q}
	switch v := view.(type) {
	case LoadingView:
		data.Active, data.Loading = v.Dataset, true
	case ErrorView:
		data.Active, data.Error = v.Dataset, v.Message
	case ReadyView:
		data.Active, data.Ready, data.Count = v.Dataset, &v, len(v.Records)
	}
	return data
}

func (s *server) current(r *http.Request) (View, string, error) {
	if _, err := s.activate(r); err != nil {
		return nil, "", err
	}
	q := r.URL.Query().Get("q")
	return Resolve(s.loader.State(), q), q, nil
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	view, q, err := s.current(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.ExecuteTemplate(w, "index.gohtml", s.pageData(view, q)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type apiRecord struct {
	Nombre string               `json:"nombre"`
	Votos  map[string]VoteValue `json:"votos"`
}

// ==== API JSON ====
func (s *server) handleAPIVotos(w http.ResponseWriter, r *http.Request) {
	view, q, err := s.current(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := map[string]any{
		"datasets": s.cat.Names(),
		"query":    q,
		"error":    nil,
		"leyes":    []string{},
		"records":  []apiRecord{},
		"summary":  []SummaryEntry{},
		"total":    0,
	}
	switch v := view.(type) {
	case LoadingView:
		out["dataset"], out["state"] = v.Dataset.Name, "loading"
	case ErrorView:
		out["dataset"], out["state"], out["error"] = v.Dataset.Name, "error", v.Message
	case ReadyView:
		recs := make([]apiRecord, len(v.Records))
		for i, rec := range v.Records {
			recs[i] = apiRecord{Nombre: rec.Name, Votos: rec.Votes}
		}
		out["dataset"], out["state"] = v.Dataset.Name, "ready"
		out["leyes"], out["records"], out["summary"], out["total"] = v.Columns, recs, v.Summary, v.Total
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("api votos: %v", err)
	}
}

// ==== Exportación ====
func (s *server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, _, err := s.current(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		v, ok := view.(ReadyView)
		if !ok {
			http.Error(w, "dataset non dispoñible", http.StatusConflict)
			return
		}
		fn := exportFileName(v, format, time.Now())
		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			w.Header().Set("Content-Disposition", "attachment; filename="+fn)
			if err := writeCSV(w, v); err != nil {
				log.Printf("export csv: %v", err)
			}
		case "xlsx":
			f, err := buildXLSX(v)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			defer f.Close()
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			w.Header().Set("Content-Disposition", "attachment; filename="+fn)
			if err := f.Write(w); err != nil {
				log.Printf("export xlsx: %v", err)
			}
		case "sqlite":
			dir, err := os.MkdirTemp("", "votos-export")
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			defer os.RemoveAll(dir)
			path := filepath.Join(dir, fn)
			if err := writeSQLite(path, v); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/vnd.sqlite3")
			w.Header().Set("Content-Disposition", "attachment; filename="+fn)
			http.ServeFile(w, r, path)
		default:
			http.NotFound(w, r)
		}
	}
}
