package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// ==== Erros de carga ====

type LoadErrorKind int

const (
	NetworkError LoadErrorKind = iota + 1
	ParseError
)

func (k LoadErrorKind) String() string {
	switch k {
	case NetworkError:
		return "network"
	case ParseError:
		return "parse"
	default:
		return "unknown"
	}
}

// LoadError agrupa os fallos de rede/HTTP e os de JSON mal formado.
type LoadError struct {
	Kind LoadErrorKind
	Err  error
}

func (e *LoadError) Error() string { return e.Kind.String() + ": " + e.Err.Error() }
func (e *LoadError) Cause() error  { return e.Err }
func (e *LoadError) Unwrap() error { return e.Err }

// UserMessage é o texto que ve a persoa usuaria.
func (e *LoadError) UserMessage() string {
	if e.Kind == ParseError {
		return "El archivo de votos no tiene un formato válido."
	}
	return "No se pudo cargar el archivo de votos."
}

// userMessage converte calquera erro de carga nunha cadea para amosar.
func userMessage(err error) string {
	if err == nil {
		return ""
	}
	var le *LoadError
	if errors.As(err, &le) {
		return le.UserMessage()
	}
	return "Error desconocido"
}

// ==== Lectura de datasets ====

// Fetcher resolve a orixe dun dataset: URL absoluta, ruta sobre BaseURL ou ficheiro en DataDir.
type Fetcher struct {
	Client  *http.Client
	BaseURL string
	DataDir string
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Fetch descarga, parsea e ordena un dataset.
func (f Fetcher) Fetch(ctx context.Context, ds Dataset) (records []PersonRecord, err error) {
	var data []byte
	switch {
	case isHTTPURL(ds.Source):
		data, err = f.fetchURL(ctx, ds.Source)
	case f.BaseURL != "":
		var u string
		u, err = url.JoinPath(f.BaseURL, ds.Source)
		if err != nil {
			err = &LoadError{Kind: NetworkError, Err: errors.Wrapf(err, "invalid source %q", ds.Source)}
			return records, err
		}
		data, err = f.fetchURL(ctx, u)
	default:
		data, err = f.fetchFile(ds.Source)
	}
	if err != nil {
		return records, err
	}
	records, err = parseDataset(data)
	if err != nil {
		err = &LoadError{Kind: ParseError, Err: err}
		return records, err
	}
	sortByName(records)
	return records, err
}

func (f Fetcher) fetchURL(ctx context.Context, u string) (data []byte, err error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		err = &LoadError{Kind: NetworkError, Err: errors.Wrap(err, "failed to create HTTP request")}
		return data, err
	}
	req.Header.Set("Accept", "application/json")

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = &LoadError{Kind: NetworkError, Err: errors.Wrapf(err, "GET %s", u)}
		return data, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &LoadError{Kind: NetworkError, Err: errors.Errorf("GET %s: status %d", u, resp.StatusCode)}
		return data, err
	}
	data, err = io.ReadAll(resp.Body)
	if err != nil {
		err = &LoadError{Kind: NetworkError, Err: errors.Wrap(err, "failed to read response body")}
	}
	return data, err
}

func (f Fetcher) fetchFile(source string) (data []byte, err error) {
	path := source
	if !filepath.IsAbs(path) {
		path = filepath.Join(f.DataDir, filepath.FromSlash(source))
	}
	data, err = os.ReadFile(path)
	if err != nil {
		err = &LoadError{Kind: NetworkError, Err: errors.Wrapf(err, "failed to read file: %s", path)}
	}
	return data, err
}

// parseDataset espera {"Nome": {"Ley 1": "Favor", ...}, ...}.
func parseDataset(data []byte) ([]PersonRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode dataset")
	}
	if dec.More() {
		return nil, errors.New("unexpected data after dataset object")
	}
	if raw == nil {
		return nil, errors.New("dataset is null")
	}
	records := make([]PersonRecord, 0, len(raw))
	for name, votes := range raw {
		if votes == nil {
			return nil, errors.Errorf("votes for %q are not an object", name)
		}
		rec := PersonRecord{Name: name, Votes: make(map[string]VoteValue, len(votes))}
		for bill, v := range votes {
			rec.Votes[bill] = VoteValue(voteString(v))
		}
		records = append(records, rec)
	}
	return records, nil
}

// voteString pasa a texto os votos que non veñen como cadea.
func voteString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case nil:
		return "null"
	case bool:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// ==== Estado de carga ====

// LoadState é unha instantánea inmutable; substitúese enteira en cada cambio.
type LoadState struct {
	Dataset    Dataset
	Generation uint64
	Records    []PersonRecord
	Columns    []string
	Loading    bool
	Err        error
}

// Loader garante que gaña o último dataset pedido: cada carga leva unha xeración
// e os resultados doutra xeración descártanse.
type Loader struct {
	fetcher Fetcher

	mu     sync.Mutex
	state  LoadState
	cancel context.CancelFunc
}

func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f, state: LoadState{Loading: true, Records: []PersonRecord{}, Columns: []string{}}}
}

// State devolve a instantánea actual.
func (l *Loader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Begin inicia unha carga nova, cancela a anterior e devolve a súa xeración.
func (l *Loader) Begin(parent context.Context, ds Dataset) (uint64, context.Context) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	gen := l.state.Generation + 1
	l.state = LoadState{
		Dataset:    ds,
		Generation: gen,
		Records:    []PersonRecord{},
		Columns:    []string{},
		Loading:    true,
	}
	return gen, ctx
}

// Finish aplica o resultado só se gen segue a ser a xeración actual.
func (l *Loader) Finish(gen uint64, records []PersonRecord, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.state.Generation {
		return false
	}
	next := LoadState{
		Dataset:    l.state.Dataset,
		Generation: gen,
		Records:    []PersonRecord{},
		Columns:    []string{},
	}
	if err != nil {
		log.Printf("erro cargando %s: %v", next.Dataset.Name, err)
		next.Err = err
	} else {
		if records != nil {
			next.Records = records
		}
		next.Columns = DeriveColumns(next.Records)
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.state = next
	return true
}

// Fetch usa o Fetcher do loader sen tocar o estado.
func (l *Loader) Fetch(ctx context.Context, ds Dataset) ([]PersonRecord, error) {
	return l.fetcher.Fetch(ctx, ds)
}

// Select carga en segundo plano; done péchase cando remata (aplicada ou descartada).
func (l *Loader) Select(parent context.Context, ds Dataset) (gen uint64, done <-chan struct{}) {
	gen, ctx := l.Begin(parent, ds)
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		records, err := l.fetcher.Fetch(ctx, ds)
		l.Finish(gen, records, err)
	}()
	return gen, ch
}
