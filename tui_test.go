package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestTUI(t *testing.T) tuiModel {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "votos_a.json"), []byte(scenarioJSON), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return initialTUI(NewLoader(Fetcher{DataDir: dir}), testCatalogue(), "a")
}

// loadNow executa a carga pendente como faría o runtime de bubbletea.
func loadNow(t *testing.T, m tuiModel, ds Dataset) tuiModel {
	t.Helper()
	st := m.loader.State()
	records, err := m.loader.Fetch(context.Background(), ds)
	next, _ := m.Update(datasetLoadedMsg{gen: st.Generation, records: records, err: err})
	return next.(tuiModel)
}

func keys(m tuiModel, s string) tuiModel {
	for _, r := range s {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(tuiModel)
	}
	return m
}

func TestTUIInitialLoad(t *testing.T) {
	t.Parallel()

	m := newTestTUI(t)
	if _, ok := m.view.(LoadingView); !ok {
		t.Fatalf("view = %T, want LoadingView", m.view)
	}
	if m.Init() == nil {
		t.Fatal("Init returned no load command")
	}
	if !strings.Contains(m.View(), loadingMessage) {
		t.Fatal("loading message not shown")
	}

	ds, _ := m.cat.Lookup("a")
	m = loadNow(t, m, ds)
	v, ok := m.view.(ReadyView)
	if !ok {
		t.Fatalf("view = %T, want ReadyView", m.view)
	}
	if !reflect.DeepEqual(names(v.Records), []string{"A", "B"}) {
		t.Fatalf("records = %v", names(v.Records))
	}
	out := m.View()
	for _, want := range []string{"2 congresistas", "Favor 2", "Contra 1", "Sin dato"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
}

func TestTUIIgnoresStaleLoad(t *testing.T) {
	t.Parallel()

	m := newTestTUI(t)
	stale := m.loader.State().Generation

	ds, _ := m.cat.Lookup("b")
	m.selectDataset(ds)

	next, _ := m.Update(datasetLoadedMsg{gen: stale, records: []PersonRecord{rec("Vello", nil)}})
	m = next.(tuiModel)
	if _, ok := m.view.(LoadingView); !ok {
		t.Fatalf("stale message changed view to %T", m.view)
	}
	if st := m.loader.State(); st.Dataset.Name != "b" || !st.Loading {
		t.Fatalf("state = %+v", st)
	}

	next, _ = m.Update(datasetLoadedMsg{gen: m.loader.State().Generation, records: []PersonRecord{rec("Novo", nil)}})
	m = next.(tuiModel)
	v, ok := m.view.(ReadyView)
	if !ok || !reflect.DeepEqual(names(v.Records), []string{"Novo"}) {
		t.Fatalf("view = %#v", m.view)
	}
}

func TestTUISearch(t *testing.T) {
	t.Parallel()

	m := newTestTUI(t)
	ds, _ := m.cat.Lookup("a")
	m = loadNow(t, m, ds)

	m = keys(m, "/b")
	if m.focus != 1 || m.q != "b" {
		t.Fatalf("focus = %d, q = %q", m.focus, m.q)
	}
	v := m.view.(ReadyView)
	if !reflect.DeepEqual(names(v.Records), []string{"B"}) {
		t.Fatalf("records = %v", names(v.Records))
	}
	if want := []SummaryEntry{{"Favor", 1}, {"Contra", 1}}; !reflect.DeepEqual(v.Summary, want) {
		t.Fatalf("summary = %v, want %v", v.Summary, want)
	}

	// as maiúsculas escríbense na busca, non disparan atallos
	m = keys(m, "QZ")
	if m.q != "bQZ" {
		t.Fatalf("q = %q", m.q)
	}
	if !strings.Contains(m.View(), "No encontramos congresistas que coincidan con “bQZ”") {
		t.Fatal("no-match message not shown")
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(tuiModel)
	if m.focus != 0 {
		t.Fatal("esc did not leave the search box")
	}
}

func TestTUIErrorState(t *testing.T) {
	t.Parallel()

	m := newTestTUI(t)
	ds, _ := m.cat.Lookup("roto")
	m.selectDataset(ds)
	m = loadNow(t, m, ds)

	if _, ok := m.view.(ErrorView); !ok {
		t.Fatalf("view = %T, want ErrorView", m.view)
	}
	if !strings.Contains(m.View(), "No se pudo cargar el archivo de votos.") {
		t.Fatal("error message not shown")
	}
	if got := m.export("E"); got != "Non hai datos para exportar" {
		t.Fatalf("export = %q", got)
	}
}
