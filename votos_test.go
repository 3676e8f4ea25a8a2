package main

import (
	"reflect"
	"strings"
	"testing"
)

func rec(name string, votes map[string]VoteValue) PersonRecord {
	return PersonRecord{Name: name, Votes: votes}
}

func names(records []PersonRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

func TestSortByNameSpanish(t *testing.T) {
	t.Parallel()

	records := []PersonRecord{
		rec("Zapata", nil), rec("Ortiz", nil), rec("Ñandú", nil), rec("Nuñez", nil),
		rec("Beltrán", nil), rec("Álvarez", nil), rec("Alvarez", nil), rec("adams", nil),
	}
	sortByName(records)

	want := []string{"adams", "Alvarez", "Álvarez", "Beltrán", "Nuñez", "Ñandú", "Ortiz", "Zapata"}
	if got := names(records); !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestSortByNameDeterministic(t *testing.T) {
	t.Parallel()

	a := []PersonRecord{rec("álvarez", nil), rec("Alvarez", nil), rec("ALVAREZ", nil)}
	b := []PersonRecord{rec("ALVAREZ", nil), rec("álvarez", nil), rec("Alvarez", nil)}
	sortByName(a)
	sortByName(b)
	if !reflect.DeepEqual(names(a), names(b)) {
		t.Fatalf("order depends on input: %v vs %v", names(a), names(b))
	}
}

func TestDeriveColumns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []PersonRecord
		want    []string
	}{
		{name: "empty", records: nil, want: []string{}},
		{
			name: "numeric order",
			records: []PersonRecord{
				rec("A", map[string]VoteValue{"Ley 10": Favor, "Ley 2": Contra}),
				rec("B", map[string]VoteValue{"Ley 1": Favor, "Ley 2": Favor}),
			},
			want: []string{"Ley 1", "Ley 2", "Ley 10"},
		},
		{
			name: "union without duplicates",
			records: []PersonRecord{
				rec("A", map[string]VoteValue{"L1": Favor}),
				rec("B", map[string]VoteValue{"L1": Contra, "L2": Favor}),
				rec("C", map[string]VoteValue{}),
			},
			want: []string{"L1", "L2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DeriveColumns(tt.records)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("DeriveColumns = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterRecordsEmptyQueryReturnsInput(t *testing.T) {
	t.Parallel()

	records := []PersonRecord{rec("B", nil), rec("A", nil)}
	for _, q := range []string{"", "   ", "\t"} {
		got := FilterRecords(records, q)
		if len(got) != len(records) || &got[0] != &records[0] {
			t.Fatalf("FilterRecords(%q) did not return the input slice", q)
		}
	}
}

func TestFilterRecordsSubstring(t *testing.T) {
	t.Parallel()

	records := []PersonRecord{
		rec("Ana Beltrán", nil), rec("Bruno Díaz", nil), rec("Carla Abad", nil), rec("Dario", nil),
	}
	tests := []struct {
		q    string
		want []string
	}{
		{q: "b", want: []string{"Ana Beltrán", "Bruno Díaz", "Carla Abad"}},
		{q: "  ABAD ", want: []string{"Carla Abad"}},
		{q: "díaz", want: []string{"Bruno Díaz"}},
		{q: "diaz", want: []string{}},
		{q: "zzz_nomatch", want: []string{}},
	}
	for _, tt := range tests {
		got := FilterRecords(records, tt.q)
		if !reflect.DeepEqual(names(got), tt.want) {
			t.Fatalf("FilterRecords(%q) = %v, want %v", tt.q, names(got), tt.want)
		}
		// todo o que queda fóra non contén a busca
		term := strings.ToLower(strings.TrimSpace(tt.q))
		kept := map[string]bool{}
		for _, r := range got {
			kept[r.Name] = true
		}
		for _, r := range records {
			if strings.Contains(strings.ToLower(r.Name), term) != kept[r.Name] {
				t.Fatalf("FilterRecords(%q): membership of %q is wrong", tt.q, r.Name)
			}
		}
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	records := []PersonRecord{
		rec("A", map[string]VoteValue{"L1": Favor, "L2": "Licencia", "L3": SinVoto}),
		rec("B", map[string]VoteValue{"L1": Contra, "L2": Favor, "L3": Ausente}),
		rec("C", map[string]VoteValue{"L1": Abstencion}),
	}
	got := Summarize(records)
	want := []SummaryEntry{
		{Status: "Favor", Count: 2},
		{Status: "Contra", Count: 1},
		{Status: "Abstencion", Count: 1},
		{Status: "Ausente", Count: 1},
		{Status: "Sin voto", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Summarize = %v, want %v", got, want)
	}

	total := 0
	for _, e := range got {
		total += e.Count
	}
	if total != 6 {
		t.Fatalf("total = %d, want 6 (canonical votes only)", total)
	}
}

func TestSummarizeIgnoresMissingEntries(t *testing.T) {
	t.Parallel()

	// B non ten L2: amósase "Sin dato" pero non se conta
	records := []PersonRecord{
		rec("A", map[string]VoteValue{"L1": Favor, "L2": Favor}),
		rec("B", map[string]VoteValue{"L1": Favor}),
	}
	got := Summarize(records)
	want := []SummaryEntry{{Status: "Favor", Count: 3}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Summarize = %v, want %v", got, want)
	}
	if v := records[1].Vote("L2"); v != NoData {
		t.Fatalf("Vote = %q, want %q", v, NoData)
	}
	if got := Summarize(nil); len(got) != 0 {
		t.Fatalf("Summarize(nil) = %v, want empty", got)
	}
}

func TestScenarioFilterAndSummary(t *testing.T) {
	t.Parallel()

	records, err := parseDataset([]byte(`{"A": {"L1":"Favor"}, "B": {"L1":"Contra","L2":"Favor"}}`))
	if err != nil {
		t.Fatalf("parseDataset: %v", err)
	}
	sortByName(records)
	st := LoadState{Records: records, Columns: DeriveColumns(records)}

	all, ok := Resolve(st, "").(ReadyView)
	if !ok {
		t.Fatal("Resolve did not return ReadyView")
	}
	if !reflect.DeepEqual(all.Columns, []string{"L1", "L2"}) {
		t.Fatalf("columns = %v", all.Columns)
	}
	if want := []SummaryEntry{{"Favor", 2}, {"Contra", 1}}; !reflect.DeepEqual(all.Summary, want) {
		t.Fatalf("summary = %v, want %v", all.Summary, want)
	}

	b := Resolve(st, "b").(ReadyView)
	if !reflect.DeepEqual(names(b.Records), []string{"B"}) {
		t.Fatalf("filtered = %v, want [B]", names(b.Records))
	}
	if want := []SummaryEntry{{"Favor", 1}, {"Contra", 1}}; !reflect.DeepEqual(b.Summary, want) {
		t.Fatalf("summary = %v, want %v", b.Summary, want)
	}

	none := Resolve(st, "zzz_nomatch").(ReadyView)
	if !none.Empty() || len(none.Summary) != 0 {
		t.Fatalf("expected empty view, got %d records", len(none.Records))
	}
}

func TestResolveStates(t *testing.T) {
	t.Parallel()

	if _, ok := Resolve(LoadState{Loading: true}, "").(LoadingView); !ok {
		t.Fatal("loading state did not resolve to LoadingView")
	}
	ev, ok := Resolve(LoadState{Err: &LoadError{Kind: NetworkError, Err: errTest}}, "").(ErrorView)
	if !ok || ev.Message == "" {
		t.Fatalf("error state = %#v", ev)
	}
}

func TestIntentOf(t *testing.T) {
	t.Parallel()

	tests := map[VoteValue]Intent{
		"Favor":      IntentFavor,
		"CONTRA":     IntentContra,
		"abstencion": IntentAbstencion,
		"Ausente":    IntentAusente,
		"Sin voto":   IntentSinVoto,
		NoData:       IntentOtro,
		"Licencia":   IntentOtro,
	}
	for v, want := range tests {
		if got := IntentOf(v); got != want {
			t.Fatalf("IntentOf(%q) = %q, want %q", v, got, want)
		}
	}
}
