package main

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ==== Modelo de datos ====

// VoteValue é o voto rexistrado dunha persoa nunha lei. Conxunto aberto:
// calquera etiqueta descoñecida consérvase tal cal.
type VoteValue string

const (
	Favor      VoteValue = "Favor"
	Contra     VoteValue = "Contra"
	Abstencion VoteValue = "Abstencion"
	Ausente    VoteValue = "Ausente"
	SinVoto    VoteValue = "Sin voto"
)

// NoData só se usa para amosar celas baleiras, nunca se conta no resumo.
const NoData VoteValue = "Sin dato"

// orde fixa do resumo
var statusOrder = []VoteValue{Favor, Contra, Abstencion, Ausente, SinVoto}

// PersonRecord é unha fila: o nome identifica a persoa dentro do dataset.
type PersonRecord struct {
	Name  string               `json:"nombre"`
	Votes map[string]VoteValue `json:"votos"`
}

// Vote devolve o voto declarado para a lei ou NoData.
func (p PersonRecord) Vote(bill string) VoteValue {
	if v, ok := p.Votes[bill]; ok {
		return v
	}
	return NoData
}

type SummaryEntry struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ==== Colación en español ====

// Os Collator non son seguros para uso concorrente, créase un por chamada.
func nameCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.Loose)
}

func strictCollator() *collate.Collator {
	return collate.New(language.Spanish)
}

func numericCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.Numeric)
}

// sortByName ordena por nome ignorando maiúsculas e acentos ("Álvarez" xunto a "Alvarez").
func sortByName(records []PersonRecord) {
	loose, strict := nameCollator(), strictCollator()
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Name, records[j].Name
		if c := loose.CompareString(a, b); c != 0 {
			return c < 0
		}
		if c := strict.CompareString(a, b); c != 0 {
			return c < 0
		}
		return a < b
	})
}

// ==== Derivacións ====

// DeriveColumns devolve a unión das leis votadas, ordenada con comparación numérica
// ("Ley 2" antes que "Ley 10").
func DeriveColumns(records []PersonRecord) []string {
	if len(records) == 0 {
		return []string{}
	}
	seen := map[string]struct{}{}
	for _, r := range records {
		for bill := range r.Votes {
			seen[bill] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for bill := range seen {
		cols = append(cols, bill)
	}
	c := numericCollator()
	sort.Slice(cols, func(i, j int) bool {
		if r := c.CompareString(cols[i], cols[j]); r != 0 {
			return r < 0
		}
		return cols[i] < cols[j]
	})
	return cols
}

// FilterRecords filtra por subcadea no nome, sen distinguir maiúsculas.
// Cunha busca baleira devolve o mesmo slice.
func FilterRecords(records []PersonRecord, query string) []PersonRecord {
	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return records
	}
	out := []PersonRecord{}
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Name), term) {
			out = append(out, r)
		}
	}
	return out
}

// Summarize conta os votos declarados e devolve só os estados canónicos, na orde fixa.
func Summarize(records []PersonRecord) []SummaryEntry {
	counters := map[string]int{}
	for _, r := range records {
		for _, v := range r.Votes {
			counters[string(v)]++
		}
	}
	out := []SummaryEntry{}
	for _, status := range statusOrder {
		if n := counters[string(status)]; n > 0 {
			out = append(out, SummaryEntry{Status: string(status), Count: n})
		}
	}
	return out
}

// ==== Insignias ====

type Intent string

const (
	IntentFavor      Intent = "favor"
	IntentContra     Intent = "contra"
	IntentAbstencion Intent = "abstencion"
	IntentAusente    Intent = "ausente"
	IntentSinVoto    Intent = "sinVoto"
	IntentOtro       Intent = "otro"
)

var intentMap = map[string]Intent{
	"favor":      IntentFavor,
	"contra":     IntentContra,
	"abstencion": IntentAbstencion,
	"ausente":    IntentAusente,
	"sin voto":   IntentSinVoto,
	"sin dato":   IntentOtro,
}

// IntentOf decide o estilo da insignia dun voto.
func IntentOf(v VoteValue) Intent {
	if it, ok := intentMap[strings.ToLower(string(v))]; ok {
		return it
	}
	return IntentOtro
}
