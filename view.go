package main

// View é o que se debuxa: LoadingView, ErrorView ou ReadyView.
type View interface {
	isView()
}

type LoadingView struct {
	Dataset Dataset
}

type ErrorView struct {
	Dataset Dataset
	Message string
}

// ReadyView cun Records baleiro é o estado "sen coincidencias", non un erro.
type ReadyView struct {
	Dataset Dataset
	Query   string
	Records []PersonRecord
	Columns []string
	Summary []SummaryEntry
	Total   int
}

func (LoadingView) isView() {}
func (ErrorView) isView()   {}
func (ReadyView) isView()   {}

// Empty indica que o filtro non deixou ningunha fila.
func (v ReadyView) Empty() bool { return len(v.Records) == 0 }

// Resolve recalcula filtro e resumo sobre a instantánea actual.
func Resolve(st LoadState, query string) View {
	switch {
	case st.Loading:
		return LoadingView{Dataset: st.Dataset}
	case st.Err != nil:
		return ErrorView{Dataset: st.Dataset, Message: userMessage(st.Err)}
	}
	filtered := FilterRecords(st.Records, query)
	return ReadyView{
		Dataset: st.Dataset,
		Query:   query,
		Records: filtered,
		Columns: st.Columns,
		Summary: Summarize(filtered),
		Total:   len(st.Records),
	}
}
