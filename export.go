package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// ==== Exportación da vista filtrada ====

const (
	votosSheet   = "Votos"
	resumenSheet = "Resumen"
	nameHeader   = "Congresista"
)

func exportHeader(cols []string) []string {
	head := make([]string, 0, len(cols)+1)
	head = append(head, nameHeader)
	return append(head, cols...)
}

// exportRow enche as leis sen voto con NoData, igual que a táboa.
func exportRow(r PersonRecord, cols []string) []string {
	row := make([]string, 0, len(cols)+1)
	row = append(row, r.Name)
	for _, c := range cols {
		row = append(row, string(r.Vote(c)))
	}
	return row
}

// exportFileName: <dataset>_votos[_<busca>]_<unix>.<ext>
func exportFileName(v ReadyView, ext string, now time.Time) string {
	base := safeFile(v.Dataset.Name) + "_votos"
	if q := safeFile(v.Query); v.Query != "" && q != "export" {
		base += "_" + q
	}
	return fmt.Sprintf("%s_%d.%s", base, now.Unix(), ext)
}

func writeCSV(w io.Writer, v ReadyView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader(v.Columns)); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range v.Records {
		if err := cw.Write(exportRow(r, v.Columns)); err != nil {
			return errors.Wrapf(err, "write csv row %q", r.Name)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// buildXLSX crea o libro coa grella de votos e unha folla de resumo.
func buildXLSX(v ReadyView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", votosSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "rename sheet")
	}

	head := toAny(exportHeader(v.Columns))
	if err := f.SetSheetRow(votosSheet, "A1", &head); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "write header")
	}
	for i, r := range v.Records {
		row := toAny(exportRow(r, v.Columns))
		if err := f.SetSheetRow(votosSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "write row %q", r.Name)
		}
	}

	if _, err := f.NewSheet(resumenSheet); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "create summary sheet")
	}
	sumHead := []any{"Estado", "Total"}
	if err := f.SetSheetRow(resumenSheet, "A1", &sumHead); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "write summary header")
	}
	for i, e := range v.Summary {
		row := []any{e.Status, e.Count}
		if err := f.SetSheetRow(resumenSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			f.Close()
			return nil, errors.Wrap(err, "write summary")
		}
	}
	return f, nil
}

func writeXLSX(w io.Writer, v ReadyView) error {
	f, err := buildXLSX(v)
	if err != nil {
		return err
	}
	defer f.Close()
	return errors.Wrap(f.Write(w), "write xlsx")
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
