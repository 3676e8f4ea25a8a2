package main

import (
	"database/sql"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// ==== Exportación a SQLite ====

const sqliteDriver = "sqlite3_votos"

var registerDriver sync.Once

// asciiFold elimina diacríticos e pasa a minúsculas.
func asciiFold(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// Rexistra o driver con unaccent_lower(text) en cada conexión.
func ensureDriver() {
	registerDriver.Do(func() {
		sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
			ConnectHook: func(c *sqlite3.SQLiteConn) error {
				return c.RegisterFunc("unaccent_lower", asciiFold, true)
			},
		})
	})
}

func openSQLite(path string) (*sql.DB, error) {
	ensureDriver()
	db, err := sql.Open(sqliteDriver, path)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	return db, nil
}

// openSQLiteRO abre unha exportación existente en modo só lectura.
func openSQLiteRO(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrapf(err, "open sqlite %s", path)
	}
	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set query_only")
	}
	return db, nil
}

const schemaSQL = `
CREATE TABLE congresistas (
	nombre          TEXT PRIMARY KEY,
	nombre_busqueda TEXT NOT NULL
);
CREATE TABLE votos (
	nombre TEXT NOT NULL REFERENCES congresistas(nombre),
	ley    TEXT NOT NULL,
	voto   TEXT NOT NULL,
	PRIMARY KEY (nombre, ley)
);
CREATE TABLE resumen (
	estado TEXT PRIMARY KEY,
	total  INTEGER NOT NULL
);`

// writeSQLite garda a vista filtrada nun ficheiro novo. Só se gardan os votos
// declarados; as celas sen dato non existen na táboa votos.
func writeSQLite(path string, v ReadyView) (err error) {
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		return errors.Wrapf(rmErr, "remove %s", path)
	}
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err = db.Exec(schemaSQL); err != nil {
		return errors.Wrap(err, "create schema")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range v.Records {
		if _, err = tx.Exec(`INSERT INTO congresistas (nombre, nombre_busqueda) VALUES (?, unaccent_lower(?))`, r.Name, r.Name); err != nil {
			return errors.Wrapf(err, "insert %q", r.Name)
		}
		for _, ley := range v.Columns {
			voto, ok := r.Votes[ley]
			if !ok {
				continue
			}
			if _, err = tx.Exec(`INSERT INTO votos (nombre, ley, voto) VALUES (?, ?, ?)`, r.Name, ley, string(voto)); err != nil {
				return errors.Wrapf(err, "insert vote %q/%q", r.Name, ley)
			}
		}
	}
	for _, e := range v.Summary {
		if _, err = tx.Exec(`INSERT INTO resumen (estado, total) VALUES (?, ?)`, e.Status, e.Count); err != nil {
			return errors.Wrap(err, "insert summary")
		}
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "commit")
	}

	return checkSQLiteSummary(db, v.Summary)
}

// checkSQLiteSummary recalcula o resumo con GROUP BY e compara co exportado.
func checkSQLiteSummary(db *sql.DB, want []SummaryEntry) error {
	rows, err := db.Query(`SELECT voto, COUNT(*) FROM votos GROUP BY voto`)
	if err != nil {
		return errors.Wrap(err, "count votes")
	}
	defer rows.Close()
	got := map[string]int{}
	for rows.Next() {
		var k string
		var c int
		if err := rows.Scan(&k, &c); err != nil {
			return errors.Wrap(err, "scan counts")
		}
		got[k] = c
	}
	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "count votes")
	}
	for _, e := range want {
		if got[e.Status] != e.Count {
			return errors.Errorf("summary mismatch for %s: %d != %d", e.Status, got[e.Status], e.Count)
		}
	}
	return nil
}

// searchSQLite busca congresistas nun ficheiro exportado, sen acentos nin maiúsculas.
func searchSQLite(db *sql.DB, q string) ([]string, error) {
	like := "%" + asciiFold(strings.TrimSpace(q)) + "%"
	rows, err := db.Query(`SELECT nombre FROM congresistas WHERE nombre_busqueda LIKE ? ORDER BY nombre_busqueda`, like)
	if err != nil {
		return nil, errors.Wrap(err, "search")
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
