package main

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ==== utilidades ====

func safeFile(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.Map(func(r rune) rune {
		if r == '_' || r == '-' || r == '.' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return r
		}
		return -1
	}, s)
	if s == "" {
		s = "export"
	}
	return s
}

// truncate corta por runas, non por bytes, para non romper acentos.
func truncate(s string, n int) string {
	if n <= 1 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// countLabel: "1 congresista", "12 congresistas"
func countLabel(n int) string {
	if n == 1 {
		return "1 congresista"
	}
	return fmt.Sprintf("%d congresistas", n)
}

// noMatchMessage inclúe a busca literal.
func noMatchMessage(q string) string {
	return fmt.Sprintf("No encontramos congresistas que coincidan con “%s”. Intenta con otro nombre.", q)
}

const loadingMessage = "Cargando datos de votación..."
