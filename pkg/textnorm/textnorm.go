// Package textnorm normaliza texto libre (comentarios, motivos) antes de guardarlo en eventos y libros.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxCommentLength longitud máxima (en runas) de un comentario almacenado.
const MaxCommentLength = 500

var stripControl = runes.Remove(runes.Predicate(func(r rune) bool {
	return unicode.IsControl(r) && r != '\n' && r != '\t'
}))

// Comment recorta espacios, elimina caracteres de control, compone a NFC y trunca a MaxCommentLength.
func Comment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	out, _, err := transform.String(transform.Chain(norm.NFD, stripControl, norm.NFC), s)
	if err != nil {
		out = norm.NFC.String(s)
	}
	r := []rune(out)
	if len(r) > MaxCommentLength {
		r = r[:MaxCommentLength]
	}
	return string(r)
}
