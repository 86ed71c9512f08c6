package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidTitle is returned when a title normalizes to an empty slug.
var ErrInvalidTitle = errors.New("title produces an empty slug")

// Slugify derives a lowercase, hyphen-delimited slug from s. Latin diacritics
// are folded ("Café" -> "cafe"); every other non-alphanumeric run becomes one hyphen.
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingHyphen := false
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteByte(c)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// NewSlug is Slugify that rejects titles with nothing to keep.
func NewSlug(title string) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", ErrInvalidTitle
	}
	return slug, nil
}
