package state

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 50

// Slug folds a display name into a lowercase ascii identifier:
// diacritics removed, đ mapped to d, whitespace runs to "_", everything
// outside [a-z0-9_] dropped, truncated to 50 bytes.
func Slug(name string) string {
	s := strings.ToLower(name)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		switch {
		case r == 'đ':
			b.WriteByte('d')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	return out
}

// IDGenerator produces a fresh identifier for a named entity.
type IDGenerator func(name, prefix string) string

// StableID returns prefix-slug-<base36 millis><random>. Two calls with the
// same name yield different ids.
func StableID(name, prefix string) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte('-')
	if slug := Slug(name); slug != "" {
		b.WriteString(slug)
		b.WriteByte('-')
	}
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 36))
	b.WriteString(randomSuffix(4))
	return b.String()
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomSuffix(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = base36[rand.IntN(len(base36))]
	}
	return string(buf)
}

// SequentialIDs returns a deterministic generator for tests and replays.
func SequentialIDs() IDGenerator {
	n := 0
	return func(name, prefix string) string {
		n++
		id := prefix + "-"
		if slug := Slug(name); slug != "" {
			id += slug + "-"
		}
		return id + strconv.Itoa(n)
	}
}
