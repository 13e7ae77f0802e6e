package detect

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	disallowedRe = regexp.MustCompile(`[^a-zA-Z0-9_\s-]`)
	separatorRe  = regexp.MustCompile(`[-\s]+`)
)

// Resolver determines a usable website URL for a business: the declared
// URL when present, otherwise the first reachable guess derived from the
// business name.
type Resolver struct {
	prober *Prober
}

// NewResolver creates a Resolver probing guesses through the given Prober.
func NewResolver(prober *Prober) *Resolver {
	return &Resolver{prober: prober}
}

// Slug derives a domain slug from a business name: accents folded to
// ASCII, characters outside [word, space, hyphen] stripped, lowercased,
// separator runs collapsed to a single hyphen.
func Slug(name string) string {
	folded, _, err := transform.String(transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	), name)
	if err != nil {
		folded = name
	}

	clean := disallowedRe.ReplaceAllString(folded, "")
	clean = strings.ToLower(strings.TrimSpace(clean))
	return separatorRe.ReplaceAllString(clean, "-")
}

// CandidateDomains returns the guess candidates for a business name in
// fixed priority order. The order is deterministic for equal input. An
// empty slug yields no candidates.
func CandidateDomains(name string) []string {
	slug := Slug(name)
	if slug == "" || slug == "-" {
		return nil
	}
	return []string{
		"www." + slug + ".fr",
		"www." + slug + ".com",
		slug + ".fr",
		slug + ".com",
	}
}

// Resolve returns a usable URL for the business, and whether it was
// guessed from the name rather than declared. A declared website is
// returned normalized without probing; probing it is the caller's job.
// With no declared site, each candidate domain is probed in order and the
// first HTTP-200 final URL wins. An empty URL means nothing was found.
func (r *Resolver) Resolve(ctx context.Context, name, declaredWebsite string) (url string, guessed bool) {
	if declaredWebsite != "" {
		return NormalizeURL(declaredWebsite), false
	}

	for _, domain := range CandidateDomains(name) {
		result := r.prober.Probe(ctx, domain)
		if result.Reachable {
			zap.L().Debug("resolver: guessed domain reachable",
				zap.String("name", name),
				zap.String("domain", domain),
				zap.String("final_url", result.FinalURL),
			)
			return result.FinalURL, true
		}
	}
	return "", true
}
