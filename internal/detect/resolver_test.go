package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Boulangerie", "boulangerie"},
		{"accents folded", "Café Central", "cafe-central"},
		{"apostrophe stripped", "L'Épicerie du Coin", "lepicerie-du-coin"},
		{"separator runs collapsed", "Chez  Marcel - Fils", "chez-marcel-fils"},
		{"surrounding space trimmed", "  Au Bon Pain  ", "au-bon-pain"},
		{"punctuation stripped", "Restaurant \"Le Midi\"!", "restaurant-le-midi"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestCandidateDomains_Order(t *testing.T) {
	got := CandidateDomains("Café Central")
	assert.Equal(t, []string{
		"www.cafe-central.fr",
		"www.cafe-central.com",
		"cafe-central.fr",
		"cafe-central.com",
	}, got)
}

func TestCandidateDomains_Deterministic(t *testing.T) {
	assert.Equal(t, CandidateDomains("Chez Marcel"), CandidateDomains("Chez Marcel"))
}

func TestCandidateDomains_EmptyName(t *testing.T) {
	assert.Nil(t, CandidateDomains(""))
	assert.Nil(t, CandidateDomains("!!!"))
}

func TestResolver_DeclaredWebsiteWins(t *testing.T) {
	r := NewResolver(NewProber(time.Second, 0))

	url, guessed := r.Resolve(context.Background(), "Café Central", "cafe-central.example")
	assert.False(t, guessed)
	assert.Equal(t, "http://cafe-central.example", url)
}

func TestResolver_DeclaredSchemeKept(t *testing.T) {
	r := NewResolver(NewProber(time.Second, 0))

	url, guessed := r.Resolve(context.Background(), "Modern Startup", "https://modern-startup.io")
	assert.False(t, guessed)
	assert.Equal(t, "https://modern-startup.io", url)
}

func TestResolver_NoCandidatesForEmptyName(t *testing.T) {
	r := NewResolver(NewProber(time.Second, 0))

	url, guessed := r.Resolve(context.Background(), "???", "")
	assert.True(t, guessed)
	assert.Empty(t, url)
}
