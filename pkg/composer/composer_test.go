package composer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/prospector-cli/internal/model"
)

func TestSubject(t *testing.T) {
	assert.Equal(t,
		"Optimisation de votre présence web - Vieille Boutique",
		Subject("Vieille Boutique"),
	)
}

func TestGenerate_Simulation(t *testing.T) {
	c := New("", WithSimulation())

	msg := c.Generate(context.Background(), Prospect{
		Name:          "Vieille Boutique",
		City:          "Paris",
		Sector:        "retail",
		PresenceState: model.PresenceArchaic,
	})
	assert.Contains(t, msg, "Vieille Boutique")
	assert.Contains(t, msg, "[SIMULATION]")
}

func TestUserPrompt_NoSite(t *testing.T) {
	prompt := userPrompt(Prospect{
		Name:          "Le Panier Gourmand",
		City:          "Paris",
		Sector:        "bakery",
		PresenceState: model.PresenceNoSite,
	})
	assert.Contains(t, prompt, "Le Panier Gourmand")
	assert.Contains(t, prompt, "has no website")
	assert.NotContains(t, prompt, "outdated")
}

func TestUserPrompt_ArchaicWithReasons(t *testing.T) {
	prompt := userPrompt(Prospect{
		Name:          "Vieille Boutique",
		City:          "Paris",
		Sector:        "retail",
		PresenceState: model.PresenceArchaic,
		Reasons: []string{
			"Missing viewport meta tag (not responsive)",
			"Copyright year is old: 2009",
		},
	})
	assert.Contains(t, prompt, "has an outdated website")
	assert.Contains(t, prompt, "Missing viewport meta tag (not responsive), Copyright year is old: 2009")
	assert.True(t, strings.HasSuffix(prompt, "Write the email content (Subject + Body)."))
}
