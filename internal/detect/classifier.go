package detect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sells-group/prospector-cli/internal/model"
)

const (
	archaicThreshold = 3
	modernThreshold  = 0
	maxLayoutTables  = 5
	staleYearCutoff  = 2020
)

var yearRe = regexp.MustCompile(`20\d{2}`)

// modernFrameworkTokens flag contemporary front-end stacks anywhere in the
// raw markup text.
var modernFrameworkTokens = []string{"bootstrap", "tailwind", "react", "vue"}

// Classifier scores fetched markup for signs of an outdated design. Rules
// are independent and additive; each contributes a fixed weight to the
// archaism score and appends its reason when triggered. Rule order is the
// order of the collected reasons, which feed message personalization.
type Classifier struct{}

// NewClassifier creates a Classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify assigns a presence state to the markup: score >= 3 is ARCHAIC,
// <= 0 is MODERN, anything between is UNKNOWN. Empty input is a terminal
// case evaluated before any rule.
func (c *Classifier) Classify(html string) model.ClassificationResult {
	if strings.TrimSpace(html) == "" {
		return model.ClassificationResult{
			State:   model.PresenceUnknown,
			Reasons: []string{"No content to analyze"},
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		zap.L().Warn("classifier: parse failed", zap.Error(err))
		return model.ClassificationResult{
			State:   model.PresenceUnknown,
			Reasons: []string{"No content to analyze"},
		}
	}

	var reasons []string
	score := 0

	// Responsive viewport declaration.
	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		score += 3
		reasons = append(reasons, "Missing viewport meta tag (not responsive)")
	}

	// Stale copyright year in the footer region.
	if year, ok := latestFooterYear(doc); ok && year < staleYearCutoff {
		score += 2
		reasons = append(reasons, fmt.Sprintf("Copyright year is old: %d", year))
	}

	// Table-based layouts.
	if doc.Find("table").Length() > maxLayoutTables {
		score++
		reasons = append(reasons, "Possible table-based layout detected")
	}

	// Legacy plugin content.
	if doc.Find("object, embed").Length() > 0 {
		score += 5
		reasons = append(reasons, "Flash content detected")
	}

	// Frame-based layouts.
	if doc.Find("frameset, frame").Length() > 0 {
		score += 5
		reasons = append(reasons, "Frameset detected")
	}

	// Modern framework signature counts against archaism.
	lower := strings.ToLower(html)
	for _, token := range modernFrameworkTokens {
		if strings.Contains(lower, token) {
			score -= 5
			reasons = append(reasons, "Modern framework detected")
			break
		}
	}

	state := model.PresenceUnknown
	switch {
	case score >= archaicThreshold:
		state = model.PresenceArchaic
	case score <= modernThreshold:
		state = model.PresenceModern
	}

	return model.ClassificationResult{State: state, Reasons: reasons}
}

// latestFooterYear finds the maximum 4-digit year >= 2000 in the footer
// region: <footer>, then div.footer, then div#footer.
func latestFooterYear(doc *goquery.Document) (int, bool) {
	footer := doc.Find("footer").First()
	if footer.Length() == 0 {
		footer = doc.Find("div.footer").First()
	}
	if footer.Length() == 0 {
		footer = doc.Find("div#footer").First()
	}
	if footer.Length() == 0 {
		return 0, false
	}

	latest := 0
	for _, m := range yearRe.FindAllString(footer.Text(), -1) {
		year, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if year > latest {
			latest = year
		}
	}
	if latest == 0 {
		return 0, false
	}
	return latest, true
}
