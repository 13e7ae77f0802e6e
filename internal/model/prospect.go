package model

import (
	"strings"
	"time"
)

// PresenceState is the classifier's verdict on a business's web presence.
type PresenceState string

const (
	// PresenceNoSite means no reachable site was found (none declared, or
	// declared/guessed but unreachable).
	PresenceNoSite PresenceState = "NO_SITE"
	// PresenceArchaic means a fetched site scored as outdated.
	PresenceArchaic PresenceState = "ARCHAIC"
	// PresenceModern means a fetched site scored as contemporary.
	PresenceModern PresenceState = "MODERN"
	// PresenceUnknown means the fetched site scored ambiguously, or there
	// was nothing to analyze.
	PresenceUnknown PresenceState = "UNKNOWN"
)

// Qualifies reports whether a presence state makes the prospect worth
// contacting. MODERN and UNKNOWN are excluded from outreach but are still
// recorded in the ledger.
func (s PresenceState) Qualifies() bool {
	return s == PresenceNoSite || s == PresenceArchaic
}

// ProspectStatus is the lifecycle state of a persisted prospect.
type ProspectStatus string

const (
	StatusNew       ProspectStatus = "new"
	StatusContacted ProspectStatus = "contacted"
	StatusFailed    ProspectStatus = "failed"
	StatusSkipped   ProspectStatus = "skipped"
)

// PlaceRecord is a raw candidate returned by the place search. Immutable
// once received.
type PlaceRecord struct {
	Name    string   `json:"name"`
	Address string   `json:"address"`
	Website string   `json:"website,omitempty"`
	Types   []string `json:"types,omitempty"`
	Rating  float64  `json:"rating,omitempty"`
}

// City derives a city from the record's address: the last comma-separated
// token, trimmed. Crude, but matches the dedup identity used by the ledger.
func (p PlaceRecord) City() string {
	if p.Address == "" {
		return ""
	}
	parts := strings.Split(p.Address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}

// ClassificationResult is the classifier's verdict with its evidence.
// Reasons are ordered by rule evaluation order; they feed message
// personalization verbatim, so the ordering is part of the contract.
type ClassificationResult struct {
	State   PresenceState `json:"state"`
	Reasons []string      `json:"reasons"`
}

// Prospect is the persisted lead record, unique per (name, city).
type Prospect struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Address        string         `json:"address,omitempty"`
	City           string         `json:"city,omitempty"`
	Sector         string         `json:"sector,omitempty"`
	WebsiteURL     string         `json:"website_url,omitempty"`
	PresenceState  PresenceState  `json:"presence_state,omitempty"`
	Email          string         `json:"email,omitempty"`
	MessageContent string         `json:"message_content,omitempty"`
	SentAt         *time.Time     `json:"sent_at,omitempty"`
	Status         ProspectStatus `json:"status"`
	CreatedAt      time.Time      `json:"created_at"`
}

// RunStatus is the state of a pipeline run record.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunSummary is the per-run record: search parameters and outcome counters.
type RunSummary struct {
	ID           string     `json:"id"`
	Keyword      string     `json:"keyword"`
	Location     string     `json:"location"`
	RadiusMeters int        `json:"radius_meters"`
	Sector       string     `json:"sector,omitempty"`
	Processed    int        `json:"processed"`
	Sent         int        `json:"sent"`
	DryRun       bool       `json:"dry_run"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
