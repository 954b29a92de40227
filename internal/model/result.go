package model

import "time"

// SearchResult is a single raw result returned by one provider for one query.
// Created by the cascade executor, immutable afterward.
type SearchResult struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	Score       float64    `json:"score"`
	Provider    string     `json:"provider"`
	Query       string     `json:"query"`
	FetchedAt   time.Time  `json:"fetched_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// AuthorityTier is a coarse domain-trust classification. Higher is more
// trustworthy.
type AuthorityTier int

const (
	AuthorityUnverified AuthorityTier = iota
	AuthorityGeneral
	AuthorityPress
	AuthorityOfficial
)

func (a AuthorityTier) String() string {
	switch a {
	case AuthorityOfficial:
		return "official"
	case AuthorityPress:
		return "press"
	case AuthorityGeneral:
		return "general"
	default:
		return "unverified"
	}
}

// SourceRecord is the canonicalized, deduplicated form of one or more
// SearchResults that share a normalized URL. Created by the scorer and never
// mutated downstream.
type SourceRecord struct {
	URL         string        `json:"url"`
	Domain      string        `json:"domain"`
	Title       string        `json:"title"`
	Snippet     string        `json:"snippet"`
	Authority   AuthorityTier `json:"authority"`
	Score       float64       `json:"score"`
	BestRaw     float64       `json:"best_raw"`
	Queries     []string      `json:"queries"`
	Providers   []string      `json:"providers"`
	PublishedAt *time.Time    `json:"published_at,omitempty"`
}
