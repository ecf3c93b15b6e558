package domain

import (
	"fmt"
	"strings"
	"time"
)

// Query is one industry + geographic search unit pulled from the job source.
type Query struct {
	ID        string  `json:"id"`
	Industry  string  `json:"industry"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ZoomLevel int     `json:"zoom_level"`
}

// Validate rejects queries missing any required field. Invalid queries are
// skipped before crawling, never crawled partially.
func (q Query) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return fmt.Errorf("query missing id")
	}
	if strings.TrimSpace(q.Industry) == "" {
		return fmt.Errorf("query %s missing industry", q.ID)
	}
	if q.Latitude == 0 && q.Longitude == 0 {
		return fmt.Errorf("query %s missing coordinates", q.ID)
	}
	if q.ZoomLevel <= 0 {
		return fmt.Errorf("query %s missing zoom_level", q.ID)
	}
	return nil
}

// BusinessRecord is the normalized representation of one scraped business.
// Every field except SourceURL and ScrapedAt may legitimately be absent:
// an empty string or nil pointer means the page did not expose that field.
type BusinessRecord struct {
	QueryID     string
	Industry    string
	Name        string
	Rating      *float64
	ReviewCount *int
	Address     string
	Phone       string
	Website     string
	Email       string
	SocialLinks []string
	SourceURL   string
	ScrapedAt   time.Time
}

// Viable reports whether the record clears the minimum bar for submission.
// A record without a name is discarded, never forwarded to the sink.
func (r *BusinessRecord) Viable() bool {
	return r != nil && strings.TrimSpace(r.Name) != ""
}
