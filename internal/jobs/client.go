package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mapscraper/internal/domain"

	"go.uber.org/zap"
)

// Client talks to the job API: it pulls pending queries and pushes scraped
// result chunks back.
type Client struct {
	baseURL   string
	country   string
	machineID string
	http      *http.Client
	logger    *zap.Logger
}

func NewClient(baseURL, country, machineID string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   baseURL,
		country:   country,
		machineID: machineID,
		http:      &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

type queriesResponse struct {
	Queries []wireQuery `json:"queries"`
}

// wireQuery tolerates numeric or string ids; everything else decodes straight
// into the domain shape.
type wireQuery struct {
	ID        json.Number `json:"id"`
	Industry  string      `json:"industry"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
	ZoomLevel int         `json:"zoom_level"`
}

// FetchQueries pulls the pending queries for this machine. A query missing
// required fields is skipped with a warning; it never fails the batch.
func (c *Client) FetchQueries(ctx context.Context) ([]domain.Query, error) {
	endpoint := fmt.Sprintf("%s/queries?country=%s&machine_id=%s",
		c.baseURL, url.QueryEscape(c.country), url.QueryEscape(c.machineID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch queries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job source responded with status %d", resp.StatusCode)
	}

	var payload queriesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode queries: %w", err)
	}

	queries := make([]domain.Query, 0, len(payload.Queries))
	for _, wq := range payload.Queries {
		q := domain.Query{
			ID:        wq.ID.String(),
			Industry:  wq.Industry,
			Latitude:  wq.Latitude,
			Longitude: wq.Longitude,
			ZoomLevel: wq.ZoomLevel,
		}
		if err := q.Validate(); err != nil {
			c.logger.Warn("skipping incomplete query", zap.Error(err))
			continue
		}
		queries = append(queries, q)
	}
	return queries, nil
}

type submissionPayload struct {
	Country   string         `json:"country"`
	MachineID string         `json:"machine_id"`
	Status    string         `json:"status"`
	Queries   []resultRecord `json:"queries"`
}

type resultRecord struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Address     *string  `json:"address"`
	Phone       *string  `json:"phone"`
	Website     *string  `json:"website"`
	Email       *string  `json:"email"`
	StarRating  *float64 `json:"star_rating"`
	ReviewCount *int     `json:"review_count"`
	SourceURL   string   `json:"source_url"`
	ScrapedAt   string   `json:"scraped_at"`
}

// SubmitChunk posts one chunk of records to the results sink. Any non-2xx
// response is an error so the submitter's retry policy can engage. Record
// order within the chunk is preserved.
func (c *Client) SubmitChunk(ctx context.Context, records []domain.BusinessRecord) error {
	payload := submissionPayload{
		Country:   c.country,
		MachineID: c.machineID,
		Status:    "completed",
		Queries:   make([]resultRecord, 0, len(records)),
	}
	for _, r := range records {
		payload.Queries = append(payload.Queries, formatRecord(r))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/queries/results", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submit chunk: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("results sink responded with status %d", resp.StatusCode)
	}

	c.logger.Info("chunk submitted", zap.Int("records", len(records)))
	return nil
}

func formatRecord(r domain.BusinessRecord) resultRecord {
	return resultRecord{
		ID:          r.QueryID,
		Title:       r.Name,
		Category:    r.Industry,
		Address:     optional(r.Address),
		Phone:       optional(r.Phone),
		Website:     optional(r.Website),
		Email:       optional(r.Email),
		StarRating:  r.Rating,
		ReviewCount: r.ReviewCount,
		SourceURL:   r.SourceURL,
		ScrapedAt:   r.ScrapedAt.UTC().Format(time.RFC3339),
	}
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
