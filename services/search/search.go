package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"labbook/models"
	"labbook/utils"

	"go.uber.org/zap"
)

const (
	labTestPrefix = "/lab-test/"
	scanPrefix    = "/scan/"
	minQueryLen   = 2
)

var ErrSearchFailed = errors.New("test search failed")

type rawResult struct {
	TestName     string       `json:"testName"`
	Name         string       `json:"name"`
	Route        string       `json:"route"`
	TemplateName string       `json:"templateName"`
	Price        models.Price `json:"price"`
}

// Client posts {testName} to the catalogue search endpoint.
type Client struct {
	url    string
	client utils.HTTPDoer
	logger *zap.Logger
}

func NewClient(url string, client utils.HTTPDoer, logger *zap.Logger) *Client {
	return &Client{url: url, client: client, logger: logger}
}

// Route builds the storefront path of a result: lab tests live under
// /lab-test/, everything else under /scan/.
func Route(templateName, route string) string {
	route = strings.Trim(strings.TrimSpace(route), "/")
	if templateName == string(models.TemplateLabTest) {
		return labTestPrefix + route
	}
	return scanPrefix + route
}

func (c *Client) Search(ctx context.Context, name string) ([]models.TestSearchResult, error) {
	body, err := json.Marshal(map[string]string{"testName": name})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrSearchFailed, resp.StatusCode)
	}

	var raw []rawResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrSearchFailed, err)
	}

	results := make([]models.TestSearchResult, 0, len(raw))
	for _, r := range raw {
		name := r.TestName
		if name == "" {
			name = r.Name
		}
		if strings.Trim(strings.TrimSpace(r.Route), "/") == "" {
			c.logger.Warn("Skipping search result without a route", zap.String("name", name))
			continue
		}
		tmpl := models.TemplateNonLabTest
		if r.TemplateName == string(models.TemplateLabTest) {
			tmpl = models.TemplateLabTest
		}
		results = append(results, models.TestSearchResult{
			Name:         name,
			Route:        Route(r.TemplateName, r.Route),
			TemplateName: tmpl,
			Price:        r.Price,
		})
	}
	return results, nil
}

// Backend answers a single search query.
type Backend interface {
	Search(ctx context.Context, name string) ([]models.TestSearchResult, error)
}

// Searcher debounces search-as-you-type per visitor and only answers the
// newest query; anything overtaken returns utils.ErrStale.
type Searcher struct {
	client   Backend
	tracker  *utils.LatestTracker
	debounce time.Duration
	logger   *zap.Logger
}

func NewSearcher(client Backend, tracker *utils.LatestTracker, debounce time.Duration, logger *zap.Logger) *Searcher {
	if tracker == nil {
		tracker = utils.NewLatestTracker()
	}
	return &Searcher{client: client, tracker: tracker, debounce: debounce, logger: logger}
}

func (s *Searcher) Search(ctx context.Context, sessionID, query string) ([]models.TestSearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLen {
		return []models.TestSearchResult{}, nil
	}

	key := "search:" + sessionID
	lctx, seq, done := s.tracker.Begin(ctx, key)
	defer done()

	if s.debounce > 0 {
		timer := time.NewTimer(s.debounce)
		select {
		case <-lctx.Done():
			timer.Stop()
			if !s.tracker.IsLatest(key, seq) {
				return nil, utils.ErrStale
			}
			return nil, lctx.Err()
		case <-timer.C:
		}
	}

	results, err := s.client.Search(lctx, query)
	if err != nil {
		if !s.tracker.IsLatest(key, seq) {
			return nil, utils.ErrStale
		}
		s.logger.Warn("Test search failed", zap.String("query", query), zap.Error(err))
		return nil, err
	}
	if err := s.tracker.Apply(key, seq, func() error { return nil }); err != nil {
		return nil, err
	}
	return results, nil
}
