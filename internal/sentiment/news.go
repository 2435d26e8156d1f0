package sentiment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"marketpulse/internal/util"
)

// Article is a single news article from NewsAPI.
type Article struct {
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Summary  string    `json:"summary"`
	URL      string    `json:"url"`
}

// NewsClient fetches articles from NewsAPI. Free-tier keys are limited to
// 100 requests per day, so every call goes through a limiter.
type NewsClient struct {
	apiKey     string
	baseURL    string
	pageSize   int
	httpClient *http.Client
	limiter    *util.RateLimiter
}

// NewNewsClient creates a client for the given key and base URL (for example
// "https://newsapi.org/v2").
func NewNewsClient(apiKey, baseURL string, pageSize int) *NewsClient {
	return &NewsClient{
		apiKey:     apiKey,
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    util.NewRateLimiter(30),
	}
}

// newsResponse mirrors the NewsAPI article list payload.
type newsResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// TopHeadlines fetches the current US business headlines.
func (c *NewsClient) TopHeadlines(ctx context.Context) ([]Article, error) {
	q := url.Values{}
	q.Set("category", "business")
	q.Set("country", "us")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	return c.fetch(ctx, "/top-headlines", q)
}

// Everything fetches articles matching query published in [from, to].
func (c *NewsClient) Everything(ctx context.Context, query string, from, to time.Time) ([]Article, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("from", from.Format("2006-01-02"))
	q.Set("to", to.Format("2006-01-02"))
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	return c.fetch(ctx, "/everything", q)
}

func (c *NewsClient) fetch(ctx context.Context, path string, q url.Values) ([]Article, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q.Set("apiKey", c.apiKey)
	u := c.baseURL + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsapi request: %w", err)
	}
	defer resp.Body.Close()

	var nr newsResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return nil, fmt.Errorf("newsapi decode: %w", err)
	}
	if nr.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s (%s)", nr.Message, nr.Code)
	}

	articles := make([]Article, 0, len(nr.Articles))
	for _, a := range nr.Articles {
		t, err := time.Parse(time.RFC3339, a.PublishedAt)
		if err != nil {
			continue
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   a.Source.Name,
			Headline: a.Title,
			Summary:  a.Description,
			URL:      a.URL,
		})
	}
	return articles, nil
}
