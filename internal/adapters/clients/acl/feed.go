// Package acl implements the Anti-Corruption Layer pattern for external services.
// ACL adapters translate between external API models and domain models,
// protecting the domain from external system changes.
package acl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jsamuelsen/quotevault/internal/adapters/clients"
	"github.com/jsamuelsen/quotevault/internal/domain"
)

// feedServiceName identifies the downstream feed in errors and health checks.
const feedServiceName = "quote-feed"

// postsPath is the mock API collection the feed reads and writes.
const postsPath = "/posts"

// ServerCategory is assigned to every record originating from the remote feed.
// The feed's post shape has no category of its own.
const ServerCategory = "Server"

// FeedClientConfig contains configuration for the feed client.
type FeedClientConfig struct {
	// Client is the HTTP client to use for requests.
	// The client's BaseURL should be set to the mock API endpoint.
	Client *clients.Client

	// Logger is the structured logger.
	Logger *slog.Logger
}

// FeedClient implements ports.RemoteSource against the JSONPlaceholder-style
// mock API. It translates the external post shape to quote records and never
// lets the external DTO leak past this package.
type FeedClient struct {
	client *clients.Client
	logger *slog.Logger
}

// NewFeedClient creates a new feed client adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewFeedClient(cfg FeedClientConfig) *FeedClient {
	if cfg.Client == nil {
		panic("FeedClient: Client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedClient{
		client: cfg.Client,
		logger: logger,
	}
}

// feedPost is the external DTO from the mock API.
// This is an internal type - never exposed outside the ACL.
type feedPost struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// FetchQuotes retrieves the remote snapshot.
// Implements ports.RemoteSource.
func (c *FeedClient) FetchQuotes(ctx context.Context) ([]domain.Quote, error) {
	c.logger.DebugContext(ctx, "fetching remote snapshot", slog.String("path", postsPath))

	resp, err := c.client.Get(ctx, postsPath)
	if err != nil {
		return nil, domain.NewUnavailableError(feedServiceName, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(resp)
	}

	return c.parseSnapshot(ctx, resp.Body)
}

// PushQuote mirrors a locally added record to the mock API.
// Implements ports.RemoteSource.
func (c *FeedClient) PushQuote(ctx context.Context, quote domain.Quote) error {
	payload, err := json.Marshal(feedPost{
		UserID: 1,
		Title:  quote.Text,
		Body:   quote.Category,
	})
	if err != nil {
		return fmt.Errorf("encoding post payload: %w", err)
	}

	c.logger.DebugContext(ctx, "pushing record to feed", slog.String("quote_id", quote.ID))

	resp, err := c.client.Post(ctx, postsPath, bytes.NewReader(payload))
	if err != nil {
		return domain.NewUnavailableError(feedServiceName, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	return nil
}

// parseSnapshot reads and translates the external post list to quote records.
// This is the core ACL translation function.
func (c *FeedClient) parseSnapshot(ctx context.Context, body io.Reader) ([]domain.Quote, error) {
	var external []feedPost

	err := json.NewDecoder(body).Decode(&external)
	if err != nil {
		return nil, domain.NewFormatErrorWithCause("decoding feed response", err)
	}

	quotes := make([]domain.Quote, 0, len(external))
	for i := range external {
		quote := translateToDomain(&external[i])
		if quote.Text == "" {
			continue
		}
		quotes = append(quotes, quote)
	}

	c.logger.DebugContext(ctx, "translated remote snapshot",
		slog.Int("posts", len(external)),
		slog.Int("quotes", len(quotes)))

	return quotes, nil
}

// translateToDomain converts one external post to a quote record.
// The feed carries no category, so every record lands in ServerCategory.
// Remote records carry no stable ID; identity falls back to the text key.
func translateToDomain(ext *feedPost) domain.Quote {
	return domain.Quote{
		Text:     strings.TrimSpace(ext.Title),
		Category: ServerCategory,
	}
}

// handleErrorResponse converts HTTP error responses to domain errors.
func (c *FeedClient) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	c.logger.Warn("feed API error",
		slog.Int("status_code", resp.StatusCode),
		slog.String("body", string(body)),
	)

	switch resp.StatusCode {
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return domain.NewUnavailableError(feedServiceName, fmt.Sprintf("HTTP %d", resp.StatusCode))
	default:
		return domain.NewUnavailableError(feedServiceName, fmt.Sprintf("unexpected HTTP %d", resp.StatusCode))
	}
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *FeedClient) Name() string {
	return feedServiceName
}

// Check performs a health check by listing the feed collection.
// Implements ports.HealthChecker.
func (c *FeedClient) Check(ctx context.Context) error {
	resp, err := c.client.Get(ctx, postsPath)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feed API returned status %d", resp.StatusCode)
	}

	return nil
}
