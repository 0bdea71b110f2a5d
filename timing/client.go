package timing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aryanzkys/apatte-pitbox/auth"
	"github.com/aryanzkys/apatte-pitbox/config"
	"github.com/aryanzkys/apatte-pitbox/infra/logger"
)

// Client polls the timing tower API for live standings.
type Client struct {
	recv     Receiver
	log      logger.Logger
	client   *http.Client
	cred     *auth.ClientCred
	apiURL   string
	interval time.Duration
}

// NewClient creates a new timing API client. OAuth2 client credentials
// are used when the config carries an auth URL.
func NewClient(cfg config.TimingClientConfig, r Receiver) *Client {
	if cfg.PollIntervalSeconds <= 0 {
		cfg.PollIntervalSeconds = 30
	}
	var cred *auth.ClientCred
	if cfg.Auth.AuthURL != "" {
		cred = auth.NewClientCred(cfg.Auth)
	}
	return &Client{
		recv:     r,
		log:      logger.New("timing-client"),
		client:   &http.Client{Timeout: 10 * time.Second},
		cred:     cred,
		apiURL:   cfg.APIURL,
		interval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
	}
}

// Start begins the polling loop.
func (c *Client) Start(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.poll(ctx); err != nil {
				c.log.Errorf("poll error: %v", err)
			}
		}
	}
}

func (c *Client) poll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL, nil)
	if err != nil {
		return fmt.Errorf("build standings request: %w", err)
	}
	if c.cred != nil {
		if err := c.cred.SetAuthHeader(req); err != nil {
			return fmt.Errorf("authorize standings request: %w", err)
		}
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch standings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("standings endpoint returned %d", resp.StatusCode)
	}
	var s Standings
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return fmt.Errorf("decode standings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid standings: %w", err)
	}
	c.recv.ApplyStandings(s)
	return nil
}
