package contacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abenikeb/biisho-a2p/pkg/httpclient"
)

const listMembersEndpoint = "/v1/accounts/%s/lists/%s/members?status=active"

// Client reads active members of an account's contact lists from the
// external contact store. Read-only from this service's perspective.
type Client interface {
	ListMembers(ctx context.Context, accountID string, listID string) ([]Member, error)
}

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Member struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Status  string `json:"status"`
}

type listMembersResponse struct {
	Members []Member `json:"members"`
}

type client struct {
	cfg    Config
	client httpclient.HTTPClient
}

func NewClient(cfg Config, hc httpclient.HTTPClient) Client {
	return &client{cfg: cfg, client: hc}
}

func (c *client) ListMembers(ctx context.Context, accountID string, listID string) ([]Member, error) {
	url := c.cfg.BaseURL + fmt.Sprintf(listMembersEndpoint, accountID, listID)

	resp, err := c.client.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ErrTimeout
		}

		return nil, err
	}

	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrListNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body listMembersResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding error: %w", err)
	}

	return body.Members, nil
}
