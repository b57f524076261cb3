package citadel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/danielpatrickdp/morty-express/internal/planet"
)

// #region types

// State is the episode state the service reports: the pool still in the
// citadel, survivors delivered to Planet Jessica, losses, and the service's
// authoritative step counter.
type State struct {
	InCitadel     int    `json:"morties_in_citadel"`
	OnJessica     int    `json:"morties_on_planet_jessica"`
	Lost          int    `json:"morties_lost"`
	StepsTaken    int    `json:"steps_taken"`
	StatusMessage string `json:"status_message,omitempty"`
}

// TripResult is the outcome of one portal send: the batch either survived
// intact or was lost intact, plus the updated episode state.
type TripResult struct {
	Survived bool `json:"survived"`
	Count    int  `json:"morties_sent"`
	State
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("citadel api: status %d: %s", e.StatusCode, e.Body)
}

// #endregion types

// #region client-struct

// Client speaks the citadel transport service's JSON API.
type Client struct {
	cfg  Config
	http *http.Client
}

// #endregion client-struct

// #region constructor

// NewClient validates the config and builds a client against the live
// service.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewUnauthenticatedClient builds a client without a bearer token, for the
// token-issuance flow. Only RequestToken works without one; the service
// rejects every other call.
func NewUnauthenticatedClient(cfg Config) (*Client, error) {
	if err := validate.Var(cfg.BaseURL, "required,url"); err != nil {
		return nil, fmt.Errorf("citadel config: base url: %w", err)
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// NewClientWithHTTP creates a Client with an injected HTTP client. Used for
// testing against a local fake server.
func NewClientWithHTTP(cfg Config, hc *http.Client) *Client {
	return &Client{cfg: cfg, http: hc}
}

// #endregion constructor

// #region start-episode

// StartEpisode resets the service-side episode: a fresh pool of 1000 with
// the step counter at zero.
func (c *Client) StartEpisode(ctx context.Context) (State, error) {
	var st State
	if err := c.do(ctx, http.MethodPost, "/api/mortys/start/", nil, &st); err != nil {
		return State{}, fmt.Errorf("start episode: %w", err)
	}
	return st, nil
}

// #endregion start-episode

// #region send-morties

// SendMorties commits one batch through the portal to a planet. The service
// resolves the whole batch as a unit and reports the outcome with updated
// state.
func (c *Client) SendMorties(ctx context.Context, p planet.ID, count int) (TripResult, error) {
	if !p.Valid() {
		return TripResult{}, fmt.Errorf("send morties: invalid planet %d", p)
	}
	if count < 1 || count > 3 {
		return TripResult{}, fmt.Errorf("send morties: count %d out of [1,3]", count)
	}

	body := struct {
		Planet     int `json:"planet"`
		MortyCount int `json:"morty_count"`
	}{Planet: int(p), MortyCount: count}

	var res TripResult
	if err := c.do(ctx, http.MethodPost, "/api/mortys/portal/", body, &res); err != nil {
		return TripResult{}, fmt.Errorf("send morties: %w", err)
	}
	return res, nil
}

// #endregion send-morties

// #region status

// Status reads the current episode state without advancing it.
func (c *Client) Status(ctx context.Context) (State, error) {
	var st State
	if err := c.do(ctx, http.MethodGet, "/api/mortys/status/", nil, &st); err != nil {
		return State{}, fmt.Errorf("status: %w", err)
	}
	return st, nil
}

// #endregion status

// #region request-token

// RequestToken asks the service to issue an API token to the given address.
// The only unauthenticated endpoint.
func (c *Client) RequestToken(ctx context.Context, name, email string) (string, error) {
	body := struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}{Name: name, Email: email}

	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/request-token/", body, &resp); err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	return resp.Message, nil
}

// #endregion request-token

// #region transport

// do runs one JSON round trip against the service.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// #endregion transport
