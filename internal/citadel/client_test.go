package citadel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielpatrickdp/morty-express/internal/planet"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(Config{BaseURL: srv.URL, Token: "test-token"}, srv.Client())
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("config without token should fail validation")
	}
	cfg.Token = "abc"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cfg.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Fatal("malformed base URL should fail validation")
	}
}

func TestStartEpisode(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/mortys/start/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"morties_in_citadel":        1000,
			"morties_on_planet_jessica": 0,
			"morties_lost":              0,
			"steps_taken":               0,
			"status_message":            "episode started",
		})
	}))

	st, err := c.StartEpisode(context.Background())
	if err != nil {
		t.Fatalf("StartEpisode: %v", err)
	}
	if st.InCitadel != 1000 || st.StepsTaken != 0 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestSendMorties(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Planet     int `json:"planet"`
			MortyCount int `json:"morty_count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Planet != 2 || body.MortyCount != 3 {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"morties_sent":              3,
			"survived":                  true,
			"morties_in_citadel":        747,
			"morties_on_planet_jessica": 203,
			"morties_lost":              50,
			"steps_taken":               84,
		})
	}))

	res, err := c.SendMorties(context.Background(), planet.Purge, 3)
	if err != nil {
		t.Fatalf("SendMorties: %v", err)
	}
	if !res.Survived || res.Count != 3 || res.StepsTaken != 84 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.InCitadel+res.OnJessica+res.Lost != 1000 {
		t.Fatalf("state does not conserve the pool: %+v", res.State)
	}
}

func TestSendMortiesRejectsBadArgs(t *testing.T) {
	c := NewClientWithHTTP(Config{BaseURL: "http://unused", Token: "t"}, &http.Client{})
	if _, err := c.SendMorties(context.Background(), planet.ID(7), 2); err == nil {
		t.Fatal("invalid planet accepted")
	}
	if _, err := c.SendMorties(context.Background(), planet.Purge, 0); err == nil {
		t.Fatal("zero count accepted")
	}
	if _, err := c.SendMorties(context.Background(), planet.Purge, 4); err == nil {
		t.Fatal("oversized count accepted")
	}
}

func TestStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/mortys/status/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"morties_in_citadel":        750,
			"morties_on_planet_jessica": 150,
			"morties_lost":              100,
			"steps_taken":               83,
		})
	}))

	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.OnJessica != 150 || st.Lost != 100 {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestRequestToken(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/request-token/" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Name != "Rick" || body.Email != "rick@citadel.example" {
			t.Errorf("body = %+v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"message": "token sent to rick@citadel.example",
		})
	}))

	msg, err := c.RequestToken(context.Background(), "Rick", "rick@citadel.example")
	if err != nil {
		t.Fatalf("RequestToken: %v", err)
	}
	if msg != "token sent to rick@citadel.example" {
		t.Fatalf("message = %q", msg)
	}
}

func TestRequestTokenWithoutBearer(t *testing.T) {
	// Token issuance is the one endpoint reachable before a token exists.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want none", got)
		}
		json.NewEncoder(w).Encode(map[string]any{"message": "sent"})
	}))
	t.Cleanup(srv.Close)

	c, err := NewUnauthenticatedClient(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewUnauthenticatedClient: %v", err)
	}
	if _, err := c.RequestToken(context.Background(), "Morty", "morty@citadel.example"); err != nil {
		t.Fatalf("RequestToken: %v", err)
	}

	if _, err := NewUnauthenticatedClient(Config{BaseURL: "not a url"}); err == nil {
		t.Fatal("malformed base URL accepted")
	}
}

func TestAPIErrorSurfaced(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"episode not started"}`, http.StatusBadRequest)
	}))

	_, err := c.Status(context.Background())
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", apiErr.StatusCode)
	}
}

func TestContextCancellation(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Status(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
