package timing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aryanzkys/apatte-pitbox/auth"
	"github.com/aryanzkys/apatte-pitbox/config"
)

func TestClientPoll(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(validStandings()); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer api.Close()

	recv := &recvMock{}
	c := NewClient(config.TimingClientConfig{APIURL: api.URL}, recv)
	if err := c.poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(recv.received) != 1 || recv.received[0].FleetSize != 20 {
		t.Fatalf("standings not applied: %v", recv.received)
	}
}

func TestClientPollSendsBearerToken(t *testing.T) {
	token := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"access_token":"token123","token_type":"bearer","expires_in":3600}`)); err != nil {
			t.Errorf("write: %v", err)
		}
	}))
	defer token.Close()

	var seenAuth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(validStandings()); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer api.Close()

	cfg := config.TimingClientConfig{
		APIURL: api.URL,
		Auth:   auth.Conf{ClientID: "id", ClientSecret: "secret", AuthURL: token.URL},
	}
	c := NewClient(cfg, &recvMock{})
	if err := c.poll(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if seenAuth != "Bearer token123" {
		t.Fatalf("unexpected authorization header %q", seenAuth)
	}
}

func TestClientPollRejectsInvalid(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		bad := validStandings()
		bad.Rank = 0
		if err := json.NewEncoder(w).Encode(bad); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	defer api.Close()

	recv := &recvMock{}
	c := NewClient(config.TimingClientConfig{APIURL: api.URL}, recv)
	if err := c.poll(context.Background()); err == nil {
		t.Fatal("invalid standings must fail the poll")
	}
	if len(recv.received) != 0 {
		t.Fatal("invalid standings must not reach the receiver")
	}
}

func TestClientPollServerError(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer api.Close()

	c := NewClient(config.TimingClientConfig{APIURL: api.URL}, &recvMock{})
	if err := c.poll(context.Background()); err == nil {
		t.Fatal("server error must fail the poll")
	}
}
