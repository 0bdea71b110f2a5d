package timing

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aryanzkys/apatte-pitbox/config"
)

func TestServerMockAcceptsStandings(t *testing.T) {
	recv := &recvMock{}
	cfg := config.TimingMockConfig{Address: ""}
	srv := NewServerMockWithRegistry(cfg, recv, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	data, _ := json.Marshal(validStandings())
	resp, err := http.Post(ts.URL+"/timing/standings", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if len(recv.received) != 1 || recv.received[0].Rank != 4 {
		t.Fatalf("standings not applied: %v", recv.received)
	}
}

func TestServerMockRejectsInvalid(t *testing.T) {
	recv := &recvMock{}
	srv := NewServerMockWithRegistry(config.TimingMockConfig{}, recv, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	bad := validStandings()
	bad.Rank = 0
	data, _ := json.Marshal(bad)
	resp, err := http.Post(ts.URL+"/timing/standings", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid standings must be rejected, got %d", resp.StatusCode)
	}
	if len(recv.received) != 0 {
		t.Fatal("invalid standings must not reach the receiver")
	}
}

func TestServerMockPing(t *testing.T) {
	srv := NewServerMockWithRegistry(config.TimingMockConfig{}, &recvMock{}, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/timing/ping")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}
}
