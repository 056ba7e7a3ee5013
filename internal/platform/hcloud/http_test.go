package hcloud

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/hetznercloud/hcloud-go/v2/hcloud/schema"

	"github.com/imamik/pipewright/internal/config"
)

// testServer mocks Hetzner Cloud API responses over HTTP.
type testServer struct {
	server *httptest.Server
	mux    *http.ServeMux
}

func newTestServer() *testServer {
	mux := http.NewServeMux()
	return &testServer{
		server: httptest.NewServer(mux),
		mux:    mux,
	}
}

func (ts *testServer) close() {
	ts.server.Close()
}

// realClient returns a RealClient pointed at the test server.
func (ts *testServer) realClient() *RealClient {
	hc := hcloud.NewClient(
		hcloud.WithToken("test-token"),
		hcloud.WithEndpoint(ts.server.URL),
	)
	return NewRealClient("test-token",
		WithHCloudClient(hc),
		WithTimeouts(&config.Timeouts{
			ServerCreate:      30 * time.Second,
			RetryMaxAttempts:  2,
			RetryInitialDelay: 10 * time.Millisecond,
		}),
	)
}

func (ts *testServer) handleFunc(pattern string, handler http.HandlerFunc) {
	ts.mux.HandleFunc(pattern, handler)
}

func jsonResponse(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func TestRealClient_GetServersByLabel_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("label_selector") == "cluster=shop-main" {
			jsonResponse(w, http.StatusOK, schema.ServerListResponse{
				Servers: []schema.Server{
					{ID: 1, Name: "shop-main-cp-1", Labels: map[string]string{"cluster": "shop-main"}},
					{ID: 2, Name: "shop-main-worker-1", Labels: map[string]string{"cluster": "shop-main"}},
				},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.ServerListResponse{Servers: []schema.Server{}})
	})

	client := ts.realClient()

	servers, err := client.GetServersByLabel(context.Background(), map[string]string{"cluster": "shop-main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(servers) != 2 {
		t.Errorf("expected 2 servers, got %d", len(servers))
	}
}

func TestRealClient_GetServerByName_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "shop-main-cp-1" {
			jsonResponse(w, http.StatusOK, schema.ServerListResponse{
				Servers: []schema.Server{{ID: 42, Name: "shop-main-cp-1"}},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.ServerListResponse{Servers: []schema.Server{}})
	})

	client := ts.realClient()
	ctx := context.Background()

	t.Run("server found", func(t *testing.T) {
		server, err := client.GetServerByName(ctx, "shop-main-cp-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server == nil || server.ID != 42 {
			t.Errorf("expected server 42, got %+v", server)
		}
	})

	t.Run("server missing", func(t *testing.T) {
		server, err := client.GetServerByName(ctx, "nonexistent")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if server != nil {
			t.Errorf("expected nil for missing server, got %+v", server)
		}
	})
}

func TestRealClient_EnsureNetwork_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	networkCreated := false

	ts.handleFunc("/networks", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			networkCreated = true
			jsonResponse(w, http.StatusCreated, schema.NetworkCreateResponse{
				Network: schema.Network{ID: 100, Name: "shop-main", IPRange: "10.0.0.0/16"},
			})
			return
		}
		if r.URL.Query().Get("name") == "shop-main" && networkCreated {
			jsonResponse(w, http.StatusOK, schema.NetworkListResponse{
				Networks: []schema.Network{{ID: 100, Name: "shop-main", IPRange: "10.0.0.0/16"}},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.NetworkListResponse{Networks: []schema.Network{}})
	})

	client := ts.realClient()

	network, err := client.EnsureNetwork(context.Background(), "shop-main", "10.0.0.0/16", "eu-central", map[string]string{"cluster": "shop-main"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if network == nil || network.ID != 100 {
		t.Fatalf("expected network 100, got %+v", network)
	}
	if !networkCreated {
		t.Error("expected network to be created")
	}

	// A second call must reuse the existing network.
	network, err = client.EnsureNetwork(context.Background(), "shop-main", "10.0.0.0/16", "eu-central", nil)
	if err != nil {
		t.Fatalf("unexpected error on reuse: %v", err)
	}
	if network.ID != 100 {
		t.Errorf("expected reused network 100, got %d", network.ID)
	}
}

func TestRealClient_EnsureSSHKey_WithHTTPMock(t *testing.T) {
	ts := newTestServer()
	defer ts.close()

	ts.handleFunc("/ssh_keys", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			jsonResponse(w, http.StatusCreated, schema.SSHKeyCreateResponse{
				SSHKey: schema.SSHKey{ID: 1001, Name: "shop-main", PublicKey: "ssh-ed25519 AAAA..."},
			})
			return
		}
		if r.URL.Query().Get("name") == "existing-key" {
			jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{
				SSHKeys: []schema.SSHKey{{ID: 7, Name: "existing-key"}},
			})
			return
		}
		jsonResponse(w, http.StatusOK, schema.SSHKeyListResponse{SSHKeys: []schema.SSHKey{}})
	})

	client := ts.realClient()
	ctx := context.Background()

	t.Run("existing key reused", func(t *testing.T) {
		id, err := client.EnsureSSHKey(ctx, "existing-key", "ssh-ed25519 AAAA...", nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 7 {
			t.Errorf("expected ID 7, got %d", id)
		}
	})

	t.Run("missing key created", func(t *testing.T) {
		id, err := client.EnsureSSHKey(ctx, "shop-main", "ssh-ed25519 AAAA...", map[string]string{"cluster": "shop-main"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != 1001 {
			t.Errorf("expected ID 1001, got %d", id)
		}
	})
}
