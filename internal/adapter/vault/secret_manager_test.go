package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newVaultServer(t *testing.T, secrets map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"errors":["permission denied"]}`))
			return
		}
		body, ok := secrets[strings.TrimPrefix(r.URL.Path, "/v1/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetLLMAPIKey(t *testing.T) {
	server := newVaultServer(t, map[string]string{
		"secret/data/rentmap/llm": `{"data":{"data":{"api_key":"kv2-key"},"metadata":{"version":1}}}`,
		"kv1/llm":                 `{"data":{"api_key":"kv1-key"}}`,
		"secret/data/empty":       `{"data":{"data":{"other":"x"}}}`,
	})

	tests := []struct {
		name    string
		token   string
		path    string
		want    string
		wantErr bool
	}{
		{name: "kv v2 default path", token: "root", want: "kv2-key"},
		{name: "kv v1", token: "root", path: "kv1/llm", want: "kv1-key"},
		{name: "missing field", token: "root", path: "secret/data/empty", wantErr: true},
		{name: "missing secret", token: "root", path: "secret/data/nope", wantErr: true},
		{name: "forbidden", token: "bad", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm, err := NewSecretManager(server.URL, tt.token, zap.NewNop())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			got, err := sm.GetLLMAPIKey(context.Background(), tt.path)

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
