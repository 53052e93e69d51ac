package vault

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"
	"go.uber.org/zap"
)

// DefaultLLMSecretPath is the KV v2 path holding the model provider key.
const DefaultLLMSecretPath = "secret/data/rentmap/llm"

type SecretManager struct {
	client *api.Client
	log    *zap.Logger
}

func NewSecretManager(address, token string, log *zap.Logger) (*SecretManager, error) {
	config := api.DefaultConfig()
	if address != "" {
		config.Address = address
	}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("vault: new client: %w", err)
	}

	client.SetToken(token)

	return &SecretManager{client: client, log: log}, nil
}

// GetLLMAPIKey reads the "api_key" field of the secret at path.
func (sm *SecretManager) GetLLMAPIKey(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = DefaultLLMSecretPath
	}
	return sm.readString(ctx, path, "api_key")
}

func (sm *SecretManager) readString(ctx context.Context, path, field string) (string, error) {
	secret, err := sm.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: secret %s not found", path)
	}

	data := secret.Data
	// KV v2 nests the payload under "data".
	if nested, ok := secret.Data["data"].(map[string]interface{}); ok {
		data = nested
	}

	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault: field %q missing in %s", field, path)
	}

	sm.log.Debug("Secret loaded from Vault", zap.String("path", path), zap.String("field", field))
	return value, nil
}
