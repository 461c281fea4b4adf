package remnawave

import (
	"context"
	"fmt"
	"strings"

	"remnawave-workers/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// Credentials address one Remnawave panel. The API key is an opaque bearer
// token and is never logged.
type Credentials struct {
	BaseURL string
	APIKey  string
}

// NewCredentials trims trailing slashes from baseURL and falls back to the
// public panel address when it is empty.
func NewCredentials(baseURL, apiKey string) Credentials {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = strings.TrimRight(config.DefaultRemnawaveURL, "/")
	}
	return Credentials{BaseURL: baseURL, APIKey: apiKey}
}

func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{BaseURL: %s, APIKey: [REDACTED]}", c.BaseURL)
}

// CredentialsProvider yields the credentials for one batch. id selects a
// tenant for providers that hold more than one; others ignore it.
type CredentialsProvider interface {
	Credentials(ctx context.Context, id string) (Credentials, error)
}

// StaticCredentials serves one fixed credential set.
type StaticCredentials struct {
	creds Credentials
}

func NewStaticCredentials(baseURL, apiKey string) *StaticCredentials {
	return &StaticCredentials{creds: NewCredentials(baseURL, apiKey)}
}

func (s *StaticCredentials) Credentials(_ context.Context, _ string) (Credentials, error) {
	if s.creds.APIKey == "" {
		return Credentials{}, fmt.Errorf("remnawave api key is not configured")
	}
	return s.creds, nil
}

// RedisCredentials reads credentials from a redis hash named
// <prefix><id> with fields "url" and "apiKey".
type RedisCredentials struct {
	client    redis.UniversalClient
	keyPrefix string
	defaultID string
}

func NewRedisCredentials(client redis.UniversalClient, keyPrefix, defaultID string) *RedisCredentials {
	return &RedisCredentials{
		client:    client,
		keyPrefix: keyPrefix,
		defaultID: defaultID,
	}
}

func (r *RedisCredentials) Credentials(ctx context.Context, id string) (Credentials, error) {
	if id == "" {
		id = r.defaultID
	}
	if id == "" {
		return Credentials{}, fmt.Errorf("credentials id is required")
	}

	key := r.keyPrefix + id
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials %s: %w", key, err)
	}
	if len(fields) == 0 {
		return Credentials{}, fmt.Errorf("credentials %s not found", key)
	}

	apiKey := fields["apiKey"]
	if apiKey == "" {
		return Credentials{}, fmt.Errorf("credentials %s have no apiKey", key)
	}

	return NewCredentials(fields["url"], apiKey), nil
}
