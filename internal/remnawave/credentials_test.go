package remnawave

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCredentials(t *testing.T) {
	assert.Equal(t, "https://panel.example.com/api", NewCredentials("https://panel.example.com/api///", "k").BaseURL)
	assert.Equal(t, "https://remna.st/api", NewCredentials("", "k").BaseURL)
	assert.Equal(t, "https://remna.st/api", NewCredentials("  ", "k").BaseURL)
}

func TestCredentials_StringRedactsKey(t *testing.T) {
	creds := NewCredentials("https://panel.example.com", "super-secret")
	assert.NotContains(t, creds.String(), "super-secret")
	assert.NotContains(t, fmt.Sprintf("%v", creds), "super-secret")
	assert.Contains(t, creds.String(), "https://panel.example.com")
}

func TestStaticCredentials(t *testing.T) {
	creds, err := NewStaticCredentials("https://panel.example.com/", "k").Credentials(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, Credentials{BaseURL: "https://panel.example.com", APIKey: "k"}, creds)

	_, err = NewStaticCredentials("https://panel.example.com", "").Credentials(context.Background(), "")
	assert.Error(t, err)
}

func TestRedisCredentials(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	mr.HSet("remnawave:credentials:tenant-a", "url", "https://a.example.com/api/", "apiKey", "key-a")
	mr.HSet("remnawave:credentials:tenant-b", "apiKey", "key-b")
	mr.HSet("remnawave:credentials:broken", "url", "https://c.example.com")

	provider := NewRedisCredentials(client, "remnawave:credentials:", "tenant-a")
	ctx := context.Background()

	tests := []struct {
		name    string
		id      string
		want    Credentials
		wantErr string
	}{
		{
			name: "explicit id",
			id:   "tenant-a",
			want: Credentials{BaseURL: "https://a.example.com/api", APIKey: "key-a"},
		},
		{
			name: "default id",
			id:   "",
			want: Credentials{BaseURL: "https://a.example.com/api", APIKey: "key-a"},
		},
		{
			name: "missing url falls back to public panel",
			id:   "tenant-b",
			want: Credentials{BaseURL: "https://remna.st/api", APIKey: "key-b"},
		},
		{
			name:    "unknown id",
			id:      "nobody",
			wantErr: "not found",
		},
		{
			name:    "hash without key",
			id:      "broken",
			wantErr: "have no apiKey",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := provider.Credentials(ctx, tt.id)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedisCredentials_NoID(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, err := NewRedisCredentials(client, "p:", "").Credentials(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials id is required")
}

func TestRedisCredentials_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	_, err := NewRedisCredentials(client, "p:", "x").Credentials(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read credentials p:x")
}
