package store

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// DefaultValkeyPrefix namespaces every key written to a shared server.
const DefaultValkeyPrefix = "mailcampaign:"

// ValkeyConfig configures the valkey backend.
type ValkeyConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TLS       bool
}

// ValkeyKV stores keys on a Valkey (or Redis-compatible) server.
type ValkeyKV struct {
	client valkey.Client
	prefix string
}

// NewValkeyKV connects to the configured server.
func NewValkeyKV(cfg ValkeyConfig) (*ValkeyKV, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("valkey backend requires an address")
	}
	opt := valkey.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	}
	if cfg.TLS {
		opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.Addr, err)
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultValkeyPrefix
	}
	return &ValkeyKV{client: client, prefix: prefix}, nil
}

func (v *ValkeyKV) key(k string) string { return v.prefix + k }

// Get reads the prefixed key; a nil reply is reported as not found.
func (v *ValkeyKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return val, true, nil
}

// Set writes the prefixed key without expiry.
func (v *ValkeyKV) Set(ctx context.Context, key, value string) error {
	cmd := v.client.B().Set().Key(v.key(key)).Value(value).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes the prefixed key.
func (v *ValkeyKV) Delete(ctx context.Context, key string) error {
	cmd := v.client.B().Del().Key(v.key(key)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close disconnects the client.
func (v *ValkeyKV) Close() error {
	v.client.Close()
	return nil
}
