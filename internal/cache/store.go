package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yx118/MoonTVPlus/internal/config"
)

// Store is a read-through byte cache for metadata provider responses.
// Backed by Valkey when a cache URL is configured, by an in-process
// TTL/LRU cache otherwise. Lookup failures behave as cache misses.
type Store struct {
	client valkey.Client
	memory *TTLCache[string, []byte]
	ttl    time.Duration
}

type storeConn struct {
	addr     string
	username string
	password string
	selectDB int
	useTLS   bool
}

// NewStore builds the metadata cache from configuration.
func NewStore(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	if !cfg.Cache.Enabled {
		return &Store{
			memory: NewTTLCache[string, []byte](cfg.Cache.MaxSize, ttl),
			ttl:    ttl,
		}, nil
	}

	conn, err := parseStoreURL(cfg.Cache.URL)
	if err != nil {
		return nil, fmt.Errorf("parse cache url: %w", err)
	}

	var tlsConfig *tls.Config
	if conn.useTLS {
		host, _, splitErr := net.SplitHostPort(conn.addr)
		if splitErr != nil {
			return nil, fmt.Errorf("parse cache addr: %w", splitErr)
		}
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		TLSConfig:   tlsConfig,
		Username:    conn.username,
		Password:    conn.password,
		InitAddress: []string{conn.addr},
		SelectDB:    conn.selectDB,
		// Server-assisted client-side caching buys nothing for
		// short-TTL metadata blobs.
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey: %w", err)
	}

	return &Store{client: client, ttl: ttl}, nil
}

// Get returns the cached bytes for key, or false on miss or error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	if s.client == nil {
		return s.memory.Get(key)
	}

	data, err := s.client.Do(ctx, s.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}

// Set stores value under key with the configured TTL. Errors are
// ignored; the cache is best-effort.
func (s *Store) Set(ctx context.Context, key string, value []byte) {
	if s == nil || len(value) == 0 {
		return
	}
	if s.client == nil {
		s.memory.Set(key, value)
		return
	}

	cmd := s.client.B().Set().Key(key).Value(valkey.BinaryString(value)).
		Ex(s.ttl).Build()
	_ = s.client.Do(ctx, cmd).Error()
}

// Backend names the active storage backend.
func (s *Store) Backend() string {
	if s == nil || s.client == nil {
		return "memory"
	}
	return "valkey"
}

// Ping checks backend connectivity. The memory backend is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Do(ctx, s.client.B().Ping().Build()).Error()
}

// Close releases the backend connection.
func (s *Store) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

func parseStoreURL(raw string) (storeConn, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return storeConn{}, errors.New("cache url is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return storeConn{}, err
	}

	var useTLS bool
	switch parsed.Scheme {
	case "redis", "valkey":
	case "rediss", "valkeys":
		useTLS = true
	default:
		return storeConn{}, fmt.Errorf("unsupported cache url scheme: %s", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return storeConn{}, errors.New("cache url missing host")
	}
	port := parsed.Port()
	if port == "" {
		port = "6379"
	}

	conn := storeConn{
		addr:   net.JoinHostPort(host, port),
		useTLS: useTLS,
	}

	if parsed.User != nil {
		conn.username = parsed.User.Username()
		conn.password, _ = parsed.User.Password()
	}

	if path := strings.TrimPrefix(parsed.Path, "/"); path != "" {
		db, convErr := strconv.Atoi(path)
		if convErr != nil {
			return storeConn{}, fmt.Errorf("invalid cache db index: %s", path)
		}
		conn.selectDB = db
	}

	return conn, nil
}
