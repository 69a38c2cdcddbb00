package cachestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/skylift/region-advisor/internal/core/ports"
	"github.com/skylift/region-advisor/internal/errors"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	DefaultTTL   = 24 * time.Hour
	entrySuffix  = ".json"
	tmpPrefix    = ".tmp-"
	dirPermissions = 0o755
)

// envelope is the on-disk shape of one cache entry. The checksum covers
// the payload bytes exactly as stored, so truncated or corrupted writes
// fail verification and read as a miss.
type envelope struct {
	Key       string          `json:"key"`
	WrittenAt time.Time       `json:"written_at"`
	Checksum  string          `json:"checksum"`
	Payload   json.RawMessage `json:"payload"`
}

type Config struct {
	Directory  string `mapstructure:"directory" validate:"required"`
	TTLSeconds int    `mapstructure:"ttl_seconds" validate:"gte=0"`
}

// TTL returns the configured entry lifetime, defaulting to 24 hours.
func (c Config) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return DefaultTTL
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// Store is a content-addressed file cache. Entries are validated lazily
// on read: expiry and checksum are checked per Get, never swept by a
// background goroutine. Writes go through a temp file and rename so a
// concurrent reader never observes a half-written entry.
type Store struct {
	dir    string
	ttl    time.Duration
	logger ports.Logger
	now    func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source, used by expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(cfg Config, logger ports.Logger, opts ...Option) (*Store, error) {
	if cfg.Directory == "" {
		return nil, errors.New(errors.CodeConfigValidation, "cache directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.Directory, dirPermissions); err != nil {
		return nil, errors.Wrapf(err, errors.CodeCacheIO, "failed to create cache directory %s", cfg.Directory)
	}

	s := &Store{
		dir:    cfg.Directory,
		ttl:    cfg.TTL(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// digest produces the stable content address for a logical key. The
// fields are joined with a separator that cannot appear in any of them
// after normalization, so distinct keys never collide positionally.
func digest(key ports.CacheKey) string {
	canonical := strings.ToLower(strings.Join([]string{
		key.Namespace, key.APIVersion, key.Region, key.Query,
	}, "\x1f"))
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(key ports.CacheKey) string {
	return filepath.Join(s.dir, digest(key)+entrySuffix)
}

func (s *Store) Get(ctx context.Context, key ports.CacheKey) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, errors.CodeCacheIO, "failed to read cache entry for %s/%s", key.Namespace, key.Region)
	}

	var env envelope
	if err := jsonAPI.Unmarshal(raw, &env); err != nil {
		s.logger.Warnf(ctx, "Discarding undecodable cache entry for %s/%s: %v", key.Namespace, key.Region, err)
		return nil, false, nil
	}

	if s.now().Sub(env.WrittenAt) >= s.ttl {
		s.logger.Debugf(ctx, "Cache entry for %s/%s expired (written %s)", key.Namespace, key.Region, env.WrittenAt.Format(time.RFC3339))
		return nil, false, nil
	}

	if checksum(env.Payload) != env.Checksum {
		integrityErr := errors.Newf(errors.CodeCacheIntegrity, "cache checksum mismatch for %s/%s", key.Namespace, key.Region)
		s.logger.Warnf(ctx, "Cache integrity failure, treating as miss: %v", integrityErr)
		return nil, false, nil
	}

	return env.Payload, true, nil
}

func (s *Store) Put(ctx context.Context, key ports.CacheKey, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := envelope{
		Key:       fmt.Sprintf("%s|%s|%s|%s", key.Namespace, key.APIVersion, key.Region, key.Query),
		WrittenAt: s.now(),
		Checksum:  checksum(payload),
		Payload:   json.RawMessage(payload),
	}

	raw, err := jsonAPI.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheIO, "failed to encode cache envelope")
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheIO, "failed to create cache temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeCacheIO, "failed to write cache temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeCacheIO, "failed to close cache temp file")
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, errors.CodeCacheIO, "failed to swap cache entry into place")
	}

	s.logger.Debugf(ctx, "Cached %d bytes for %s/%s", len(payload), key.Namespace, key.Region)
	return nil
}

func (s *Store) Invalidate(ctx context.Context, key ports.CacheKey) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.CodeCacheIO, "failed to invalidate cache entry for %s/%s", key.Namespace, key.Region)
	}
	return nil
}

// PurgeAll removes every entry in the cache directory. Only taken on
// explicit user request; TTL alone bounds growth otherwise.
func (s *Store) PurgeAll(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheIO, "failed to list cache directory")
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), entrySuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.CodeCacheIO, "failed to remove cache entry %s", e.Name())
		}
	}
	s.logger.Infof(ctx, "Cache purged: %s", s.dir)
	return nil
}
