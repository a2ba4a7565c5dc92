package services

import (
	"context"
	"crypto/tls"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"pnodewatch/config"
)

// StoreMode indicates which persistence backend is active
type StoreMode string

const (
	StoreModeRedis    StoreMode = "redis"
	StoreModeInMemory StoreMode = "in-memory"
)

// Store is the local key-value facility behind the history tracker. Redis is
// the durable backend; when it is disabled or unreachable the store degrades
// to a process-local map so writes keep succeeding. Mode switches are
// handled by a background health check, mirroring availability over
// durability: a full or absent backend must never take the dashboard down.
type Store struct {
	logger *logrus.Logger

	redis       *redis.Client
	redisCtx    context.Context
	redisCancel context.CancelFunc
	mode        StoreMode
	modeMutex   sync.RWMutex

	// In-memory fallback
	memMutex sync.RWMutex
	mem      map[string][]byte

	stopChan chan struct{}
	stopOnce sync.Once
}

func NewStore(cfg *config.Config, logger *logrus.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		logger:      logger,
		redisCtx:    ctx,
		redisCancel: cancel,
		mem:         make(map[string][]byte),
		mode:        StoreModeInMemory,
		stopChan:    make(chan struct{}),
	}

	if cfg.Redis.Enabled {
		s.connectRedis(cfg)
	} else {
		logger.Info("Redis disabled in config, history persistence is in-memory only")
	}

	return s
}

// NewInMemoryStore builds a store with no Redis backend at all. Used by
// tests and by deployments that accept losing history across restarts.
func NewInMemoryStore(logger *logrus.Logger) *Store {
	ctx, cancel := context.WithCancel(context.Background())
	return &Store{
		logger:      logger,
		redisCtx:    ctx,
		redisCancel: cancel,
		mem:         make(map[string][]byte),
		mode:        StoreModeInMemory,
		stopChan:    make(chan struct{}),
	}
}

func (s *Store) connectRedis(cfg *config.Config) {
	if cfg.Redis.Address == "" {
		s.logger.Warn("Redis address not configured, using in-memory store")
		return
	}

	options := &redis.Options{
		Addr:         cfg.Redis.Address,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		PoolTimeout:  10 * time.Second,
	}

	if cfg.Redis.UseTLS {
		options.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // cloud providers with shared certs
		}
	}

	s.redis = redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.redis.Ping(ctx).Result(); err != nil {
		s.logger.WithError(err).Warn("Redis connection failed, running in in-memory mode")
		s.setMode(StoreModeInMemory)
		return
	}

	s.logger.WithField("address", cfg.Redis.Address).Info("Redis connected")
	s.setMode(StoreModeRedis)

	go s.runHealthCheckLoop()
}

func (s *Store) setMode(mode StoreMode) {
	s.modeMutex.Lock()
	defer s.modeMutex.Unlock()
	s.mode = mode
}

func (s *Store) getMode() StoreMode {
	s.modeMutex.RLock()
	defer s.modeMutex.RUnlock()
	return s.mode
}

// Mode returns the active persistence backend.
func (s *Store) Mode() StoreMode {
	return s.getMode()
}

func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.redisCancel()

	if s.redis != nil {
		s.redis.Close()
	}
}

// runHealthCheckLoop monitors Redis and switches modes on failure/recovery.
func (s *Store) runHealthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.checkRedisHealth()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Store) checkRedisHealth() {
	if s.redis == nil {
		return
	}

	mode := s.getMode()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := s.redis.Ping(ctx).Result()

	if mode == StoreModeRedis && err != nil {
		s.logger.WithError(err).Warn("Redis health check failed, switching to in-memory mode")
		s.setMode(StoreModeInMemory)
	} else if mode == StoreModeInMemory && err == nil {
		s.logger.Info("Redis reconnected, switching back to redis mode")
		s.syncMemToRedis()
		s.setMode(StoreModeRedis)
	}
}

// syncMemToRedis pushes values written while degraded back to Redis.
func (s *Store) syncMemToRedis() {
	s.memMutex.RLock()
	defer s.memMutex.RUnlock()

	for key, data := range s.mem {
		ctx, cancel := context.WithTimeout(s.redisCtx, 2*time.Second)
		if err := s.redis.Set(ctx, key, data, 0).Err(); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Failed to sync key to Redis")
		}
		cancel()
	}
}

// Load reads the value stored under key. The second return is false when the
// key has never been written (or was deleted).
func (s *Store) Load(key string) ([]byte, bool, error) {
	if s.getMode() == StoreModeRedis {
		ctx, cancel := context.WithTimeout(s.redisCtx, 2*time.Second)
		defer cancel()

		data, err := s.redis.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return data, true, nil
	}

	s.memMutex.RLock()
	defer s.memMutex.RUnlock()
	data, ok := s.mem[key]
	return data, ok, nil
}

// Save writes the value under key without expiry. On a Redis failure the
// value is kept in the in-memory fallback and the error is reported so the
// caller can log it; the write itself never blocks the caller's state.
func (s *Store) Save(key string, data []byte) error {
	s.memMutex.Lock()
	s.mem[key] = data
	s.memMutex.Unlock()

	if s.getMode() == StoreModeRedis {
		ctx, cancel := context.WithTimeout(s.redisCtx, 2*time.Second)
		defer cancel()

		if err := s.redis.Set(ctx, key, data, 0).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Delete removes key from every backend. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	s.memMutex.Lock()
	delete(s.mem, key)
	s.memMutex.Unlock()

	if s.getMode() == StoreModeRedis {
		ctx, cancel := context.WithTimeout(s.redisCtx, 2*time.Second)
		defer cancel()

		if err := s.redis.Del(ctx, key).Err(); err != nil {
			return err
		}
	}

	return nil
}
