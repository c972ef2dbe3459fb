// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
// All helpers below are no-ops when Rdb is nil, so the server runs fine
// without Redis, just without the space-dimension cache.
var Rdb *redis.Client

// SpaceDimsTTL bounds how stale a cached space dimension entry can get after
// a space is deleted or resized through the HTTP API.
var SpaceDimsTTL = 5 * time.Minute

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		Rdb = nil
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// spaceDims mirrors database.SpaceDimensions without importing it, keeping the
// cache package free of a pgx dependency.
type spaceDims struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func spaceDimsKey(spaceID uuid.UUID) string {
	return "space_dims:" + spaceID.String()
}

// GetSpaceDimensions returns cached dimensions for a space, or ok=false on a
// miss, a decode error, or when Redis is unavailable.
func GetSpaceDimensions(ctx context.Context, spaceID uuid.UUID) (width, height int, ok bool) {
	if Rdb == nil {
		return 0, 0, false
	}
	data, err := Rdb.Get(ctx, spaceDimsKey(spaceID)).Bytes()
	if err != nil {
		return 0, 0, false
	}
	var d spaceDims
	if err := json.Unmarshal(data, &d); err != nil {
		return 0, 0, false
	}
	return d.Width, d.Height, true
}

// SetSpaceDimensions stores a space's dimensions with SpaceDimsTTL.
// Best-effort: failures are returned for logging but never block a join.
func SetSpaceDimensions(ctx context.Context, spaceID uuid.UUID, width, height int) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(spaceDims{Width: width, Height: height})
	if err != nil {
		return fmt.Errorf("failed to marshal space dimensions: %w", err)
	}
	if err := Rdb.Set(ctx, spaceDimsKey(spaceID), data, SpaceDimsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache space dimensions: %w", err)
	}
	return nil
}

// InvalidateSpaceDimensions drops the cache entry for a space, called when a
// space is deleted.
func InvalidateSpaceDimensions(ctx context.Context, spaceID uuid.UUID) {
	if Rdb == nil {
		return
	}
	Rdb.Del(ctx, spaceDimsKey(spaceID))
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
