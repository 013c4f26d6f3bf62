package cache

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	WeatherKeyPrefix = "weather:%.2f:%.2f"
	ProductsKey      = "products:catalog"
	ProfileKeyPrefix = "profile:v2:%s"
)

const (
	WeatherTTL  = 10 * time.Minute
	ProductsTTL = 2 * time.Minute
	ProfileTTL  = 5 * time.Minute
)

// WeatherKey buckets coordinates to two decimals (about 1 km).
func WeatherKey(lat, lon float64) string {
	return fmt.Sprintf(WeatherKeyPrefix, round2(lat), round2(lon))
}

func ProfileKey(userKey string) string {
	return fmt.Sprintf(ProfileKeyPrefix, userKey)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Invalidate(ctx context.Context, rdb *redis.Client, keys ...string) {
	if rdb != nil && len(keys) > 0 {
		rdb.Del(ctx, keys...)
	}
}

func InvalidateProducts(ctx context.Context, rdb *redis.Client) {
	Invalidate(ctx, rdb, ProductsKey)
}

func InvalidateProfiles(ctx context.Context, rdb *redis.Client, userKeys ...string) {
	keys := make([]string, 0, len(userKeys))
	for _, k := range userKeys {
		keys = append(keys, ProfileKey(k))
	}
	Invalidate(ctx, rdb, keys...)
}
