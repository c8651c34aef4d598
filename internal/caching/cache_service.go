package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"stockplan/internal/models"
)

type CacheService interface {
	// Valuation caching
	GetValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error)
	SetValuation(ctx context.Context, tenantID uuid.UUID, valuation *models.MaterialValuation, ttl time.Duration) error
	DeleteValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error

	// Planning run locks: at most one concurrent run per
	// (tenant, material, horizon).
	AcquireRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int) error

	// Cache invalidation
	InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error

	// Connectivity probe for health checks
	Ping(ctx context.Context) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func valuationKey(tenantID, materialID uuid.UUID, method models.ValuationMethod) string {
	return fmt.Sprintf("stockplan:valuation:%s:%s:%s", tenantID.String(), materialID.String(), method)
}

func runLockKey(tenantID, materialID uuid.UUID, horizonDays int) string {
	return fmt.Sprintf("stockplan:mrp-lock:%s:%s:%d", tenantID.String(), materialID.String(), horizonDays)
}

func (r *redisCacheService) GetValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) (*models.MaterialValuation, error) {
	data, err := r.client.Get(ctx, valuationKey(tenantID, materialID, method)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var valuation models.MaterialValuation
	if err := json.Unmarshal(data, &valuation); err != nil {
		return nil, err
	}
	return &valuation, nil
}

func (r *redisCacheService) SetValuation(ctx context.Context, tenantID uuid.UUID, valuation *models.MaterialValuation, ttl time.Duration) error {
	data, err := json.Marshal(valuation)
	if err != nil {
		return err
	}
	key := valuationKey(tenantID, valuation.MaterialID, valuation.Method)
	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisCacheService) DeleteValuation(ctx context.Context, tenantID, materialID uuid.UUID, method models.ValuationMethod) error {
	return r.client.Del(ctx, valuationKey(tenantID, materialID, method)).Err()
}

// AcquireRunLock takes the per-(tenant, material, horizon) planning lock.
// The TTL bounds lock lifetime if a run dies without releasing.
func (r *redisCacheService) AcquireRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, runLockKey(tenantID, materialID, horizonDays), time.Now().UnixNano(), ttl).Result()
}

func (r *redisCacheService) ReleaseRunLock(ctx context.Context, tenantID, materialID uuid.UUID, horizonDays int) error {
	return r.client.Del(ctx, runLockKey(tenantID, materialID, horizonDays)).Err()
}

func (r *redisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisCacheService) InvalidateTenantCache(ctx context.Context, tenantID uuid.UUID) error {
	pattern := fmt.Sprintf("stockplan:valuation:%s:*", tenantID.String())
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Failed to delete cache key %s: %v", iter.Val(), err)
		}
	}
	return iter.Err()
}
