package orm

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// APICache stores cached API responses
type APICache struct {
	Key       string `gorm:"primaryKey"`
	Value     []byte // Raw JSON
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index"`
}

// GetCacheEntry retrieves a valid cache entry
func GetCacheEntry(db *gorm.DB, key string) (*APICache, error) {
	var entry APICache
	err := db.Where("key = ? AND expires_at > ?", key, time.Now()).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetCacheEntry upserts a cache entry
func SetCacheEntry(db *gorm.DB, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	entry := APICache{
		Key:       key,
		Value:     value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return db.Save(&entry).Error
}

// CleanupCache removes expired entries
func CleanupCache(db *gorm.DB) error {
	return db.Where("expires_at < ?", time.Now()).Delete(&APICache{}).Error
}

// CacheStore adapts the api_caches table to the provider cache interface.
type CacheStore struct {
	db *gorm.DB
}

func NewCacheStore(db *gorm.DB) *CacheStore {
	return &CacheStore{db: db}
}

func (c *CacheStore) Get(ctx context.Context, key string) ([]byte, bool) {
	entry, err := GetCacheEntry(c.db.WithContext(ctx), key)
	if err != nil {
		return nil, false
	}
	return entry.Value, true
}

func (c *CacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return SetCacheEntry(c.db.WithContext(ctx), key, value, ttl)
}

// Cleanup drops expired rows.
func (c *CacheStore) Cleanup(ctx context.Context) error {
	return CleanupCache(c.db.WithContext(ctx))
}
