package health

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// UserStoreChecker pings the credential database.
type UserStoreChecker struct {
	db *gorm.DB
}

func NewUserStoreChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return &UserStoreChecker{db: db}
}

func (c *UserStoreChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "user_store", Healthy: true}
	sqlDB, err := c.db.DB()
	if err != nil {
		res.Healthy = false
		res.Error = err.Error()
		return res
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}

// LockoutStoreChecker pings the Redis instance backing the lockout
// counter and re-authentication markers.
type LockoutStoreChecker struct {
	client redis.UniversalClient
}

func NewLockoutStoreChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return &LockoutStoreChecker{client: client}
}

func (c *LockoutStoreChecker) Check(ctx context.Context) CheckResult {
	res := CheckResult{Name: "lockout_store", Healthy: true}
	if err := c.client.Ping(ctx).Err(); err != nil {
		res.Healthy = false
		res.Error = err.Error()
	}
	return res
}
