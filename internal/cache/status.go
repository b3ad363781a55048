package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// order_status:{order_id} -> OrderStatus JSON
const keyOrderStatus = "order_status:%s"

const DefaultStatusTTL = 5 * time.Minute

type OrderStatus struct {
	OrderID         string    `json:"order_id"`
	MerchantOrderID string    `json:"merchant_order_id"`
	UserID          string    `json:"user_id"`
	Status          string    `json:"status"`
	PaymentStatus   string    `json:"payment_status"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func New(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
}

type StatusCache struct {
	RDB *redis.Client
	TTL time.Duration
}

func StatusKey(orderID string) string {
	return fmt.Sprintf(keyOrderStatus, orderID)
}

func (c *StatusCache) ttl() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return DefaultStatusTTL
}

func (c *StatusCache) SetStatus(ctx context.Context, s OrderStatus) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, StatusKey(s.OrderID), b, c.ttl()).Err()
}

// GetStatus reports found=false on a cache miss.
func (c *StatusCache) GetStatus(ctx context.Context, orderID string) (OrderStatus, bool, error) {
	var s OrderStatus
	b, err := c.RDB.Get(ctx, StatusKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, err
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, false, err
	}
	return s, true, nil
}

func (c *StatusCache) Ping(ctx context.Context) error {
	return c.RDB.Ping(ctx).Err()
}
