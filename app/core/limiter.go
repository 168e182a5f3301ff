package core

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type LimitConfig struct {
	Limit int
	Every time.Duration
}

type LimitOption func(l *LimitConfig)

func WithLimit(limit int) LimitOption {
	return func(l *LimitConfig) {
		l.Limit = limit
	}
}

func WithRange(r time.Duration) LimitOption {
	return func(l *LimitConfig) {
		l.Every = r
	}
}

type Limiter interface {
	Allow() bool
}

var (
	limiterMu sync.Mutex
	limiters  = make(map[string]*rate.Limiter)
)

// UseLimiter 按 key 维护令牌桶，默认每分钟 60 次
func (s *Core) UseLimiter(c *gin.Context, key string, method string, opts ...LimitOption) Limiter {
	cfg := &LimitConfig{
		Limit: 60,
		Every: time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiterMu.Lock()
	defer limiterMu.Unlock()

	l, exist := limiters[key]
	if !exist {
		limit := rate.Every(cfg.Every / time.Duration(cfg.Limit))
		limiters[key] = rate.NewLimiter(limit, cfg.Limit*2)
		l = limiters[key]
	}

	return l
}
