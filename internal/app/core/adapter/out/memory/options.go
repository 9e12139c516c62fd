package memory

import (
	"time"

	"github.com/google/uuid"
)

type options struct {
	now    func() time.Time
	newKey func() string
}

// Option 儲存層共用選項
type Option func(*options)

// WithClock 替換時間來源
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithKeyGenerator 替換別名 key 與 Webhook id 的產生方式
func WithKeyGenerator(fn func() string) Option {
	return func(o *options) {
		o.newKey = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		newKey: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
