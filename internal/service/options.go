package service

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	now         func() time.Time
	locker      Locker
	trendWindow int
}

// Option configures a service.
type Option func(*options)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLocker sets the per-user serializer used around check-then-act
// sequences. Services built by New share one.
func WithLocker(l Locker) Option {
	return func(o *options) { o.locker = l }
}

// WithTrendWindow sets how many previous days the score trend averages
// over when no trend_window_days setting is stored.
func WithTrendWindow(days int) Option {
	return func(o *options) { o.trendWindow = days }
}

// core is embedded by every service.
type core struct {
	now         func() time.Time
	locker      Locker
	log         *zap.Logger
	trendWindow int
}

func newCore(log *zap.Logger, opts []Option) core {
	o := options{now: time.Now, trendWindow: DefaultTrendWindow}
	for _, opt := range opts {
		opt(&o)
	}
	if o.locker == nil {
		o.locker = NewUserLocker()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return core{now: o.now, locker: o.locker, log: log, trendWindow: o.trendWindow}
}

func (c core) clock() time.Time { return c.now().UTC() }

// rejected logs an operation refused by a domain rule and returns err.
func (c core) rejected(op string, err error, fields ...zap.Field) error {
	c.log.Debug(op+" rejected", append(fields, zap.Error(err))...)
	return err
}
