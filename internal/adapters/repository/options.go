package repository

import (
	"github.com/google/uuid"

	"github.com/okian/kartcup/pkg/logger"
)

// Option configures a store.
type Option func(*options)

type options struct {
	newID func() string
	log   logger.Logger
}

func defaultOptions() options {
	return options{newID: uuid.NewString}
}

// WithIDGenerator replaces uuid generation, mostly for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}
