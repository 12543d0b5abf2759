package middleware

import (
	"github.com/example/ride-dispatch/pkg/logger"
)

type Middleware struct {
	secret string
	log    logger.Logger
}

// NewMiddleware builds the shared middleware stack. secret verifies
// bearer tokens issued by the auth subsystem; this service never
// issues tokens itself.
func NewMiddleware(secret string, log logger.Logger) *Middleware {
	return &Middleware{
		secret: secret,
		log:    log,
	}
}
