package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	JWT      *JWTMiddleware
	Perm     *PermMiddleware
	Internal *InternalMiddleware
	Logging  *LoggingMiddleware
	Metrics  *MetricsMiddleware
}

// NewMiddlewareCollection creates a new collection of all middleware
func NewMiddlewareCollection(
	jwtSecret string,
	internalTokenHash string,
	logger *logrus.Logger,
	requestsTotal *prometheus.CounterVec,
	requestDuration *prometheus.HistogramVec,
) *MiddlewareCollection {
	return &MiddlewareCollection{
		JWT:      NewJWTMiddleware(jwtSecret, logger),
		Perm:     NewPermMiddleware(),
		Internal: NewInternalMiddleware(internalTokenHash, logger),
		Logging:  NewLoggingMiddleware(logger),
		Metrics:  NewMetricsMiddleware(requestsTotal, requestDuration),
	}
}
