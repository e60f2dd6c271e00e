package postgrest

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingRoundTripper logs every outbound call with its status and duration.
type loggingRoundTripper struct {
	inner  http.RoundTripper
	logger *zap.Logger
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {

	start := time.Now()

	resp, err := l.inner.RoundTrip(req)
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("query", req.URL.RawQuery),
		zap.String("range", req.Header.Get("Range")),
		zap.Duration("duration", time.Since(start)),
	}

	if err != nil {
		l.logger.Warn("postgrest request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	l.logger.Debug("postgrest request", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
