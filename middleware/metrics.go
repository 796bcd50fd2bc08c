// middleware/metrics.go
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the request and domain-event counters
type Metrics struct {
	SuccessfulRequests *prometheus.CounterVec
	BadRequests        *prometheus.CounterVec
	PostsCreated       prometheus.Counter
	FollowToggles      prometheus.Counter
	MessagesSent       prometheus.Counter
}

func InitMetrics() *Metrics {
	m := &Metrics{
		SuccessfulRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "successful_request",
				Help: "Total number of successful (2xx) HTTP requests",
			},
			[]string{"path"},
		),
		BadRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unsuccessful_request",
				Help: "Total number of unsuccessful (4xx/5xx) HTTP requests",
			},
			[]string{"path"},
		),
		PostsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "posts_created",
				Help: "Total number of posts created",
			},
		),
		FollowToggles: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "follow_toggles",
				Help: "Total number of follow/unfollow toggles",
			},
		),
		MessagesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "messages_sent",
				Help: "Total number of direct messages sent",
			},
		),
	}

	prometheus.MustRegister(m.SuccessfulRequests)
	prometheus.MustRegister(m.BadRequests)
	prometheus.MustRegister(m.PostsCreated)
	prometheus.MustRegister(m.FollowToggles)
	prometheus.MustRegister(m.MessagesSent)

	return m
}

// RequestCounter records each request's outcome by route path
func (m *Metrics) RequestCounter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			path := c.Path()
			status := c.Response().Status
			if status >= 200 && status < 400 {
				m.SuccessfulRequests.WithLabelValues(path).Inc()
			} else {
				m.BadRequests.WithLabelValues(path).Inc()
			}

			return err
		}
	}
}
