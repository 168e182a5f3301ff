package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/notevault/notevault/pkg/metrics"
)

type Metrics struct {
	apiResponseTime         *prometheus.HistogramVec
	apiErrorCounter         *prometheus.CounterVec
	invitationAcceptCounter *prometheus.CounterVec
	roleCascadeCounter      *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:         metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:         metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		invitationAcceptCounter: metrics.NewCounterVec("invitation_accept", []string{"reason"}),
		roleCascadeCounter:      metrics.NewCounterVec("role_cascade_downgrade", []string{"kind"}),
	}

	return m
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) InvitationAcceptInc(reason string) {
	m.invitationAcceptCounter.WithLabelValues(reason).Inc()
}

func (m *Metrics) RoleCascadeAdd(kind string, n int64) {
	m.roleCascadeCounter.WithLabelValues(kind).Add(float64(n))
}
