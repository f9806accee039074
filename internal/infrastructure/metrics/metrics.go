// Package metrics 定义实时消息核心的 Prometheus 指标
// 所有方法对 nil 接收者安全，未开启指标时传 nil 即可
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 指标集合
type Metrics struct {
	activeSessions prometheus.Gauge
	sessionTotal   prometheus.Counter
	sends          *prometheus.CounterVec
	fanout         *prometheus.CounterVec
	dropped        prometheus.Counter
	connectionOps  *prometheus.CounterVec
	sendLatency    prometheus.Histogram
}

// New 创建并注册指标，reg 为空时使用默认注册表
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campus_chat_sessions_active",
			Help: "Current number of live real-time sessions.",
		}),
		sessionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campus_chat_sessions_total",
			Help: "Total sessions registered since start.",
		}),
		sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_chat_sends_total",
			Help: "Message sends grouped by result kind.",
		}, []string{"result"}),
		fanout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_chat_fanout_events_total",
			Help: "Events pushed to live sessions grouped by event name.",
		}, []string{"event"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campus_chat_fanout_dropped_total",
			Help: "Events dropped because a session send buffer was full.",
		}),
		connectionOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_chat_connection_ops_total",
			Help: "Connection graph operations grouped by op and result.",
		}, []string{"op", "result"}),
		sendLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_chat_send_latency_seconds",
			Help:    "Latency of MessageRouter.Send.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}

	reg.MustRegister(
		m.activeSessions,
		m.sessionTotal,
		m.sends,
		m.fanout,
		m.dropped,
		m.connectionOps,
		m.sendLatency,
	)
	return m
}

func (m *Metrics) IncSession() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.sessionTotal.Inc()
}

func (m *Metrics) DecSession() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

// RecordSend result 为空表示成功
func (m *Metrics) RecordSend(result string, dur time.Duration) {
	if m == nil {
		return
	}
	if result == "" {
		result = "ok"
	}
	m.sends.WithLabelValues(result).Inc()
	m.sendLatency.Observe(dur.Seconds())
}

func (m *Metrics) RecordFanout(event string) {
	if m == nil {
		return
	}
	m.fanout.WithLabelValues(event).Inc()
}

func (m *Metrics) RecordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) RecordConnectionOp(op, result string) {
	if m == nil {
		return
	}
	if result == "" {
		result = "ok"
	}
	m.connectionOps.WithLabelValues(op, result).Inc()
}
