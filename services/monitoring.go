package services

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	log "github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "reelworth_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// Provider Metrics
var (
	providerRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total requests issued to external providers",
		},
		[]string{"provider", "endpoint", "status"},
	)

	providerRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "External provider request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "endpoint"},
	)

	quotaRefusalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_refusals_total",
			Help: "Calls refused locally because a daily quota was spent",
		},
		[]string{"provider", "endpoint"},
	)

	searchRequestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Aggregated search requests served",
		},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	heapSysBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_sys_bytes",
			Help: "Heap memory obtained from system in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)

	portStr := os.Getenv("PROMETHEUS_PORT")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	// Create new registry
	reg := prometheus.NewRegistry()

	// Register default collectors (includes Go runtime metrics like memory)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Register custom metrics
	reg.MustRegister(
		providerRequestsTotal,
		providerRequestDurationSeconds,
		quotaRefusalsTotal,
		searchRequestsTotal,
		heapAllocBytes,
		heapSysBytes,
		gcTotal,
	)

	svc.register = reg

	// Start memory metrics updater
	go svc.updateMemoryMetrics()

	config := fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	log.WithField("port", svc.port).Info("Prometheus metrics server started")
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
	return nil
}

func (svc *MonitoringService) Shutdown() {
	svc.closed <- struct{}{}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

// ==================== RECORDING ====================

// ObserveProviderCall records one upstream call's outcome and latency.
func (svc *MonitoringService) ObserveProviderCall(provider, endpoint, status string, duration time.Duration) {
	providerRequestsTotal.WithLabelValues(provider, endpoint, status).Inc()
	providerRequestDurationSeconds.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

// ObserveQuotaRefusal counts a call stopped by the local daily quota.
func (svc *MonitoringService) ObserveQuotaRefusal(provider, endpoint string) {
	quotaRefusalsTotal.WithLabelValues(provider, endpoint).Inc()
}

// ObserveSearch counts one aggregated search.
func (svc *MonitoringService) ObserveSearch() {
	searchRequestsTotal.Inc()
}

// ==================== SERVER ====================

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// updateMemoryMetrics updates memory-related metrics every 15 seconds
func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))
			heapSysBytes.Set(float64(m.Sys))

			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}
		case <-svc.closed:
			return
		}
	}
}
