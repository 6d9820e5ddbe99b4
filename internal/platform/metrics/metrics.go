package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests 依路由、方法與狀態碼統計請求數
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cipher_canvas",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	// HTTPDuration 請求延遲
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cipher_canvas",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	// Interactions 按讚、取消讚、解鎖與建立訊息的次數
	Interactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cipher_canvas",
			Name:      "message_interactions_total",
			Help:      "Message interactions by kind.",
		},
		[]string{"kind"},
	)

	// GalleryCache 畫廊快取命中與未命中
	GalleryCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cipher_canvas",
			Name:      "gallery_cache_total",
			Help:      "Gallery cache lookups by result.",
		},
		[]string{"result"},
	)
)

// 互動類型標籤
const (
	InteractionCreate = "create"
	InteractionLike   = "like"
	InteractionUnlike = "unlike"
	InteractionUnlock = "unlock"
)

func init() {
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(HTTPDuration)
	prometheus.MustRegister(Interactions)
	prometheus.MustRegister(GalleryCache)
}
