package server

import (
	"wheel/internal/conf"
	"wheel/internal/service"

	"github.com/go-chi/cors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/metrics"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 与原抽奖服务端口一致
const defaultHTTPAddr = "0.0.0.0:1314"

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, wheel *service.WheelService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
			metrics.Server(),
		),
		http.Filter(corsFilter(c)),
		http.Address(defaultHTTPAddr),
	}
	if hc := httpConf(c); hc != nil {
		if hc.Network != "" {
			opts = append(opts, http.Network(hc.Network))
		}
		if hc.Addr != "" {
			opts = append(opts, http.Address(hc.Addr))
		}
		if hc.Timeout > 0 {
			opts = append(opts, http.Timeout(hc.Timeout.AsDuration()))
		}
	}
	srv := http.NewServer(opts...)
	service.RegisterWheelServiceHTTPServer(srv, wheel)

	// 注册 Prometheus /metrics 端点
	srv.Handle("/metrics", promhttp.Handler())

	return srv
}

func httpConf(c *conf.Server) *conf.Server_HTTP {
	if c == nil {
		return nil
	}
	return c.Http
}

// corsFilter 浏览器页面直接调用 /api/*
func corsFilter(c *conf.Server) http.FilterFunc {
	origins := []string{"*"}
	if hc := httpConf(c); hc != nil && len(hc.CorsOrigins) > 0 {
		origins = hc.CorsOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           60 * 15,
	})
}
