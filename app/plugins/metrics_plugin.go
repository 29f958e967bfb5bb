package plugins

import (
	"net/http"

	"github.com/liweiming-nova/fundsync/httpx/server"
	"github.com/liweiming-nova/fundsync/xmetrics"
)

// MetricsPlugin 在 rest.server.<name> 配置的地址上暴露 /metrics，
// 供外部采集端拉取锁、幂等、重试相关指标
type MetricsPlugin struct {
	name string
}

func NewMetricsPlugin(names ...string) *MetricsPlugin {
	name := "metrics"
	if len(names) > 0 {
		name = names[0]
	}
	return &MetricsPlugin{name: name}
}

func (p *MetricsPlugin) Start(ctx *PluginContext) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", xmetrics.Handler())
	return server.StartServe(p.name, mux)
}

func (p *MetricsPlugin) BeforeStart(ctx *PluginContext) error {
	return nil
}

func (p *MetricsPlugin) Stop() error {
	return server.StopServe(p.name)
}
