package plugins

import (
	"path/filepath"

	"github.com/liweiming-nova/fundsync/config"
	"github.com/liweiming-nova/fundsync/config/options"
	"github.com/liweiming-nova/fundsync/config/parser"
)

type ConfigPlugin struct {
	file string
	data interface{}
}

func NewConfigPlugin(file string, data interface{}) *ConfigPlugin {
	return &ConfigPlugin{file: file, data: data}
}

func (plugin *ConfigPlugin) Name() (r string) {
	return "config"
}

func (plugin *ConfigPlugin) Start(ctx *PluginContext) (err error) {
	config.NewConfig(plugin.newParser(),
		options.WithCfgSource(plugin.file),
		options.WithOpOnErrorFn(func(e error) { err = e }))
	return
}

// newParser 按扩展名选择解析器，toml 走 BurntSushi，其余交给 viper
func (plugin *ConfigPlugin) newParser() parser.Parser {
	switch filepath.Ext(plugin.file) {
	case ".toml":
		return parser.NewTomlParser()
	default:
		return parser.NewViperParser()
	}
}

func (plugin *ConfigPlugin) Stop() (err error) {
	return
}

func (plugin *ConfigPlugin) BeforeStart(ctx *PluginContext) error {
	return nil
}
