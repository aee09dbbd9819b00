// Package config 提供定价引擎的配置加载、校验与热更新能力.
// 配置文件为 TOML，环境变量前缀为 OPTPRICING（例如 OPTPRICING_PRICING_PRECISION）。
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/wyfcoding/optionpricing/logging"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// EnvPrefix 环境变量覆盖前缀。
const EnvPrefix = "OPTPRICING"

// Config 顶级配置结构.
type Config struct {
	Version string        `mapstructure:"version" toml:"version"`
	Log     LogConfig     `mapstructure:"log"     toml:"log"`
	Pricing PricingConfig `mapstructure:"pricing" toml:"pricing"`
	Chain   ChainConfig   `mapstructure:"chain"   toml:"chain"`
	Metrics MetricsConfig `mapstructure:"metrics" toml:"metrics"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"        toml:"file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"    validate:"gte=0"` // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups" validate:"gte=0"`
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"     validate:"gte=0"` // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
	Stdout     bool   `mapstructure:"stdout"      toml:"stdout"`
}

// PricingConfig 隐含波动率求解器参数。
type PricingConfig struct {
	Precision float64 `mapstructure:"precision" toml:"precision" validate:"gt=0,lt=1"`
	MaxSteps  int     `mapstructure:"max_steps" toml:"max_steps" validate:"gte=1,lte=10000"`
}

// ChainConfig 期权链并发定价参数，Workers 为 0 时使用 GOMAXPROCS。
type ChainConfig struct {
	Workers int `mapstructure:"workers" toml:"workers" validate:"gte=0,lte=1024"`
}

// MetricsConfig 指标配置。
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"   toml:"enabled"`
	Namespace string `mapstructure:"namespace" toml:"namespace" validate:"omitempty,alphanum"`
}

// LoggingConfig 转换为 logging 包的配置。
func (c LogConfig) LoggingConfig(service string) logging.Config {
	return logging.Config{
		Service:    service,
		Module:     "optionpricing",
		Level:      c.Level,
		File:       c.File,
		MaxSize:    c.MaxSize,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAge,
		Compress:   c.Compress,
		Stdout:     c.Stdout,
	}
}

// Default 返回内置默认值，与引擎默认行为一致。
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Pricing: PricingConfig{Precision: 1e-5, MaxSteps: 100},
		Metrics: MetricsConfig{Namespace: "optionpricing"},
	}
}

// Loader 持有独立的 viper 实例，多个 Loader 之间互不影响。
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
	logger   *slog.Logger

	mu       sync.Mutex
	current  *Config
	onReload []func(*Config)
	debounce time.Duration
}

// NewLoader 创建配置加载器，logger 为 nil 时丢弃日志。
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = logging.Discard()
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("pricing.precision", def.Pricing.Precision)
	v.SetDefault("pricing.max_steps", def.Pricing.MaxSteps)
	v.SetDefault("chain.workers", def.Chain.Workers)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.namespace", def.Metrics.Namespace)

	return &Loader{
		v:        v,
		validate: validator.New(),
		logger:   logger,
		debounce: 200 * time.Millisecond,
	}
}

// RegisterReloadHook 注册配置热更新回调，只有校验通过的新配置才会被分发。
func (l *Loader) RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onReload = append(l.onReload, hook)
}

// Load 读取、反序列化并校验配置文件。
func (l *Loader) Load(path string) (*Config, error) {
	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	conf, err := l.decode()
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.current = conf
	l.mu.Unlock()

	return conf, nil
}

// Current 返回最近一次成功加载的配置。
func (l *Loader) Current() *Config {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Watch 开启文件监听；变更后重新读取并校验，失败时保留旧配置。
func (l *Loader) Watch() {
	l.v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		l.logger.Info("detecting config change", "file", event.Name)
		time.Sleep(l.debounce)

		if err := l.v.ReadInConfig(); err != nil {
			l.logger.Error("reload config read failed", "error", err)
			return
		}
		conf, err := l.decode()
		if err != nil {
			l.logger.Error("reload config rejected", "error", err)
			return
		}

		l.mu.Lock()
		l.current = conf
		hooks := append([]func(*Config){}, l.onReload...)
		l.mu.Unlock()

		l.logger.Info("config hot-reloaded and validated successfully")
		for _, hook := range hooks {
			hook(conf)
		}
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	conf := &Config{}
	if err := l.v.Unmarshal(conf); err != nil {
		return nil, xerrors.ErrInvalidConfig.WithCause(err).
			WithDetail("unmarshal config error: %v", err).
			WithContext("file", l.v.ConfigFileUsed())
	}
	if err := l.validate.Struct(conf); err != nil {
		return nil, xerrors.ErrInvalidConfig.WithCause(err).
			WithDetail("config validation failed: %v", err).
			WithContext("file", l.v.ConfigFileUsed())
	}
	return conf, nil
}

// Viper 返回底层的 Viper 实例.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}
