// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/pricing.yaml"

type Config struct {
	App     AppConfig     `yaml:"app"`
	Infra   InfraConfig   `yaml:"infra"`
	Pricing PricingConfig `yaml:"pricing"`
}

type AppConfig struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

type InfraConfig struct {
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type JaegerConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// DatabaseConfig 支持 mysql、postgres、sqlite 三种驱动。
// mysql 可以只填写 Host/User 等字段，DSN 由驱动库拼装。
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	PriceTopic string   `yaml:"price_topic"`
}

type ZookeeperConfig struct {
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	LockTimeout    time.Duration `yaml:"lock_timeout"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"server_addrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
}

type PricingConfig struct {
	CatalogBackend  string            `yaml:"catalog_backend"`
	HistoryBackend  string            `yaml:"history_backend"`
	CustomerBackend string            `yaml:"customer_backend"`
	Locker          string            `yaml:"locker"`
	CacheTTL        time.Duration     `yaml:"cache_ttl"`
	TimeScale       float64           `yaml:"time_scale"`
	WeatherRule     string            `yaml:"weather_rule"`
	HistoryLimit    int               `yaml:"history_limit"`
	HistoryLimitMax int               `yaml:"history_limit_max"`
	Defaults        ContextDefaults   `yaml:"defaults"`
	Oracle          OracleConfig      `yaml:"oracle"`
	SeedProducts    []SeedProduct     `yaml:"seed_products"`
	SeedCustomers   map[string]string `yaml:"seed_customers"`
}

// ContextDefaults 是请求未提供信号时的取值。
type ContextDefaults struct {
	DemandElasticity      float64 `yaml:"demand_elasticity"`
	HistoricalPerformance float64 `yaml:"historical_performance"`
	UserSegment           string  `yaml:"user_segment"`
	HistoryWindow         int     `yaml:"history_window"`
}

type OracleConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// SeedProduct 中的价格使用字符串，避免 YAML 浮点精度问题。
type SeedProduct struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	BasePrice    string `yaml:"base_price"`
	CurrentPrice string `yaml:"current_price"`
	PriceFloor   string `yaml:"price_floor"`
	PriceCeiling string `yaml:"price_ceiling"`
	Inventory    int64  `yaml:"inventory"`
	MaxInventory int64  `yaml:"max_inventory"`
	DemandLevel  string `yaml:"demand_level"`
	Category     string `yaml:"category"`
}

var (
	currentConfig *Config
	configMu      sync.RWMutex
)

// Init 从 CONFIG_PATH 加载配置并设为全局配置，失败时退出进程。
func Init() {
	cfg, err := Load(getEnv("CONFIG_PATH", defaultConfigPath))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	SetCurrentConfig(cfg)
}

func GetCurrentConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return currentConfig
}

func SetCurrentConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	currentConfig = cfg
}

// Load 读取 YAML 文件（不存在时只用默认值），再叠加环境变量覆盖并校验。
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parse config %s", path)
		}
	case os.IsNotExist(err):
		log.Warn().Str("path", path).Msg("config file not found, using defaults")
	default:
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 返回可在本机直接运行的配置：内存存储，不依赖外部组件。
func Default() *Config {
	return &Config{
		App: AppConfig{Name: "pricing-service", Port: 8084, Env: "development"},
		Infra: InfraConfig{
			Database:  DatabaseConfig{Driver: "sqlite", DSN: "file:pricing.db?cache=shared"},
			Redis:     RedisConfig{Addrs: []string{"localhost:6379"}},
			Kafka:     KafkaConfig{PriceTopic: "price-changes"},
			Zookeeper: ZookeeperConfig{SessionTimeout: 5 * time.Second, LockTimeout: 30 * time.Second},
			Nacos:     NacosConfig{ServerAddrs: "localhost:8848", Group: "DEFAULT_GROUP"},
		},
		Pricing: PricingConfig{
			CatalogBackend:  "memory",
			HistoryBackend:  "memory",
			CustomerBackend: "memory",
			Locker:          "local",
			CacheTTL:        30 * time.Second,
			TimeScale:       1.0,
			HistoryLimit:    100,
			HistoryLimitMax: 1000,
			Defaults: ContextDefaults{
				DemandElasticity:      0.5,
				HistoricalPerformance: 0.7,
				UserSegment:           "returning_customer",
				HistoryWindow:         10,
			},
			Oracle: OracleConfig{Timeout: 2 * time.Second},
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Port = getEnvInt("APP_PORT", cfg.App.Port)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)
	cfg.Infra.Database.Driver = getEnv("DB_DRIVER", cfg.Infra.Database.Driver)
	cfg.Infra.Database.DSN = getEnv("DB_DSN", cfg.Infra.Database.DSN)
	cfg.Infra.Redis.Addrs = getEnvList("REDIS_ADDRS", cfg.Infra.Redis.Addrs)
	cfg.Infra.Kafka.Brokers = getEnvList("KAFKA_BROKERS", cfg.Infra.Kafka.Brokers)
	cfg.Infra.Zookeeper.Servers = getEnvList("ZOOKEEPER_SERVERS", cfg.Infra.Zookeeper.Servers)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
	cfg.Pricing.CatalogBackend = getEnv("PRICING_CATALOG_BACKEND", cfg.Pricing.CatalogBackend)
	cfg.Pricing.HistoryBackend = getEnv("PRICING_HISTORY_BACKEND", cfg.Pricing.HistoryBackend)
	cfg.Pricing.CustomerBackend = getEnv("PRICING_CUSTOMER_BACKEND", cfg.Pricing.CustomerBackend)
	cfg.Pricing.Oracle.URL = getEnv("PRICING_ORACLE_URL", cfg.Pricing.Oracle.URL)
}

// Validate 校验后端选择和数值范围。
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return errors.Errorf("app.port %d out of range", c.App.Port)
	}
	if !oneOf(c.Pricing.CatalogBackend, "memory", "gorm") {
		return errors.Errorf("pricing.catalog_backend %q must be memory or gorm", c.Pricing.CatalogBackend)
	}
	if !oneOf(c.Pricing.HistoryBackend, "memory", "gorm", "redis") {
		return errors.Errorf("pricing.history_backend %q must be memory, gorm or redis", c.Pricing.HistoryBackend)
	}
	if !oneOf(c.Pricing.CustomerBackend, "memory", "gorm") {
		return errors.Errorf("pricing.customer_backend %q must be memory or gorm", c.Pricing.CustomerBackend)
	}
	if !oneOf(c.Pricing.Locker, "local", "zookeeper") {
		return errors.Errorf("pricing.locker %q must be local or zookeeper", c.Pricing.Locker)
	}
	if c.Pricing.Locker == "zookeeper" && len(c.Infra.Zookeeper.Servers) == 0 {
		return errors.New("pricing.locker=zookeeper requires infra.zookeeper.servers")
	}
	if c.usesDatabase() && !oneOf(c.Infra.Database.Driver, "mysql", "postgres", "sqlite") {
		return errors.Errorf("infra.database.driver %q must be mysql, postgres or sqlite", c.Infra.Database.Driver)
	}
	if c.Pricing.TimeScale < 0 {
		return errors.Errorf("pricing.time_scale %v must not be negative", c.Pricing.TimeScale)
	}
	if c.Pricing.HistoryLimit <= 0 || c.Pricing.HistoryLimitMax < c.Pricing.HistoryLimit {
		return errors.Errorf("pricing.history_limit %d must be positive and <= history_limit_max %d",
			c.Pricing.HistoryLimit, c.Pricing.HistoryLimitMax)
	}
	d := c.Pricing.Defaults
	if d.DemandElasticity < 0 || d.DemandElasticity > 1 {
		return errors.Errorf("pricing.defaults.demand_elasticity %v out of range [0,1]", d.DemandElasticity)
	}
	if d.HistoricalPerformance < 0 || d.HistoricalPerformance > 1 {
		return errors.Errorf("pricing.defaults.historical_performance %v out of range [0,1]", d.HistoricalPerformance)
	}
	if d.HistoryWindow <= 0 {
		return errors.Errorf("pricing.defaults.history_window %d must be positive", d.HistoryWindow)
	}
	return nil
}

func (c *Config) usesDatabase() bool {
	p := c.Pricing
	return p.CatalogBackend == "gorm" || p.HistoryBackend == "gorm" || p.CustomerBackend == "gorm"
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// getEnv 从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("ignoring non-integer env override")
	}
	return fallback
}

// getEnvList 读取逗号分隔的列表。
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
