package config

// Config 配置主体
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Logstash LogstashConfig `mapstructure:"logstash"`
	XAPI     XAPIConfig     `mapstructure:"xapi"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig 原始抓取报文归档配置，enable 为 false 时不归档
type MinIOConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	PostIndex string `mapstructure:"post_index"`
}

// KafkaConfig 同步结果事件生产者配置，topic 为空时不启用
type KafkaConfig struct {
	Brokers []string        `mapstructure:"brokers"`
	Topic   string          `mapstructure:"topic"`
	Sasl    KafkaSaslConfig `mapstructure:"sasl"`
}

type KafkaSaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// XAPIConfig 外部社交平台 API 配置
type XAPIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Token    string `mapstructure:"token"`
	PageSize int    `mapstructure:"page_size"`
}

// SyncConfig 同步引擎与配额参数，零值字段使用内置默认值
type SyncConfig struct {
	IntervalMinutes   int `mapstructure:"interval_minutes"`
	WindowRequests    int `mapstructure:"window_requests"`
	WindowMinutes     int `mapstructure:"window_minutes"`
	MonthlyRequests   int `mapstructure:"monthly_requests"`
	MonthlyItems      int `mapstructure:"monthly_items"`
	MinSpacingMs      int `mapstructure:"min_spacing_ms"`
	CooldownMinutes   int `mapstructure:"cooldown_minutes"`
	RefreshWindowDays int `mapstructure:"refresh_window_days"`
}

// AdminConfig 管理账号，密码以 bcrypt 哈希形式给出
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}
