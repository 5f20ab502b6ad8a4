package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	AI         AIConfig         `mapstructure:"ai"`
	Ark        ArkConfig        `mapstructure:"ark"`
	Generation GenerationConfig `mapstructure:"generation"`
	Log        LogConfig        `mapstructure:"log"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"` // 允许跨域的前端地址，包含 * 时允许全部
}

// AIConfig 文本大模型配置（剧本分析、语言识别、提示词改写）
type AIConfig struct {
	Provider string          `mapstructure:"provider"` // openai, azure, ark
	APIKey   string          `mapstructure:"api_key"`
	Model    string          `mapstructure:"model"`
	BaseURL  string          `mapstructure:"base_url"`
	Options  AIOptionsConfig `mapstructure:"options"`
}

// AIOptionsConfig AI 模型参数
type AIOptionsConfig struct {
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	TopP        float64 `mapstructure:"top_p"`
}

// ArkConfig 火山引擎 Ark 配置（图片生成与图片理解）
type ArkConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	ImageModel  string `mapstructure:"image_model"`
	VisionModel string `mapstructure:"vision_model"`
	ImageSize   string `mapstructure:"image_size"`
}

// GenerationConfig 顺序生成配置
type GenerationConfig struct {
	PacingDelay     time.Duration `mapstructure:"pacing_delay"`     // 相邻两次调用的间隔
	CallTimeout     time.Duration `mapstructure:"call_timeout"`     // 单次调用超时，0 表示不限制
	ThumbnailCount  int           `mapstructure:"thumbnail_count"`  // 每次生成的缩略图数量
	MaxAttempts     int           `mapstructure:"max_attempts"`     // 单张图片的最大尝试次数
	DefaultLanguage string        `mapstructure:"default_language"` // 剧本过短无法识别时使用的语言
	ContextImageID  string        `mapstructure:"context_image_id"` // 背景图的固定ID
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 项目快照缓存时间
	LockTTL  time.Duration `mapstructure:"lock_ttl"`  // 批次锁的最长持有时间
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
	PresignExpiry   int    `mapstructure:"presign_expiry"`    // 预签名URL过期时间（秒）
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.Generation.PacingDelay < 0 {
		return errors.New("invalid generation.pacing_delay, must be >= 0")
	}
	if c.Generation.CallTimeout < 0 {
		return errors.New("invalid generation.call_timeout, must be >= 0")
	}
	if c.Generation.ThumbnailCount <= 0 {
		return errors.New("invalid generation.thumbnail_count, must be > 0")
	}
	if c.Generation.MaxAttempts <= 0 {
		return errors.New("invalid generation.max_attempts, must be > 0")
	}

	return nil
}
