package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	conf.SetConfigBytes(raw)

	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func (c CoreConfig) LoadCustomConfig(cfg any) error {
	if len(c.bytes) == 0 {
		return nil
	}
	if err := toml.Unmarshal(c.bytes, cfg); err != nil {
		return err
	}
	return nil
}

type CustomConfig[T any] struct {
	CustomConfig T `toml:"custom_config"`
}

func NewCustomConfigPayload[T any]() CustomConfig[T] {
	return CustomConfig[T]{}
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr     string   `toml:"addr"`
	Log      Log      `toml:"log"`
	Postgres PGConfig `toml:"postgres"`

	Security   Security         `toml:"security"`
	Invitation InvitationConfig `toml:"invitation"`

	bytes []byte `toml:"-"`
}

func (c *CoreConfig) SetConfigBytes(raw []byte) {
	c.bytes = raw
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("NOTEVAULT_API_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Security.FromENV()
	c.Invitation.FromENV()
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("NOTEVAULT_API_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

// Security jwt 密钥为 PEM 内容，toml 多行字符串直接写入
type Security struct {
	JWTPublicKey  string `toml:"jwt_public_key"`
	JWTPrivateKey string `toml:"jwt_private_key"`
}

func (s *Security) FromENV() {
	s.JWTPublicKey = os.Getenv("NOTEVAULT_JWT_PUBLIC_KEY")
	s.JWTPrivateKey = os.Getenv("NOTEVAULT_JWT_PRIVATE_KEY")
}

const DEFAULT_INVITATION_TTL_DAYS = 30

type InvitationConfig struct {
	TTLDays int `toml:"ttl_days"`
}

func (c *InvitationConfig) FromENV() {
	if v := os.Getenv("NOTEVAULT_INVITATION_TTL_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.TTLDays = days
		}
	}
}

// TTL 邀请有效期，未配置时 30 天
func (c InvitationConfig) TTL() time.Duration {
	days := c.TTLDays
	if days <= 0 {
		days = DEFAULT_INVITATION_TTL_DAYS
	}
	return time.Hour * 24 * time.Duration(days)
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("NOTEVAULT_API_LOG_LEVEL")
	l.Path = os.Getenv("NOTEVAULT_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
