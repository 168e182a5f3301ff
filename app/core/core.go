package core

import (
	"io"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/notevault/notevault/app/core/srv"
	"github.com/notevault/notevault/app/store"
	"github.com/notevault/notevault/app/store/sqlstore"
	"github.com/notevault/notevault/pkg/types"
)

type Core struct {
	cfg CoreConfig
	srv *srv.Srv

	stores     store.Provider
	httpEngine *gin.Engine

	metrics *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28,   //days
				Compress:   true, // disabled by default
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	getProvider := sqlstore.MustSetup(cfg.Postgres)
	// 执行数据库表初始化
	if err := getProvider().Install(); err != nil {
		panic(err)
	}

	return New(cfg, getProvider())
}

// New 以给定的存储实现组装 Core，测试可注入内存实现
func New(cfg CoreConfig, provider store.Provider) *Core {
	return &Core{
		cfg:        cfg,
		stores:     provider,
		httpEngine: gin.New(),
		metrics:    NewMetrics("notevault", "core"),
		srv:        srv.SetupSrvs(),
	}
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() store.Provider {
	return s.stores
}

func (s *Core) Srv() *srv.Srv {
	return s.srv
}

func (s *Core) DefaultAppid() string {
	return types.DEFAULT_APPID
}
