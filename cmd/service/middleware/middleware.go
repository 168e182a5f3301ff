package middleware

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/notevault/notevault/app/core"
	v1 "github.com/notevault/notevault/app/logic/v1"
	"github.com/notevault/notevault/app/response"
	"github.com/notevault/notevault/pkg/errors"
	"github.com/notevault/notevault/pkg/i18n"
	"github.com/notevault/notevault/pkg/security"
	"github.com/notevault/notevault/pkg/types"
	"github.com/notevault/notevault/pkg/utils"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		lang := ctx.Request.Header.Get("Accept-Language")
		if lang == "" {
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		res := utils.ParseAcceptLanguage(lang)
		if len(res) == 0 {
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		ctx.Set(v1.LANGUAGE_KEY, lo.If(strings.Contains(res[0].Tag, "zh"), types.LANGUAGE_CN_KEY).Else(types.LANGUAGE_EN_KEY))
	}
}

// Observe 记录接口耗时与非 2xx 响应计数
func Observe(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := appCore.Metrics().ApiResponseTimer(c.FullPath())
		c.Next()
		timer.ObserveDuration()

		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			appCore.Metrics().ApiErrorInc(c.Request.Method, c.FullPath(), status)
		}
	}
}

const (
	AUTH_TOKEN_HEADER_KEY = "X-Authorization"
	APPID_HEADER          = "X-Appid"
)

func SetAppid(core *core.Core) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		appid := ctx.Request.Header.Get(APPID_HEADER)
		if appid == "" {
			appid = core.DefaultAppid()
		}
		ctx.Set(v1.APPID_KEY, appid)
	}
}

// Authorization 校验 X-Authorization 携带的 JWT
func Authorization(appCore *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenValue := c.GetHeader(AUTH_TOKEN_HEADER_KEY)
		if tokenValue == "" {
			response.APIError(c, errors.New("middleware.Authorization.nil", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		claims, err := security.VerifyToken(tokenValue, []byte(appCore.Cfg().Security.JWTPublicKey))
		if err != nil {
			response.APIError(c, errors.New("middleware.Authorization.VerifyToken", i18n.ERROR_INVALID_TOKEN, err).Code(http.StatusUnauthorized))
			return
		}

		appid, exist := v1.InjectAppid(c)
		if exist && claims.Appid != appid {
			response.APIError(c, errors.New("middleware.Authorization.Appid", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		c.Set(v1.TOKEN_CONTEXT_KEY, *claims)
	}
}

// VerifySpaceMembership 校验当前用户是空间在册成员并注入 spaceid
func VerifySpaceMembership(appCore *core.Core) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		spaceID, _ := ctx.Params.Get("spaceid")

		claims, _ := v1.InjectTokenClaim(ctx)

		member, err := appCore.Store().SpaceMemberStore().GetMemberByUserID(ctx, claims.Appid, spaceID, claims.User)
		if err != nil && err != sql.ErrNoRows {
			response.APIError(ctx, errors.New("middleware.VerifySpaceMembership.SpaceMemberStore.GetMemberByUserID", i18n.ERROR_INTERNAL, err))
			return
		}

		if member == nil || member.IsDeleted {
			response.APIError(ctx, errors.New("middleware.VerifySpaceMembership.nil", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden))
			return
		}

		ctx.Set(v1.SPACEID_CONTEXT_KEY, spaceID)
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, UPDATE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Authorization, X-Appid")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, operation string, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(c, genKeyFunc(c), operation, opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}
