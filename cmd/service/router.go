package service

import (
	"github.com/gin-gonic/gin"

	"github.com/notevault/notevault/app/core"
	v1 "github.com/notevault/notevault/app/logic/v1"
	"github.com/notevault/notevault/app/response"
	"github.com/notevault/notevault/cmd/service/handler"
	"github.com/notevault/notevault/cmd/service/middleware"
	"github.com/notevault/notevault/pkg/metrics"
)

func serve(core *core.Core) {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	core.HttpEngine().Run(core.Cfg().Addr)
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return key + ":" + token.User
		}, opts...)
	}
}

func GetSpaceLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, key, func(c *gin.Context) string {
			spaceid, _ := c.Params.Get("spaceid")
			return key + ":" + spaceid
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	userLimit := GetUserLimitBuilder(s.Core)
	spaceLimit := GetSpaceLimitBuilder(s.Core)

	s.Engine.GET("/metrics", metrics.DefaultExportHandler())
	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Observe(s.Core))
	s.Engine.Use(middleware.Cors)
	s.Engine.Use(middleware.AcceptLanguage())
	s.Engine.Use(middleware.SetAppid(s.Core))

	apiV1 := s.Engine.Group("/api/v1")
	{
		apiV1.GET("/permissions", s.ListPermissions)

		authed := apiV1.Group("")
		authed.Use(middleware.Authorization(s.Core))

		// 接受邀请走令牌定位空间，不要求已是成员
		authed.POST("/invitation/accept", userLimit("accept_invitation"), s.AcceptSpaceInvitation)

		space := authed.Group("/:spaceid")
		space.Use(middleware.VerifySpaceMembership(s.Core))

		role := space.Group("/role")
		{
			role.GET("/list", s.ListSpaceRoles)
			role.GET("/:roleid", s.GetSpaceRole)
			role.POST("/builtin/ensure", spaceLimit("modify_role"), s.EnsureBuiltInRoles)
			role.POST("", spaceLimit("modify_role"), s.CreateSpaceRole)
			role.PUT("/:roleid", spaceLimit("modify_role"), s.UpdateSpaceRole)
			role.DELETE("/:roleid", spaceLimit("modify_role"), s.DeleteSpaceRole)
		}

		member := space.Group("/member")
		{
			member.GET("/list", s.ListSpaceMembers)
			member.PUT("/role", spaceLimit("modify_member"), s.UpdateSpaceMemberRole)
			member.PUT("/role/batch", spaceLimit("modify_member"), s.BatchUpdateSpaceMemberRole)
			member.DELETE("/:memberid", spaceLimit("modify_member"), s.RemoveSpaceMember)
			member.DELETE("", spaceLimit("modify_member"), s.BatchRemoveSpaceMembers)
		}

		invitation := space.Group("/invitation")
		{
			invitation.GET("/list", s.ListSpaceInvitations)
			invitation.GET("/:invitationid", s.GetSpaceInvitation)
			invitation.POST("", userLimit("create_invitation"), s.CreateSpaceInvitations)
			invitation.POST("/:invitationid/resend", userLimit("create_invitation"), s.ResendSpaceInvitation)
			invitation.DELETE("/:invitationid", s.RevokeSpaceInvitation)
		}
	}
}
