package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Devsama007/File-Share/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Files     *FileHandler
	Shares    *ShareHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authLimit := middleware.RateLimit(time.Second)
	api.POST("/auth/register", authLimit, deps.Auth.Register)
	api.POST("/auth/login", authLimit, deps.Auth.Login)
	api.POST("/auth/logout", deps.Auth.Logout)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/files/upload", deps.Files.Upload)
	authGroup.GET("/files/mine", deps.Files.Mine)
	authGroup.GET("/files/shared", deps.Files.Shared)
	authGroup.GET("/files/:file_id/download", deps.Files.Download)
	authGroup.DELETE("/files/:file_id", deps.Files.Delete)

	authGroup.POST("/shares/user", deps.Shares.CreateUserShare)
	authGroup.POST("/shares/link", deps.Shares.CreateLinkShare)
	authGroup.GET("/shares/file/:file_id", deps.Shares.ListByFile)
	authGroup.GET("/shares/link/:token", deps.Shares.ResolveLink)
	authGroup.DELETE("/shares/:share_id", deps.Shares.Delete)

	// anonymous link access; whether these stay public is deployment policy
	api.GET("/public/shares/:token", deps.Shares.ResolveLink)
	api.GET("/public/shares/:token/download", deps.Shares.DownloadByLink)
}
