package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vendo-org/vendo/internal/coinlock"
	"github.com/vendo-org/vendo/internal/conf"
	"github.com/vendo-org/vendo/internal/credit"
	"github.com/vendo-org/vendo/internal/license"
	"github.com/vendo-org/vendo/internal/rates"
	"github.com/vendo-org/vendo/internal/registry"
	"github.com/vendo-org/vendo/internal/restore"
	"github.com/vendo-org/vendo/server/handles"
	"github.com/vendo-org/vendo/server/middlewares"
)

// Core bundles the components the HTTP surface exposes.
type Core struct {
	Credit   *credit.Service
	Registry *registry.Registry
	Restorer *restore.Restorer
	Locks    *coinlock.Manager
	Gate     *license.Gatekeeper
	Rates    *rates.Resolver
}

func Init(e *gin.Engine, core *Core) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = conf.Conf.Cors
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Device-ID")
	e.Use(cors.New(corsConfig))
	e.Use(middlewares.DeviceSeen)

	e.GET("/ping", func(c *gin.Context) {
		c.String(200, "pong")
	})
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/credit", handles.Credit(core.Credit))

	session := api.Group("/session")
	session.POST("/restore", handles.Restore(core.Restorer, core.Registry))
	session.POST("/pause", handles.Pause(core.Registry))
	session.POST("/resume", handles.Resume(core.Registry))
	session.GET("/status", handles.SessionStatus(core.Registry))

	lock := api.Group("/lock")
	lock.POST("/acquire", handles.AcquireLock(core.Locks))
	lock.POST("/release", handles.ReleaseLock(core.Locks))

	lic := api.Group("/license")
	lic.GET("/status", handles.LicenseStatus(core.Gate))
	lic.POST("/activate", handles.LicenseActivate(core.Gate))

	admin := api.Group("/admin")
	admin.GET("/sessions", handles.ListSessions(core.Registry))
	admin.POST("/sessions/evict", handles.EvictSession(core.Registry))
	admin.GET("/rates", handles.ListRates)
	admin.POST("/rates", handles.CreateRate(core.Rates))
	admin.POST("/rates/delete", handles.DeleteRate(core.Rates))
	admin.GET("/devices", handles.ListDevices)
	admin.POST("/devices", handles.RegisterDevice)
}
