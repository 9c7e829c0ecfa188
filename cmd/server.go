package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/vendo-org/vendo/cmd/flags"
	"github.com/vendo-org/vendo/internal/bootstrap"
	"github.com/vendo-org/vendo/internal/coinlock"
	"github.com/vendo-org/vendo/internal/conf"
	"github.com/vendo-org/vendo/internal/credit"
	"github.com/vendo-org/vendo/internal/db"
	"github.com/vendo-org/vendo/internal/license"
	"github.com/vendo-org/vendo/internal/mirror"
	"github.com/vendo-org/vendo/internal/obs"
	"github.com/vendo-org/vendo/internal/rates"
	"github.com/vendo-org/vendo/internal/registry"
	"github.com/vendo-org/vendo/internal/restore"
	"github.com/vendo-org/vendo/server"
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the vendo server",
	Run: func(cmd *cobra.Command, args []string) {
		bootstrap.InitConfig()
		bootstrap.Log()
		bootstrap.InitDB()
		defer db.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		metrics := obs.NewMetrics()

		locks := coinlock.NewManager(
			time.Duration(conf.Conf.Coin.LockTTLSeconds)*time.Second, metrics)
		resolver := rates.NewResolver(
			time.Duration(conf.Conf.Coin.RateCacheSeconds) * time.Second)

		reg := registry.New(registry.DBStore{}, metrics)
		if err := reg.LoadActive(); err != nil {
			log.Fatalf("failed restore sessions: %s", err.Error())
		}
		restorer := restore.New(reg, metrics)

		hwid, err := license.HardwareID()
		if err != nil {
			log.Fatalf("failed derive hardware identity: %s", err.Error())
		}
		authority := license.NewAuthority(conf.Conf.License.AuthorityURL,
			time.Duration(conf.Conf.License.TimeoutSeconds)*time.Second)
		gate := license.NewGatekeeper(license.DBStore{}, authority,
			conf.Conf.License.PublicKey, conf.Conf.License.TrialDays)
		if err := gate.Bootstrap(hwid); err != nil {
			log.Fatalf("failed bootstrap license state: %s", err.Error())
		}

		creditSvc := credit.NewService(locks, resolver, reg, gate,
			credit.DBSaleRecorder{}, metrics)

		tickInterval := time.Duration(conf.Conf.Coin.TickSeconds) * time.Second
		ticker := registry.NewTicker(reg, tickInterval, nil)
		go ticker.Run(ctx)
		go locks.Sweep(ctx, tickInterval)
		go gate.Run(ctx, time.Duration(conf.Conf.License.ReconcileMinutes)*time.Minute)

		if conf.Conf.Mirror.Enable {
			m := mirror.New(conf.Conf.Mirror.URL,
				time.Duration(conf.Conf.Mirror.TimeoutSeconds)*time.Second,
				time.Duration(conf.Conf.Mirror.IntervalSeconds)*time.Second,
				mirror.DBSaleSource{},
				func() mirror.Heartbeat {
					return mirror.Heartbeat{
						HardwareID:     hwid,
						DeviceName:     conf.Conf.DeviceName,
						ActiveSessions: reg.Len(),
						CanOperate:     gate.CanOperate(),
						Timestamp:      time.Now().Unix(),
					}
				}, metrics)
			go m.Run(ctx)
		}

		if !flags.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		r := gin.New()
		r.Use(gin.LoggerWithWriter(log.StandardLogger().Out), gin.Recovery())
		server.Init(r, &server.Core{
			Credit:   creditSvc,
			Registry: reg,
			Restorer: restorer,
			Locks:    locks,
			Gate:     gate,
			Rates:    resolver,
		})

		addr := fmt.Sprintf("%s:%d", conf.Conf.Scheme.Address, conf.Conf.Scheme.HttpPort)
		srv := &http.Server{Addr: addr, Handler: r}
		go func() {
			log.Infof("start HTTP server @ %s", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start http server: %s", err.Error())
			}
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("shutdown server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Fatal("server shutdown error:", err)
		}
		log.Println("server exit")
	},
}

func init() {
	RootCmd.AddCommand(ServerCmd)
}
