package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/natscope/capture"
	"github.com/luma/natscope/internal/env"
	"github.com/luma/natscope/sink"
)

var (
	// The host to listen on
	host string

	// The port to listen for http requests on
	httpPort string

	// The port to listen for mirrored streams on
	port int
)

func init() {
	flags := TapCmd.PersistentFlags()

	flags.IntVarP(&port, "port", "p", 7422, "The port to listen for mirrored streams on")
	flags.StringVar(&httpPort, "http-port", "7421", "The port to listen to HTTP requests on")
	flags.StringVarP(&host, "host", "a", "0.0.0.0", "The host to listen on")
}

var TapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Start the natscope capture tap",
	Long: `Start the natscope capture tap

Usage
	natscope tap

`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, signalStop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
		defer signalStop()

		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		fileLimit, err := setFileLimit()
		if err != nil {
			return err
		}

		log.Info("Set file limit", zap.Uint64("fileLimit", fileLimit))

		conf, err := env.LoadConfig(ctx)
		if err != nil {
			return err
		}

		frameSink := sink.NewInmemorySink(conf.RecentFrames)

		router := setupRouter(conf.DebugHTTP, log)

		// Ping test
		router.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		router.GET("/summary", func(c *gin.Context) {
			summary, serr := frameSink.Summary()
			if serr != nil {
				c.String(http.StatusInternalServerError, serr.Error())
				return
			}

			c.Data(http.StatusOK, "application/json", summary)
		})

		router.GET("/frames", func(c *gin.Context) {
			n, _ := strconv.Atoi(c.DefaultQuery("n", "50"))

			lines := make([]gin.H, 0, n)
			for _, entry := range frameSink.Recent(n) {
				meta := entry.Frame.GetMeta()
				lines = append(lines, gin.H{
					"conn":       entry.Conn,
					"verb":       string(entry.Frame.GetVerb()),
					"start":      meta.Start,
					"end":        meta.End,
					"truncated":  meta.Truncated,
					"capturedAt": entry.CapturedAt,
				})
			}

			c.JSON(http.StatusOK, lines)
		})

		s := &http.Server{
			Addr:    net.JoinHostPort(host, httpPort),
			Handler: router,
		}

		// Initializing the server in a goroutine so that
		// it won't block the graceful shutdown handling below
		go func() {
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Http server errored", zap.Error(err))
			}
		}()

		tap := capture.NewTap(capture.Options{
			Host:      host,
			Port:      port,
			Reuseport: true,
			Trace:     conf.Trace,
			MaxIdle:   conf.MaxIdle,
			Sink:      frameSink,
			Log:       log.Named("capture"),
		})

		if err := tap.Start(ctx); err != nil {
			return err
		}

		log.Info("Listening",
			zap.Any("config", conf),
			zap.String("host", host),
			zap.Int("port", port),
			zap.String("httpPort", httpPort))

		// Listen for the interrupt signal.
		<-ctx.Done()

		// Restore default behavior on the interrupt signal and notify user of shutdown.
		signalStop()
		log.Info("Shutting down gracefully, press Ctrl+C again to force")

		// The context is used to inform the server it has 5 seconds to finish
		// the request it is currently handling
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.SetKeepAlivesEnabled(false)

		if err := s.Shutdown(ctx); err != nil {
			log.Error("Http server forced to shutdown", zap.Error(err))
		}

		if err := tap.Close(); err != nil {
			log.Error("Tap forced to shutdown", zap.Error(err))
		}

		if err := frameSink.Close(); err != nil {
			log.Error("Sink did not close cleanly", zap.Error(err))
		}

		log.Info("Exiting")
		return nil
	},
}

func setupRouter(debugHTTP bool, log *zap.Logger) *gin.Engine {
	gin.DisableConsoleColor()
	if !debugHTTP {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Add a ginzap middleware, which:
	//   - Logs all requests, like a combined access and error log.
	//   - Logs to stdout.
	//   - RFC3339 with UTC time format.
	r.Use(ginzap.Ginzap(log, time.RFC3339, true))

	// Logs all panic to error log
	//   - stack means whether output the stack info.
	r.Use(ginzap.RecoveryWithZap(log, true))

	return r
}

func setFileLimit() (uint64, error) {
	var rLimit syscall.Rlimit

	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	rLimit.Cur = rLimit.Max
	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, err
	}

	return rLimit.Cur, nil
}
