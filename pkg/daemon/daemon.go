// Package daemon runs the pipet control daemon: a gin HTTP API on a
// unix socket that owns the one serial connection to the robot. Every
// robot-touching route takes the same lock, so control panels and CLIs
// can only ever issue one command at a time — required for physical
// safety, since a later command must never leave before the robot
// confirmed (or timed out on) the prior one.
package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/openpipette/pipet/pkg/config"
	"github.com/openpipette/pipet/pkg/deck"
	"github.com/openpipette/pipet/pkg/robot"
)

var (
	mu   sync.Mutex
	ctrl *robot.Controller

	theDeck = deck.New()
	conf    config.Config
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.POST("/connect", connect)
	router.POST("/disconnect", disconnect)
	router.POST("/home", home)
	router.POST("/home-all", homeAll)
	router.GET("/syringes", getSyringes)
	router.PUT("/syringe", setSyringe)
	router.POST("/pick-tip", pickTip)
	router.POST("/drop-tip", dropTip)
	router.POST("/transfer", transfer)
	router.POST("/aspirate", aspirate)
	router.POST("/dispense", dispense)
	router.POST("/dwell", dwell)
	router.POST("/jog", jog)
	router.GET("/position", getPosition)
	router.POST("/protocol/run", runProtocol)
	router.GET("/version", getVersion)

	return router
}

// Run starts the daemon and blocks until SIGINT/SIGTERM.
func Run(configPath string, unixSocketPath string) error {
	router := setupRoutes()

	var err error
	conf, err = config.Load(configPath)
	if err != nil {
		logrus.Fatalf("failed to parse config during startup: %v", err)
	}
	logrus.Infof("config loaded: %#v", conf)

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			c, err := config.Load(configPath)
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			mu.Lock()
			conf = c
			mu.Unlock()
			logrus.Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler: router,
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		logrus.Fatal(err)
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	logrus.Infof("caught signal %s: shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("server shutdown: %v", err)
	}
	_ = l.Close()

	mu.Lock()
	defer mu.Unlock()
	if ctrl != nil {
		if err := ctrl.Close(); err != nil {
			logrus.Errorf("failed to close robot connection: %v", err)
		}
		ctrl = nil
	}
	return nil
}
