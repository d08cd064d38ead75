package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"

	"github.com/proctrack/proctrack/internal/config"
	"github.com/proctrack/proctrack/internal/daemon"
	"github.com/proctrack/proctrack/internal/web"
)

// launchDaemon runs the daemon when this is the detached child, otherwise it
// re-executes itself with childArgs and waits for the child to come up.
func launchDaemon(cfg *config.Config, childArgs []string, withWeb bool) error {
	dm := daemon.New(cfg.Daemon.PIDFile)
	running, pid, err := dm.IsRunning()
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if running {
		return fmt.Errorf("daemon is already running (PID: %d)", pid)
	}

	if daemon.IsChild() {
		return runDaemon(cfg, dm, withWeb)
	}

	if configPath != "" {
		childArgs = append(childArgs, "--config", configPath)
	}
	if _, err := daemon.Spawn(childArgs); err != nil {
		return err
	}

	spin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(os.Stdout))
	spin.Suffix = " Starting daemon..."
	spin.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pid, err = dm.WaitForPID(ctx, 100*time.Millisecond)
	spin.Stop()
	if err != nil {
		return fmt.Errorf("%w (see %s)", err, daemon.LogPath())
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", pid)
	if withWeb {
		fmt.Printf("Web API available at: http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	}
	fmt.Printf("Logs: %s\n", daemon.LogPath())
	return nil
}

func runDaemon(cfg *config.Config, dm *daemon.Daemon, withWeb bool) error {
	logFile, err := os.OpenFile(daemon.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err == nil {
		log.SetOutput(logFile)
		defer logFile.Close()
	}

	s, err := openSession(cfg)
	if err != nil {
		log.Printf("Daemon failed to start: %v", err)
		return err
	}
	defer s.close()

	if err := dm.WritePID(); err != nil {
		return err
	}
	defer dm.RemovePID()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var webServer *web.Server
	if withWeb {
		webServer = web.NewServer(cfg, s.repo, 0)
		go func() {
			if err := webServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Web server error: %v", err)
			}
		}()
		log.Printf("Web API available at: http://%s", webServer.GetAddress())
	}

	trackerErr := make(chan error, 1)
	go func() {
		trackerErr <- s.tracker.Start(ctx)
	}()

	log.Println("Starting proctrack daemon...")
	log.Printf("Configuration:\n%s", cfg.String())

	var runErr error
	select {
	case <-sigChan:
		log.Println("Received shutdown signal")
		cancel()
		<-trackerErr
	case err := <-trackerErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Tracker error: %v", err)
			runErr = err
		}
	}

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down web server: %v", err)
		}
	}

	log.Println("Daemon stopped")
	return runErr
}
