package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"tasklist/internal/logging"
	"tasklist/internal/smoke"
)

func main() {
	os.Exit(run())
}

func run() int {
	base := flag.String("base", "http://localhost:8000", "server base URL")
	path := flag.String("path", "/tasks", "collection path")
	server := flag.String("server", "", "server binary to launch before testing (optional)")
	serverArgs := flag.String("server-args", "", "space-separated arguments for the server binary")
	wait := flag.Duration("wait", 10*time.Second, "how long to wait for the server to become healthy")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := logging.New(os.Stderr, *logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *server != "" {
		logger.Info("starting server", "binary", *server)
		cmd := exec.Command(*server, strings.Fields(*serverArgs)...)
		if err := cmd.Start(); err != nil {
			logger.Error("start server", "err", err)
			return 1
		}
		defer terminate(logger, cmd)
	}

	waitCtx, cancel := context.WithTimeout(ctx, *wait)
	err := smoke.WaitHealthy(waitCtx, nil, strings.TrimRight(*base, "/")+"/health")
	cancel()
	if err != nil {
		logger.Error("server not reachable", "base", *base, "err", err)
		return 1
	}

	r := &smoke.Runner{BaseURL: *base, Path: *path, Out: os.Stdout}
	if _, err := r.Run(ctx); err != nil {
		logger.Error("smoke test failed", "err", err)
		return 1
	}
	logger.Info("testing completed")
	return 0
}

// terminate sends SIGTERM and kills the server if it is still running
// after five seconds.
func terminate(logger *log.Logger, cmd *exec.Cmd) {
	logger.Info("terminating server")
	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Warn("signal server", "err", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("server did not exit, killing")
		cmd.Process.Kill()
		<-done
	}
}
