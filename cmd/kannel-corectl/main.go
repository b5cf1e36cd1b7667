// File: cmd/kannel-corectl/main.go
// kannel-corectl is a demo driver wiring timer.Set and conn.Connection
// end to end: an idle-timeout echo listener. Grounded on
// ChuLiYu-raft-recovery/internal/cli/cli.go's cobra root/subcommand shape
// and momentics-hioload-ws/examples/reactor_echo/main.go's accept-loop +
// reactor-registration style.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kienpl96/kannel/api"
	"github.com/kienpl96/kannel/conn"
	"github.com/kienpl96/kannel/control"
	"github.com/kienpl96/kannel/queue"
	"github.com/kienpl96/kannel/reactor"
	"github.com/kienpl96/kannel/timer"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "kannel-corectl",
		Short: "Demo driver for the timer set and connection primitives",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (defaults used if omitted)")
	root.AddCommand(buildServeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run an idle-timeout echo listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func defaultConfig() control.Config {
	return control.Config{
		ListenAddr:         ":9002",
		IdleTimeoutSeconds: 30,
		MetricsAddr:        ":9100",
	}
}

func loadConfig() (*control.ConfigStore, error) {
	if configPath == "" {
		return control.NewConfigStore(defaultConfig()), nil
	}
	return control.LoadConfigStore(configPath)
}

// identityClone is the timer.Set's api.Cloner for this demo: the queued
// event is just a *conn.Connection identity token, not data that needs a
// real deep copy.
func identityClone(ev api.Event) api.Event { return ev }

func serve() error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With("component", "kannel-corectl")

	cs, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := cs.Snapshot()

	metrics := control.NewMetricsRegistry()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)

	idleQueue := queue.New()
	idleQueue.AddProducer()
	defer idleQueue.RemoveProducer()

	timers := timer.NewSet(idleQueue, identityClone, nil)
	defer timers.Close()
	probes.RegisterProbe("timers.pending", func() any { return timers.PendingCount() })

	fdset, err := reactor.New()
	if err != nil {
		return fmt.Errorf("reactor: %w", err)
	}
	defer fdset.Close()

	go watchIdleConnections(idleQueue, logger, metrics)

	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}
	defer ln.Close()
	logger.Info("listening", "addr", cfg.ListenAddr)

	idleTimeout := time.Duration(cfg.IdleTimeoutSeconds) * time.Second

	for {
		accepted, err := ln.Accept()
		if err != nil {
			logger.Error("accept", "err", err)
			continue
		}
		acceptConnection(accepted.(*net.TCPConn), fdset, timers, idleTimeout, cfg, metrics, logger)
	}
}

func acceptConnection(tcpConn *net.TCPConn, fdset reactor.FDSet, timers *timer.Set, idleTimeout time.Duration, cfg control.Config, metrics *control.MetricsRegistry, logger *slog.Logger) {
	fd, err := rawFD(tcpConn)
	if err != nil {
		logger.Error("extract fd", "err", err)
		tcpConn.Close()
		return
	}

	c, err := conn.WrapFD(fd)
	if err != nil {
		logger.Error("wrap fd", "err", err)
		tcpConn.Close()
		return
	}
	if cfg.OutputBufferThreshold > 0 {
		if _, err := c.SetOutputBuffering(cfg.OutputBufferThreshold); err != nil {
			logger.Error("set output buffering", "err", err)
		}
	}

	idle := timers.NewTimer()
	idle.Start(idleTimeout, c)

	err = c.Register(fdset, func(rc *conn.Connection, _ any) {
		// tcpConn is referenced here only to keep it (and thus its
		// runtime-managed fd) alive for as long as this callback can
		// fire; the raw fd itself is driven entirely through rc.
		_ = tcpConn

		data := rc.ReadEverything()
		if data == nil {
			if rc.Eof() || rc.ReadError() {
				idle.Destroy()
				_ = rc.Unregister()
				rc.Destroy()
			}
			return
		}
		metrics.ConnBytesRead.Add(float64(len(data)))

		status, werr := rc.Write(data)
		if werr != nil {
			logger.Error("write", "err", werr)
			metrics.ConnWriteErrors.Inc()
			idle.Destroy()
			_ = rc.Unregister()
			rc.Destroy()
			return
		}
		if status == 0 {
			metrics.ConnBytesWritten.Add(float64(len(data)))
		}
		idle.Start(idleTimeout, c)
	}, nil)
	if err != nil {
		logger.Error("register", "err", err)
		idle.Destroy()
		c.Destroy()
		return
	}
}

func watchIdleConnections(q *queue.EventQueue, logger *slog.Logger, metrics *control.MetricsRegistry) {
	for {
		ev, ok := q.Consume()
		if !ok {
			return
		}
		c, isConn := ev.(*conn.Connection)
		if !isConn {
			continue
		}
		metrics.TimersFired.Inc()
		logger.Info("idle timeout, closing connection")
		_ = c.Unregister()
		c.Destroy()
	}
}

func rawFD(tc *net.TCPConn) (int, error) {
	raw, err := tc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	if ctrlErr := raw.Control(func(f uintptr) { fd = int(f) }); ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}
