package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ChinaCraig/Zy/internal/bus"
	"github.com/ChinaCraig/Zy/internal/chat"
	"github.com/ChinaCraig/Zy/internal/modelwatch"
	"github.com/ChinaCraig/Zy/internal/posesync"
	"github.com/ChinaCraig/Zy/internal/session"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pose session to browser renderers over websocket",
		Long: `Load the configured model, watch it for changes, and serve:

  /ws       pose sync websocket
  /state    session snapshot as JSON
  /metrics  Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				c.cfg.Sync.ListenAddr = listen
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.serve(ctx, nil)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (default is sync.listen_addr)")
	return cmd
}

// serve runs until ctx is done. ready, if set, receives the bound address.
func (c *cli) serve(ctx context.Context, ready chan<- string) error {
	zlogger := c.syslog.Zerolog()

	client := chat.NewClient(&chat.ClientConfig{
		ServerURL: c.cfg.Chat.ServerURL,
		Timeout:   c.cfg.Chat.Timeout,
	}, zlogger)
	sess := session.New(bus.NewEventBus(), session.Options{
		StepDelay: c.cfg.Control.StepDelay,
		Backend:   client,
	}, zlogger)

	hub := posesync.NewHub(sess, c.cfg.Sync.SendBuffer, zlogger)
	defer hub.Close()

	watcher, err := modelwatch.New(c.cfg.Model.Path, sess, zlogger)
	if err != nil {
		return err
	}
	_ = watcher.Load()
	if c.cfg.Model.Watch {
		if err := watcher.Start(); err != nil {
			c.syslog.Warn("serve", "Model not watched", map[string]any{"error": err.Error()})
		}
	}
	defer watcher.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(sess.State())
	})

	ln, err := net.Listen("tcp", c.cfg.Sync.ListenAddr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	c.syslog.Info("serve", "Pose sync listening", map[string]any{
		"addr":  ln.Addr().String(),
		"model": watcher.Path(),
	})
	if ready != nil {
		ready <- ln.Addr().String()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sess.CancelPlayback()
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	c.syslog.Info("serve", "Pose sync stopped", nil)
	return err
}
