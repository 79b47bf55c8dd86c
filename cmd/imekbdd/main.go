// imekbdd serves software input-method keyboard emulation:
//
//   - /ime (WebSocket): the input-method client protocol
//   - /events (WebSocket): observer feed of key events, modifiers, keymaps
//   - a unix control socket for imekbdctl
//   - optionally, a D-Bus frontend on the session bus
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imekbd/internal/config"
	"imekbd/internal/dbusfront"
	"imekbd/internal/eventloop"
	"imekbd/internal/ime"
	"imekbd/internal/ipc"
	"imekbd/internal/journal"
	"imekbd/internal/logging"
	"imekbd/internal/server"
	"imekbd/internal/xkb"
)

// defaultKeymapText is the layout installed on the default keyboard at
// startup. It resolves through the system xkb data files.
const defaultKeymapText = `xkb_keymap {
	xkb_keycodes  { include "evdev+aliases(qwerty)" };
	xkb_types     { include "complete" };
	xkb_compat    { include "complete" };
	xkb_symbols   { include "pc+us+inet(evdev)" };
};`

var (
	configPath = flag.String("config", "", "path to config file (TOML or YAML)")
	listenAddr = flag.String("listen", "", "override the listen address")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "imekbdd:", err)
		os.Exit(1)
	}
}

func run() error {
	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if *listenAddr != "" {
		cfg.Listen = *listenAddr
	}

	log, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	compiler, err := xkb.NewNativeCompiler()
	if err != nil {
		return fmt.Errorf("xkb compiler: %w", err)
	}
	defer compiler.Close()

	defaultKeymap, err := compiler.Compile(defaultKeymapText)
	if err != nil {
		return fmt.Errorf("compile default keymap: %w", err)
	}

	loop := eventloop.New()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go loop.Run(ctx)

	srv := server.New(log, loop)
	defaultKeyboard := srv.NewDefaultKeyboard("default", defaultKeymap)
	loop.Post(func() {
		srv.SetActiveKeyboard(defaultKeyboard)
	})

	var jnl *journal.Journal
	if cfg.JournalPath != "" {
		jnl, err = journal.Open(cfg.JournalPath, log)
		if err != nil {
			return err
		}
		defer jnl.Close()
	}

	opts := ime.Options{
		Seat:            srv,
		DefaultKeyboard: defaultKeyboard,
		NewKeyboard:     srv.NewKeyboard,
		Compiler:        compiler,
		Loop:            loop,
		Log:             log,
		KeyResetDelay:   cfg.KeyResetDelay(),
		FocusResetDelay: cfg.FocusResetDelay(),
	}
	if jnl != nil {
		opts.Recorder = jnl
	}
	mgr, err := ime.NewManager(opts)
	if err != nil {
		return err
	}
	srv.SetManager(mgr)

	ctl := ipc.NewServer(log, cfg.IPCSocket, &daemon{loop: loop, mgr: mgr, jnl: jnl})
	if err := ctl.Start(); err != nil {
		return err
	}
	defer ctl.Close()

	if cfg.EnableDBus {
		front, err := dbusfront.Start(log, loop, mgr)
		if err != nil {
			// The daemon is useful without the bus; headless test rigs
			// often have no session bus at all.
			log.Warn("dbus frontend unavailable", "error", err)
		} else {
			defer front.Close()
		}
	}

	loader.OnChange(func(c *config.Config) {
		level, err := logging.ParseLevel(c.Logging.Level)
		if err != nil {
			return
		}
		logging.SetLevel(level)
		log.Info("configuration reloaded", "level", c.Logging.Level)
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config watch unavailable", "error", err)
	}
	defer loader.Close()
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload failed", "error", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:         cfg.Listen,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	httpErr := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Listen)
		httpErr <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-httpErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// daemon answers control requests by bouncing through the event loop, since
// manager state must only be read there.
type daemon struct {
	loop *eventloop.Loop
	mgr  *ime.Manager
	jnl  *journal.Journal
}

func (d *daemon) Status() ime.Status {
	ch := make(chan ime.Status, 1)
	d.loop.Post(func() {
		ch <- d.mgr.Snapshot()
	})
	select {
	case st := <-ch:
		return st
	case <-d.loop.Done():
		// Racing shutdown; answer with an empty snapshot instead of
		// hanging the control connection.
		return ime.Status{}
	}
}

func (d *daemon) ResetKeys() bool {
	ch := make(chan bool, 1)
	d.loop.Post(func() {
		s := d.mgr.Active()
		if s != nil {
			s.ResetKeys()
		}
		ch <- s != nil
	})
	select {
	case ok := <-ch:
		return ok
	case <-d.loop.Done():
		return false
	}
}

func (d *daemon) CommitCount() int64 {
	if d.jnl == nil {
		return -1
	}
	n, err := d.jnl.Count()
	if err != nil {
		return -1
	}
	return n
}
