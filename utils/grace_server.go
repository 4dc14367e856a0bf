package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const (
	defaultReadTimeout  = 60 * time.Second
	defaultWriteTimeout = defaultReadTimeout
	drainTimeout        = 30 * time.Second

	gracefulEnv = "KAGEBAN_GRACEFUL"
	// ExtraFiles entries start after stdin/stdout/stderr.
	inheritedListenerFd = 3
)

// graceServer serves HTTP with zero-downtime binary restarts. SIGUSR2
// starts a replacement process that inherits the listening socket before
// the old process drains; SIGTERM just drains and exits.
type graceServer struct {
	srv       *http.Server
	inherited bool
	done      chan error
}

func newGraceServer(addr string, handler http.Handler) *graceServer {
	return &graceServer{
		srv: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
		},
		inherited: os.Getenv(gracefulEnv) != "",
		done:      make(chan error, 1),
	}
}

func (g *graceServer) run(serve func(net.Listener) error) error {
	ln, err := g.listen()
	if err != nil {
		return err
	}

	go g.watchSignals(ln)

	if err := serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// Serve returns as soon as the drain begins; wait until it finishes.
	return <-g.done
}

func (g *graceServer) listen() (net.Listener, error) {
	if g.inherited {
		// child of a restart: the socket arrives as an inherited fd
		f := os.NewFile(inheritedListenerFd, "listener")
		defer f.Close()
		ln, err := net.FileListener(f)
		if err != nil {
			return nil, fmt.Errorf("inherit listener: %w", err)
		}
		return ln, nil
	}
	return net.Listen("tcp", g.srv.Addr)
}

func (g *graceServer) watchSignals(ln net.Listener) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGTERM, syscall.SIGUSR2)

	for sig := range sigs {
		switch sig {
		case syscall.SIGTERM:
			Sugar.Info("received SIGTERM, draining HTTP server")
			g.done <- g.drain()
			return
		case syscall.SIGUSR2:
			Sugar.Info("received SIGUSR2, handing socket to a new process")
			pid, err := g.spawnSuccessor(ln)
			if err != nil {
				Sugar.Errorf("restart failed, keeping current process: %v", err)
				continue
			}
			Sugar.Infof("successor started, pid=%d, draining old server", pid)
			g.done <- g.drain()
			return
		}
	}
}

func (g *graceServer) drain() error {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	err := g.srv.Shutdown(ctx)
	if err != nil {
		Sugar.Errorf("HTTP server drain error: %v", err)
	} else {
		Sugar.Info("HTTP server drained")
	}
	return err
}

func (g *graceServer) spawnSuccessor(ln net.Listener) (int, error) {
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		return 0, fmt.Errorf("listener is %T, cannot be inherited", ln)
	}
	f, err := tcp.File()
	if err != nil {
		return 0, fmt.Errorf("dup listener fd: %w", err)
	}
	defer f.Close()

	cmd := exec.Command(os.Args[0], os.Args[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{f}
	cmd.Env = append(environWithout(gracefulEnv), gracefulEnv+"=1")
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	return cmd.Process.Pid, nil
}

func environWithout(key string) []string {
	prefix := key + "="
	env := os.Environ()
	out := env[:0]
	for _, e := range env {
		if !strings.HasPrefix(e, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// GraceServer serves HTTP on addr until SIGTERM, restarting in place on
// SIGUSR2.
func GraceServer(addr string, handler http.Handler) error {
	g := newGraceServer(addr, handler)
	return g.run(func(ln net.Listener) error { return g.srv.Serve(ln) })
}

// GraceServerTLS is GraceServer over TLS.
func GraceServerTLS(addr, certFile, keyFile string, handler http.Handler) error {
	g := newGraceServer(addr, handler)
	return g.run(func(ln net.Listener) error { return g.srv.ServeTLS(ln, certFile, keyFile) })
}
