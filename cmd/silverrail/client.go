package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"time"

	"silverrail/internal/api"
	"silverrail/internal/config"
)

const (
	pingTimeout        = 500 * time.Millisecond
	serverStartTimeout = 3 * time.Second
	serverPollInterval = 100 * time.Millisecond
)

// withClient runs fn against the configured server. When nothing answers
// at api_url, a child `silverrail srv` is started for the duration of fn.
func withClient(cfg *config.Config, fn func(*api.Client) error) error {
	client := api.NewClient(cfg.APIURL)

	child, err := ensureServer(client, cfg)
	if err != nil {
		return err
	}
	if child != nil {
		defer child.stop()
	}
	return fn(client)
}

// localServer is a server process spawned by the CLI.
type localServer struct {
	cmd *exec.Cmd
}

func (s *localServer) stop() {
	if s == nil || s.cmd == nil || s.cmd.Process == nil {
		return
	}
	_ = s.cmd.Process.Kill()
	_ = s.cmd.Wait()
}

func ensureServer(client *api.Client, cfg *config.Config) (*localServer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	err := client.Ping(ctx)
	cancel()
	if err == nil {
		return nil, nil
	}
	if !isConnRefused(err) {
		return nil, err
	}

	child, err := startServerProcess(cfg)
	if err != nil {
		return nil, fmt.Errorf("start local server: %w", err)
	}
	if err := waitForServer(client, serverStartTimeout); err != nil {
		child.stop()
		return nil, err
	}
	return child, nil
}

func startServerProcess(cfg *config.Config) (*localServer, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(exe, "srv")
	cmd.Env = append(os.Environ(),
		"SILVERRAIL_DB="+cfg.DBPath,
		"SILVERRAIL_API_URL="+cfg.APIURL,
		"SILVERRAIL_MEDIA_ROOT="+cfg.MediaRoot,
	)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &localServer{cmd: cmd}, nil
}

func waitForServer(client *api.Client, timeout time.Duration) error {
	ticker := time.NewTicker(serverPollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 2*serverPollInterval)
		err := client.Ping(ctx)
		cancel()
		if err == nil {
			return nil
		}
		if !isConnRefused(err) {
			// Something else owns the port.
			return err
		}
		select {
		case <-deadline:
			return errors.New("server did not start in time")
		case <-ticker.C:
		}
	}
}

// isConnRefused reports dial failures, which mean no server is listening yet.
func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}
