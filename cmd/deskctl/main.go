package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/k1networth/techdesk/internal/client"
	"github.com/k1networth/techdesk/internal/device"
	"github.com/k1networth/techdesk/internal/profile"
	"github.com/k1networth/techdesk/internal/shared/db"
	"github.com/k1networth/techdesk/internal/shared/env"
	"github.com/k1networth/techdesk/internal/shared/logger"
)

const usage = `usage: deskctl [flags] <command> [args]

commands:
  login <email> <password>
  logout
  profile
  profile-set -name N -email E [-phone P] [-address A]
  settings [notifications|dark-mode on|off]

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("deskctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		_, _ = fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	apiURL := fs.String("api", env.String("DESK_API_URL", "http://localhost:8080"), "API base URL")
	state := fs.String("state", env.String("DESK_STATE", defaultStatePath()), "device storage sqlite file; empty keeps state in memory")
	verbose := fs.Bool("v", false, "log remote failures to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	level := "error"
	if *verbose {
		level = "debug"
	}
	log := logger.NewWriter(stderr, "deskctl", "cli", level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local, closeState, err := openStorage(ctx, *state)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "open state: %v\n", err)
		return 1
	}
	defer closeState()

	ps := &client.ProfileSync{Log: log, API: client.New(*apiURL, nil), Local: local}

	out, err := dispatch(ctx, ps, fs.Arg(0), fs.Args()[1:], stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "%s: %v\n", fs.Arg(0), err)
		return 1
	}
	if out != nil {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	}
	return 0
}

func dispatch(ctx context.Context, s *client.ProfileSync, cmd string, args []string, stderr io.Writer) (any, error) {
	switch cmd {
	case "login":
		if len(args) != 2 {
			return nil, fmt.Errorf("expected <email> <password>")
		}
		return s.Login(ctx, args[0], args[1])

	case "logout":
		return nil, s.Logout(ctx)

	case "profile":
		return s.Load(ctx)

	case "profile-set":
		fs := flag.NewFlagSet("profile-set", flag.ContinueOnError)
		fs.SetOutput(stderr)
		var req profile.UpdateRequest
		fs.StringVar(&req.Name, "name", "", "full name")
		fs.StringVar(&req.Email, "email", "", "e-mail")
		fs.StringVar(&req.Phone, "phone", "", "phone")
		fs.StringVar(&req.Address, "address", "", "address")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		return s.Save(ctx, req)

	case "settings":
		if len(args) == 0 {
			return s.Settings(ctx)
		}
		if len(args) != 2 {
			return nil, fmt.Errorf("expected <notifications|dark-mode> <on|off>")
		}
		on, err := parseSwitch(args[1])
		if err != nil {
			return nil, err
		}
		switch args[0] {
		case "notifications":
			err = s.SetNotifications(ctx, on)
		case "dark-mode":
			err = s.SetDarkMode(ctx, on)
		default:
			return nil, fmt.Errorf("unknown setting %q", args[0])
		}
		if err != nil {
			return nil, err
		}
		return s.Settings(ctx)
	}
	return nil, fmt.Errorf("unknown command")
}

// openStorage opens the sqlite state file. An empty path keeps state in memory
// for this run only.
func openStorage(ctx context.Context, path string) (device.Storage, func(), error) {
	if path == "" {
		return device.NewMemoryStorage(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.OpenSQLite(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	st, err := device.NewSQLiteStorage(ctx, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}
	return st, func() { _ = sqlDB.Close() }, nil
}

func parseSwitch(v string) (bool, error) {
	switch v {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", v)
	}
	return b, nil
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "deskctl.db"
	}
	return filepath.Join(dir, "techdesk", "deskctl.db")
}
