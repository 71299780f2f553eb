// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"sockkit/config"
	"sockkit/internal/core"
	"sockkit/internal/metrics"
	"sockkit/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X sockkit/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// cli holds the flags that are not part of config.Config.
type cli struct {
	showVersion bool
	showHelp    bool
	noLoopback  bool
	fs          *flag.FlagSet
}

// Execute parses args and runs the selected mode.
func Execute(ctx context.Context, args []string) error {
	cfg, c, err := parseArgs(args)
	if err != nil {
		return err
	}
	if c.showHelp || len(args) == 0 {
		printUsage(c.fs)
		return nil
	}
	if c.showVersion {
		fmt.Printf("sockkit %s\n", version)
		return nil
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := util.NewLogger(cfg.Verbose)
	if cfg.LogFile != "" {
		if err := logger.OpenFile(cfg.LogFile); err != nil {
			return err
		}
		defer logger.Close() //nolint:errcheck
	}
	if cfg.ConfigFile != "" {
		logger.Verbose("loaded %s", cfg.ConfigFile)
	}

	// ── build components ─────────────────────────────────────────
	col := metrics.New()
	mode, err := core.Build(cfg, logger, col)
	if err != nil {
		return err
	}
	if cfg.DryRun {
		logger.Info("configuration OK: %s mode", cfg.Mode)
		return nil
	}

	err = mode.Run(ctx)
	if cfg.Stats {
		fmt.Fprintln(os.Stderr, col.JSON())
	}
	return err
}

// parseArgs layers configuration sources: built-in defaults, then the
// --config file, then SOCKKIT_* variables, then flags.
func parseArgs(args []string) (*config.Config, *cli, error) {
	cfg := config.Defaults()

	if path := configPath(args); path != "" {
		if err := config.LoadFile(path, cfg); err != nil {
			return nil, nil, err
		}
	}
	config.LoadFromEnv(cfg)

	c := &cli{noLoopback: !cfg.Loopback}
	// CountVar resets its target, so -v adds to the configured level.
	verbose := cfg.Verbose
	fs := flag.NewFlagSet("sockkit", flag.ContinueOnError)
	c.fs = fs

	// ── socket ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "unicast, multicast, broadcast, server or client")
	fs.StringVarP(&cfg.BindIP, "bind", "b", cfg.BindIP, "Local IPv4 address (multicast: group to join)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Local port number")
	fs.StringVar(&cfg.Remote, "to", cfg.Remote, "Destination ip:port (send or connect)")
	fs.StringVarP(&cfg.Message, "send", "s", cfg.Message, "Message to send")
	fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", cfg.KeepOpen, "Server: accept the next peer after one leaves")

	// ── timing ───────────────────────────────────────────────────
	fs.DurationVarP(&cfg.ConnectTimeout, "timeout", "w", cfg.ConnectTimeout, "Connect timeout")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "Per-read timeout (0 = none)")
	fs.DurationVar(&cfg.Wait, "wait", cfg.Wait, "Keep receiving replies this long after sending")

	// ── socket options ───────────────────────────────────────────
	fs.IntVar(&cfg.TTL, "ttl", cfg.TTL, "Multicast TTL")
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "Multicast interface name")
	fs.BoolVar(&c.noLoopback, "no-loopback", c.noLoopback, "Disable multicast loopback")
	fs.BoolVar(&cfg.ReuseAddr, "reuse-addr", cfg.ReuseAddr, "Set SO_REUSEADDR before binding")
	fs.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "TCP listen backlog")
	fs.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "Receive buffer size in bytes")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.ParserRules, "parser-rules", cfg.ParserRules, "Decode received data with a YAML rule file")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "auto, text, hex or raw")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write log output to a file")
	fs.BoolVar(&cfg.Stats, "stats", cfg.Stats, "Print JSON statistics on exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Validate configuration and exit")
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "YAML configuration file")

	fs.BoolVar(&c.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&c.showHelp, "help", "h", false, "Show this help")
	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg.Verbose += verbose
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument %q (use --help for usage)", fs.Arg(0))
	}
	cfg.Loopback = !c.noLoopback
	return cfg, c, nil
}

// configPath finds --config before the full flag set is built, since
// the file supplies the defaults of every other flag.
func configPath(args []string) string {
	pre := flag.NewFlagSet("sockkit", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	path := pre.String("config", "", "")
	pre.Parse(args) //nolint:errcheck
	return *path
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `sockkit – UDP/TCP socket tool v%s

Usage:
  sockkit -p <port> [options]                       Receive UDP
  sockkit --to <ip:port> -s <msg> [options]         Send UDP
  sockkit -m multicast -b <group> -p <port>         Join a multicast group
  sockkit -m server -p <port> [-k]                  TCP server
  sockkit -m client --to <ip:port> [-s <msg>]       TCP client

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  sockkit -p 9000 --format hex                      Hexdump datagrams on 9000
  sockkit --to 10.0.0.5:9000 -s ping --wait 2s      Send and print replies
  sockkit -m broadcast --to 10.0.0.255:9000 -s hi   Broadcast a datagram
  sockkit -m server -p 8080 --parser-rules r.yaml   Decode a TCP stream
`)
}
