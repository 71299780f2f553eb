package core

import (
	"io"
	"net"
	"os"

	"sockkit/config"
	"sockkit/internal/capability"
	"sockkit/internal/errors"
	"sockkit/internal/metrics"
	"sockkit/internal/notify"
	"sockkit/parser"
	"sockkit/socket"
	"sockkit/util"
)

// Output receives everything the capabilities print.  Tests replace it.
var Output io.Writer = os.Stdout

// Build constructs the appropriate Mode from a validated configuration.
// col may be nil.
func Build(cfg *config.Config, logger *util.Logger, col *metrics.Collector) (Mode, error) {
	mode, err := cfg.TransportMode()
	if err != nil {
		return nil, err
	}
	factory, err := buildFactory(cfg, mode, logger, col)
	if err != nil {
		return nil, err
	}
	c, err := buildCapability(cfg, logger)
	if err != nil {
		return nil, err
	}
	handler := capability.Callback(c, logger)

	if cfg.Listening() {
		return &ListenMode{
			Factory:  factory,
			Mode:     mode,
			IP:       cfg.BindIP,
			Port:     cfg.Port,
			KeepOpen: cfg.KeepOpen,
			Handler:  handler,
			Logger:   logger,
		}, nil
	}

	ip, port, err := cfg.RemoteAddr()
	if err != nil {
		return nil, &errors.ConfigError{Field: "to", Value: cfg.Remote, Message: err.Error()}
	}
	return &SendMode{
		Factory:    factory,
		Mode:       mode,
		LocalIP:    cfg.BindIP,
		LocalPort:  cfg.Port,
		RemoteIP:   ip,
		RemotePort: port,
		Message:    []byte(cfg.Message),
		Wait:       cfg.Wait,
		Handler:    handler,
		Logger:     logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildFactory maps the configuration onto socket options.  Socket
// events are traced at debug verbosity.
func buildFactory(cfg *config.Config, mode socket.Mode, logger *util.Logger, col *metrics.Collector) (*socket.Factory, error) {
	events := notify.NewSubject()
	events.Add(notify.ObserverFunc(func(ev notify.Event) {
		logger.Debug("%s: %s %s %s", ev.Source, ev.Type, ev.Message, ev.Addr)
	}))

	opts := []socket.Option{
		socket.WithLogger(logger),
		socket.WithMetrics(col),
		socket.WithNotifier(events),
		socket.WithBufferSize(cfg.BufferSize),
		socket.WithTimeouts(cfg.ConnectTimeout, cfg.ReadTimeout),
		socket.WithMulticastTTL(cfg.TTL),
		socket.WithMulticastLoopback(cfg.Loopback),
		socket.WithReuseAddr(cfg.ReuseAddr),
		socket.WithBacklog(cfg.Backlog),
	}
	if mode == socket.TCPClient {
		opts = append(opts, socket.WithLocalPort(cfg.Port))
	}
	if cfg.Interface != "" {
		ifi, err := net.InterfaceByName(cfg.Interface)
		if err != nil {
			return nil, &errors.ConfigError{
				Field:   "interface",
				Value:   cfg.Interface,
				Message: err.Error(),
				Hint:    "list interfaces with 'ip link'",
			}
		}
		opts = append(opts, socket.WithInterface(ifi))
	}
	return socket.NewFactory(opts...), nil
}

// buildCapability selects the per-unit behaviour: decode with a rule
// file when one is given, otherwise dump.
func buildCapability(cfg *config.Config, logger *util.Logger) (capability.Capability, error) {
	if cfg.ParserRules == "" {
		return capability.NewDump(Output, cfg.Format), nil
	}
	rule, err := parser.LoadRule(cfg.ParserRules)
	if err != nil {
		return nil, &errors.ConfigError{Field: "parser-rules", Value: cfg.ParserRules, Message: err.Error()}
	}
	m := parser.NewManager(logger)
	name := rule.Rule().Info.Name
	if err := m.Register(name, rule); err != nil {
		return nil, err
	}
	if err := m.Select(name); err != nil {
		return nil, err
	}
	return capability.NewParse(m, Output), nil
}
