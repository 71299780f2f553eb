package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of a Config.  Every field is optional;
// durations use Go syntax ("500ms", "2s").
//
//	mode: multicast
//	bind: 239.1.1.1
//	port: 5000
//	multicast:
//	  ttl: 4
//	  loopback: false
type File struct {
	Mode        string        `yaml:"mode"`
	Bind        string        `yaml:"bind"`
	Port        int           `yaml:"port"`
	To          string        `yaml:"to"`
	Send        string        `yaml:"send"`
	KeepOpen    *bool         `yaml:"keep-open"`
	Timeout     time.Duration `yaml:"timeout"`
	ReadTimeout time.Duration `yaml:"read-timeout"`
	Wait        time.Duration `yaml:"wait"`
	Multicast   struct {
		TTL       int    `yaml:"ttl"`
		Interface string `yaml:"interface"`
		Loopback  *bool  `yaml:"loopback"`
	} `yaml:"multicast"`
	ReuseAddr   *bool  `yaml:"reuse-addr"`
	Backlog     int    `yaml:"backlog"`
	BufferSize  int    `yaml:"buffer-size"`
	ParserRules string `yaml:"parser-rules"`
	Format      string `yaml:"format"`
	LogFile     string `yaml:"log-file"`
	Stats       *bool  `yaml:"stats"`
	Verbose     int    `yaml:"verbose"`
}

// LoadFile overlays the YAML file at path onto cfg.  Unknown keys are
// rejected so typos surface early.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config file: %w", err)
	}
	defer f.Close()

	var fc File
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && err != io.EOF {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	fc.apply(cfg)
	cfg.ConfigFile = path
	return nil
}

func (fc *File) apply(cfg *Config) {
	setString(&cfg.Mode, fc.Mode)
	setString(&cfg.BindIP, fc.Bind)
	setInt(&cfg.Port, fc.Port)
	setString(&cfg.Remote, fc.To)
	setString(&cfg.Message, fc.Send)
	setBool(&cfg.KeepOpen, fc.KeepOpen)

	setDuration(&cfg.ConnectTimeout, fc.Timeout)
	setDuration(&cfg.ReadTimeout, fc.ReadTimeout)
	setDuration(&cfg.Wait, fc.Wait)

	setInt(&cfg.TTL, fc.Multicast.TTL)
	setString(&cfg.Interface, fc.Multicast.Interface)
	setBool(&cfg.Loopback, fc.Multicast.Loopback)
	setBool(&cfg.ReuseAddr, fc.ReuseAddr)
	setInt(&cfg.Backlog, fc.Backlog)
	setInt(&cfg.BufferSize, fc.BufferSize)

	setString(&cfg.ParserRules, fc.ParserRules)
	setString(&cfg.Format, fc.Format)
	setString(&cfg.LogFile, fc.LogFile)
	setBool(&cfg.Stats, fc.Stats)
	setInt(&cfg.Verbose, fc.Verbose)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}
