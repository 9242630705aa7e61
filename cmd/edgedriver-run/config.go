package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/msedge/edgedriver"
	"github.com/msedge/edgedriver/device"
)

// Config is the run configuration, read from a YAML file.
type Config struct {
	// Mode is "legacy" or "chromium". Empty infers the mode from the options.
	Mode string `yaml:"mode"`

	Driver  string `yaml:"driver"`
	Port    int    `yaml:"port"`
	Verbose bool   `yaml:"verbose"`
	LogPath string `yaml:"log_path"`

	PageLoadStrategy string                 `yaml:"page_load_strategy"`
	Capabilities     map[string]interface{} `yaml:"capabilities"`

	Chromium *ChromiumConfig `yaml:"chromium"`

	URL        string          `yaml:"url"`
	Screenshot string          `yaml:"screenshot"`
	Network    *NetworkConfig  `yaml:"network"`
	Commands   []CommandConfig `yaml:"commands"`
	Apps       []string        `yaml:"apps"`
}

// ChromiumConfig are the Chromium Edge options.
type ChromiumConfig struct {
	Binary          string                 `yaml:"binary"`
	DebuggerAddress string                 `yaml:"debugger_address"`
	WebView         bool                   `yaml:"webview"`
	Headless        bool                   `yaml:"headless"`
	Args            []string               `yaml:"args"`
	Extensions      []string               `yaml:"extensions"`
	Device          string                 `yaml:"device"`
	Experimental    map[string]interface{} `yaml:"experimental"`
}

// NetworkConfig are the network conditions to emulate.
type NetworkConfig struct {
	Offline            bool    `yaml:"offline"`
	Latency            float64 `yaml:"latency"`
	DownloadThroughput float64 `yaml:"download_throughput"`
	UploadThroughput   float64 `yaml:"upload_throughput"`
}

// CommandConfig is a DevTools command to execute once the page is loaded.
type CommandConfig struct {
	Cmd    string                 `yaml:"cmd"`
	Params map[string]interface{} `yaml:"params"`
}

// LoadConfig reads the config file at path.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(buf, cfg); err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return cfg, nil
}

// mode returns the requested mode, if any.
func (cfg *Config) mode() (*edgedriver.Mode, error) {
	var m edgedriver.Mode
	switch cfg.Mode {
	case "":
		return nil, nil
	case "legacy":
		m = edgedriver.Legacy
	case "chromium":
		m = edgedriver.Chromium
	default:
		return nil, fmt.Errorf("invalid mode %q", cfg.Mode)
	}
	return &m, nil
}

// Options builds the Edge options. Chromium options are built when a
// chromium section is present.
func (cfg *Config) Options() (*edgedriver.Options, error) {
	opts := edgedriver.NewOptions()
	if cfg.PageLoadStrategy != "" {
		if err := opts.SetPageLoadStrategy(edgedriver.PageLoadStrategy(cfg.PageLoadStrategy)); err != nil {
			return nil, err
		}
	}
	for k, v := range cfg.Capabilities {
		opts.SetCapability(k, v)
	}
	if cfg.Chromium == nil {
		return opts, nil
	}

	opts.SetUseChromium(true)
	c, cc := opts.Chromium(), cfg.Chromium
	c.SetBinaryLocation(cc.Binary)
	c.SetDebuggerAddress(cc.DebuggerAddress)
	c.SetUseWebView(cc.WebView)
	for _, a := range cc.Args {
		if err := c.AddArgument(a); err != nil {
			return nil, err
		}
	}
	c.SetHeadless(cc.Headless)
	for _, path := range cc.Extensions {
		if err := c.AddExtension(path); err != nil {
			return nil, err
		}
	}
	for k, v := range cc.Experimental {
		c.AddExperimentalOption(k, v)
	}
	if cc.Device != "" {
		d, ok := device.ByName(cc.Device)
		if !ok {
			return nil, fmt.Errorf("unknown device %q", cc.Device)
		}
		c.EmulateDevice(d)
	}
	return opts, nil
}

// DriverOptions returns the options to create the driver with.
func (cfg *Config) DriverOptions() ([]edgedriver.DriverOption, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	m, err := cfg.mode()
	if err != nil {
		return nil, err
	}
	driverOpts := []edgedriver.DriverOption{
		edgedriver.WithOptions(opts),
		edgedriver.WithPort(cfg.Port),
	}
	if m != nil {
		driverOpts = append(driverOpts, edgedriver.WithMode(*m))
	}
	if cfg.Driver != "" {
		driverOpts = append(driverOpts, edgedriver.WithExecPath(cfg.Driver))
	}
	if cfg.Verbose {
		driverOpts = append(driverOpts, edgedriver.WithVerbose)
	}
	if cfg.LogPath != "" {
		driverOpts = append(driverOpts, edgedriver.WithServiceLogPath(cfg.LogPath))
	}
	return driverOpts, nil
}

// NetworkConditions returns the network conditions to emulate, if any.
func (cfg *Config) NetworkConditions() *edgedriver.NetworkConditions {
	if cfg.Network == nil {
		return nil
	}
	return &edgedriver.NetworkConditions{
		Offline:            cfg.Network.Offline,
		Latency:            cfg.Network.Latency,
		DownloadThroughput: cfg.Network.DownloadThroughput,
		UploadThroughput:   cfg.Network.UploadThroughput,
	}
}
