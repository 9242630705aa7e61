// edgedriver-run starts a legacy or Chromium Edge session from a YAML
// configuration, loads a page and runs DevTools commands against it.
//
// Usage:
//
//	edgedriver-run -c run.yaml [-url https://example.com] [-mode chromium] [-headless]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/msedge/edgedriver"
)

var (
	flagConfig   = flag.String("c", "", "config file")
	flagURL      = flag.String("url", "", "url to load, overrides the config")
	flagMode     = flag.String("mode", "", "legacy or chromium, overrides the config")
	flagDriver   = flag.String("driver", "", "driver executable, overrides the config")
	flagHeadless = flag.Bool("headless", false, "run chromium edge headless")
	flagDebug    = flag.Bool("d", false, "enable debug logging")
)

func main() {
	flag.Parse()

	if *flagDebug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if err := run(context.Background(), os.Stdout); err != nil {
		logrus.Fatal(err)
	}
}

func run(ctx context.Context, w io.Writer) error {
	cfg := new(Config)
	if *flagConfig != "" {
		var err error
		if cfg, err = LoadConfig(*flagConfig); err != nil {
			return err
		}
	}
	applyFlags(cfg)

	opts, err := cfg.DriverOptions()
	if err != nil {
		return err
	}
	d, err := edgedriver.NewDriver(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Quit(); err != nil {
			logrus.Errorf("could not stop driver: %v", err)
		}
	}()
	logrus.Infof("%s session %s on %s", d.Mode(), d.SessionID(), d.ServiceURL())

	if nc := cfg.NetworkConditions(); nc != nil {
		if err := d.SetNetworkConditions(ctx, nc); err != nil {
			return err
		}
	}
	for _, id := range cfg.Apps {
		logrus.Infof("launching app %s", id)
		if err := d.LaunchApp(ctx, id); err != nil {
			return err
		}
	}

	if cfg.URL != "" {
		logrus.Infof("opening %s", cfg.URL)
		if err := d.Get(cfg.URL); err != nil {
			return err
		}
		doc, err := d.Document()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "title: %s\nlinks: %d\n", doc.Find("title").First().Text(), doc.Find("a[href]").Length())
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, c := range cfg.Commands {
		logrus.Debugf("executing %s", c.Cmd)
		res, err := d.ExecuteCDP(ctx, c.Cmd, c.Params)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Cmd, err)
		}
		if err := enc.Encode(map[string]interface{}{c.Cmd: res}); err != nil {
			return err
		}
	}

	if cfg.Screenshot != "" {
		buf, err := d.Screenshot()
		if err != nil {
			logrus.Warnf("capturing screenshot: %v", err)
			return nil
		}
		if err := os.WriteFile(cfg.Screenshot, buf, 0o644); err != nil {
			logrus.Warnf("saving screenshot: %v", err)
		}
	}
	return nil
}

// applyFlags overrides the config with the command line flags.
func applyFlags(cfg *Config) {
	if *flagURL != "" {
		cfg.URL = *flagURL
	}
	if *flagMode != "" {
		cfg.Mode = *flagMode
	}
	if *flagDriver != "" {
		cfg.Driver = *flagDriver
	}
	if *flagHeadless {
		if cfg.Chromium == nil {
			cfg.Chromium = new(ChromiumConfig)
		}
		cfg.Chromium.Headless = true
	}
	if cfg.Mode == "chromium" && cfg.Chromium == nil {
		cfg.Chromium = new(ChromiumConfig)
	}
}
