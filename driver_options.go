package edgedriver

import (
	"github.com/tebeka/selenium"
)

// DriverOption is a driver option.
type DriverOption func(*driverConfig)

// driverConfig is the configuration collected from the driver options.
type driverConfig struct {
	mode        *Mode
	options     *Options
	caps        selenium.Capabilities
	execPath    string
	port        int
	verbose     bool
	logPath     string
	serviceArgs []string
	serviceOpts []ServiceOption
	keepAlive   *bool

	// logging funcs
	logf, debugf, errorf LogFunc

	// deprecated is the list of deprecated options used, logged once all
	// options have been applied.
	deprecated [][2]string
}

func newDriverConfig(opts []DriverOption) *driverConfig {
	c := &driverConfig{
		logf:   Logger.Infof,
		debugf: Logger.Debugf,
		errorf: Logger.Errorf,
	}
	for _, o := range opts {
		o(c)
	}
	for _, d := range c.deprecated {
		c.logf("%s is deprecated, use %s instead", d[0], d[1])
	}
	return c
}

// resolveMode returns the mode of the driver. A requested mode must agree
// with the options; without one the mode is taken from the options, then
// from the ms:edgeChromium capability, then defaults to Legacy.
func (c *driverConfig) resolveMode() (Mode, error) {
	if c.mode != nil {
		m := *c.mode
		if c.options != nil {
			if m == Chromium && !c.options.UseChromium() {
				return m, ErrChromiumRequired
			}
			if m == Legacy && c.options.UseChromium() {
				return m, ErrLegacyRequired
			}
		}
		return m, nil
	}
	if c.options != nil {
		return c.options.Mode(), nil
	}
	if chromiumRequested(c.caps) {
		return Chromium, nil
	}
	return Legacy, nil
}

// capabilities returns the capabilities of the new session. Explicit
// capabilities are kept as given when there are no options; otherwise the
// options capabilities are merged on top of them.
func (c *driverConfig) capabilities(m Mode) (selenium.Capabilities, error) {
	o := c.options
	if o == nil {
		if len(c.caps) != 0 {
			return mergeCapabilities(c.caps, nil), nil
		}
		o = defaultOptions(m)
	}
	caps, err := o.ToCapabilities()
	if err != nil {
		return nil, err
	}
	return mergeCapabilities(c.caps, caps), nil
}

// serviceOptions returns the options of the driver service.
func (c *driverConfig) serviceOptions() []ServiceOption {
	opts := []ServiceOption{Port(c.port), ServiceLogf(c.logf)}
	if c.execPath != "" {
		opts = append(opts, ExecPath(c.execPath))
	}
	if c.verbose {
		opts = append(opts, Verbose)
	}
	if c.logPath != "" {
		opts = append(opts, LogPath(c.logPath))
	}
	if len(c.serviceArgs) != 0 {
		opts = append(opts, Args(c.serviceArgs...))
	}
	return append(opts, c.serviceOpts...)
}

// WithMode is a driver option to request the Legacy or Chromium driver. The
// options given with WithOptions must target the same variant.
func WithMode(m Mode) DriverOption {
	return func(c *driverConfig) {
		c.mode = &m
	}
}

// WithOptions is a driver option to set the Edge options.
func WithOptions(o *Options) DriverOption {
	return func(c *driverConfig) {
		c.options = o
	}
}

// WithCapabilities is a driver option to set extra capabilities, such as
// "proxy". Values built from the options take precedence.
func WithCapabilities(caps selenium.Capabilities) DriverOption {
	return func(c *driverConfig) {
		c.caps = caps
	}
}

// WithExecPath is a driver option to set the driver executable. Without it
// msedgedriver or MicrosoftWebDriver.exe is looked up in the path.
func WithExecPath(path string) DriverOption {
	return func(c *driverConfig) {
		c.execPath = path
	}
}

// WithPort is a driver option to set the service port. 0 picks a free port.
func WithPort(port int) DriverOption {
	return func(c *driverConfig) {
		c.port = port
	}
}

// WithVerbose is a driver option to enable verbose service logging.
func WithVerbose(c *driverConfig) {
	c.verbose = true
}

// WithServiceArgs is a driver option to pass extra arguments to the service.
func WithServiceArgs(args ...string) DriverOption {
	return func(c *driverConfig) {
		c.serviceArgs = append(c.serviceArgs, args...)
	}
}

// WithServiceLogPath is a driver option to set the service log file.
func WithServiceLogPath(path string) DriverOption {
	return func(c *driverConfig) {
		c.logPath = path
	}
}

// WithServiceOptions is a driver option to pass any ServiceOption to the
// driver service.
func WithServiceOptions(opts ...ServiceOption) DriverOption {
	return func(c *driverConfig) {
		c.serviceOpts = append(c.serviceOpts, opts...)
	}
}

// WithKeepAlive is a driver option to set whether vendor commands reuse HTTP
// connections. Defaults to true for Chromium and false for Legacy.
func WithKeepAlive(v bool) DriverOption {
	return func(c *driverConfig) {
		c.keepAlive = &v
	}
}

// WithLogf is a driver option to specify a func to receive general logging.
func WithLogf(f LogFunc) DriverOption {
	return func(c *driverConfig) {
		c.logf = f
	}
}

// WithDebugf is a driver option to specify a func to receive debug logging
// (ie, vendor command traffic).
func WithDebugf(f LogFunc) DriverOption {
	return func(c *driverConfig) {
		c.debugf = f
	}
}

// WithErrorf is a driver option to specify a func to receive error logging.
func WithErrorf(f LogFunc) DriverOption {
	return func(c *driverConfig) {
		c.errorf = f
	}
}

// WithLog is a driver option that sets the logging, debugging, and error
// funcs to f.
func WithLog(f LogFunc) DriverOption {
	return func(c *driverConfig) {
		c.logf = f
		c.debugf = f
		c.errorf = f
	}
}

// WithEdgeOptions is the former name of WithOptions.
//
// Deprecated: use WithOptions.
func WithEdgeOptions(o *Options) DriverOption {
	return func(c *driverConfig) {
		c.deprecated = append(c.deprecated, [2]string{"WithEdgeOptions", "WithOptions"})
		WithOptions(o)(c)
	}
}

// WithLogPath is the former name of WithServiceLogPath.
//
// Deprecated: use WithServiceLogPath.
func WithLogPath(path string) DriverOption {
	return func(c *driverConfig) {
		c.deprecated = append(c.deprecated, [2]string{"WithLogPath", "WithServiceLogPath"})
		WithServiceLogPath(path)(c)
	}
}
