package edgedriver

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/msedge/edgedriver/device"
	"github.com/tebeka/selenium"
	"golang.org/x/exp/slices"
)

// Mode is the Edge variant a driver is started for.
type Mode int

// Mode values.
const (
	// Legacy is EdgeHTML Edge, driven by MicrosoftWebDriver.exe.
	Legacy Mode = iota

	// Chromium is Chromium Edge, driven by msedgedriver.
	Chromium
)

// String satisfies fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case Legacy:
		return "legacy"
	case Chromium:
		return "chromium"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// PageLoadStrategy is the WebDriver page load strategy.
type PageLoadStrategy string

// PageLoadStrategy values.
const (
	PageLoadNormal PageLoadStrategy = "normal"
	PageLoadEager  PageLoadStrategy = "eager"
	PageLoadNone   PageLoadStrategy = "none"
)

// Capability keys and browser names.
const (
	// OptionsKey is the capability holding the Chromium Edge options.
	OptionsKey = "ms:edgeOptions"

	// ChromiumKey is the capability telling the service which Edge variant
	// is requested.
	ChromiumKey = "ms:edgeChromium"

	BrowserNameLegacy   = "MicrosoftEdge"
	BrowserNameChromium = "msedge"
	BrowserNameWebView  = "webview2"
)

// goos is the host operating system, as reported by runtime.GOOS.
var goos = runtime.GOOS

// Options holds the configuration used to build the capabilities of a new
// Edge session.
//
// The Chromium specific options are only reachable through Chromium, which
// is nil for legacy options.
type Options struct {
	pageLoadStrategy PageLoadStrategy
	capabilities     selenium.Capabilities
	chromium         *ChromiumOptions
}

// NewOptions creates options for legacy Edge.
func NewOptions() *Options {
	return &Options{
		pageLoadStrategy: PageLoadNormal,
		capabilities:     make(selenium.Capabilities),
	}
}

// NewChromiumOptions creates options for Chromium Edge.
func NewChromiumOptions() *Options {
	o := NewOptions()
	o.SetUseChromium(true)
	return o
}

// defaultOptions returns the options used when a driver is created without
// any.
func defaultOptions(m Mode) *Options {
	if m == Chromium {
		return NewChromiumOptions()
	}
	return NewOptions()
}

// UseChromium reports whether the options target Chromium Edge.
func (o *Options) UseChromium() bool {
	return o.chromium != nil
}

// SetUseChromium switches the options between Chromium and legacy Edge.
// Switching to legacy discards all Chromium specific options.
func (o *Options) SetUseChromium(v bool) {
	switch {
	case v && o.chromium == nil:
		o.chromium = &ChromiumOptions{
			experimental: make(map[string]interface{}),
		}
	case !v:
		o.chromium = nil
	}
}

// Mode returns the Edge variant of the options.
func (o *Options) Mode() Mode {
	if o.UseChromium() {
		return Chromium
	}
	return Legacy
}

// Chromium returns the Chromium specific options, or nil for legacy options.
func (o *Options) Chromium() *ChromiumOptions {
	return o.chromium
}

// PageLoadStrategy returns the page load strategy.
func (o *Options) PageLoadStrategy() PageLoadStrategy {
	return o.pageLoadStrategy
}

// SetPageLoadStrategy sets the page load strategy. Only normal, eager and
// none are accepted.
func (o *Options) SetPageLoadStrategy(s PageLoadStrategy) error {
	switch s {
	case PageLoadNormal, PageLoadEager, PageLoadNone:
	default:
		return fmt.Errorf("%w: page load strategy should be 'normal', 'eager' or 'none', got %q", ErrInvalidArgument, string(s))
	}
	o.pageLoadStrategy = s
	return nil
}

// Capabilities returns the capabilities set with SetCapability.
func (o *Options) Capabilities() selenium.Capabilities {
	return o.capabilities
}

// SetCapability sets a capability, replacing any previous value.
func (o *Options) SetCapability(name string, value interface{}) {
	o.capabilities[name] = value
}

// ChromiumOptions are the options only understood by Chromium Edge. They are
// sent to msedgedriver under the ms:edgeOptions capability.
type ChromiumOptions struct {
	binaryLocation  string
	debuggerAddress string
	useWebView      bool
	args            []string
	headlessAdded   []string
	extensionFiles  []string
	extensions      []string
	experimental    map[string]interface{}
}

// BinaryLocation returns the path of the Edge binary, if set.
func (c *ChromiumOptions) BinaryLocation() string {
	return c.binaryLocation
}

// SetBinaryLocation sets the path of the Edge binary to launch.
func (c *ChromiumOptions) SetBinaryLocation(path string) {
	c.binaryLocation = path
}

// DebuggerAddress returns the address of the DevTools instance to attach to.
func (c *ChromiumOptions) DebuggerAddress() string {
	return c.debuggerAddress
}

// SetDebuggerAddress sets the address (hostname[:port]) of an already
// running DevTools instance that msedgedriver connects to instead of
// launching a browser.
func (c *ChromiumOptions) SetDebuggerAddress(addr string) {
	c.debuggerAddress = addr
}

// UseWebView reports whether a WebView2 application is automated.
func (c *ChromiumOptions) UseWebView() bool {
	return c.useWebView
}

// SetUseWebView requests a WebView2 session instead of the Edge browser.
func (c *ChromiumOptions) SetUseWebView(v bool) {
	c.useWebView = v
}

// Arguments returns a copy of the browser command line arguments.
func (c *ChromiumOptions) Arguments() []string {
	return slices.Clone(c.args)
}

// AddArgument adds a browser command line argument.
func (c *ChromiumOptions) AddArgument(arg string) error {
	if arg == "" {
		return fmt.Errorf("%w: argument can not be empty", ErrInvalidArgument)
	}
	c.args = append(c.args, arg)
	return nil
}

// SetWindowSize adds the --window-size argument.
func (c *ChromiumOptions) SetWindowSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: window size must be positive, got %dx%d", ErrInvalidArgument, width, height)
	}
	return c.AddArgument(fmt.Sprintf("--window-size=%d,%d", width, height))
}

// headlessArgs are the arguments toggled by SetHeadless.
func headlessArgs() []string {
	if strings.EqualFold(goos, "windows") {
		return []string{"--headless", "--disable-gpu"}
	}
	return []string{"--headless"}
}

// Headless reports whether the --headless argument is set.
func (c *ChromiumOptions) Headless() bool {
	return slices.Contains(c.args, "--headless")
}

// SetHeadless adds or removes the headless arguments. On Windows hosts
// --disable-gpu is toggled together with --headless. Only arguments added by
// SetHeadless are removed again, except --headless itself.
func (c *ChromiumOptions) SetHeadless(v bool) {
	if v {
		for _, a := range headlessArgs() {
			if !slices.Contains(c.args, a) {
				c.args = append(c.args, a)
				c.headlessAdded = append(c.headlessAdded, a)
			}
		}
		return
	}
	args := c.args[:0]
	for _, a := range c.args {
		if a != "--headless" && !slices.Contains(c.headlessAdded, a) {
			args = append(args, a)
		}
	}
	c.args, c.headlessAdded = args, nil
}

// AddExtension queues a packed (.crx) extension to be loaded into the
// browser. The file is read when the capabilities are built.
func (c *ChromiumOptions) AddExtension(path string) error {
	if path == "" {
		return fmt.Errorf("%w: extension path can not be empty", ErrInvalidArgument)
	}
	abs, err := expandPath(path)
	if err != nil {
		return err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("path to the extension doesn't exist: %w", err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%w: extension %s is a directory", ErrInvalidArgument, abs)
	}
	c.extensionFiles = append(c.extensionFiles, abs)
	return nil
}

// AddEncodedExtension adds a base64 encoded extension.
func (c *ChromiumOptions) AddEncodedExtension(data string) error {
	if data == "" {
		return fmt.Errorf("%w: encoded extension can not be empty", ErrInvalidArgument)
	}
	c.extensions = append(c.extensions, data)
	return nil
}

// Extensions returns the base64 encoded extensions: the queued extension
// files first, then the pre-encoded ones.
func (c *ChromiumOptions) Extensions() ([]string, error) {
	encoded := make([]string, 0, len(c.extensionFiles)+len(c.extensions))
	for _, path := range c.extensionFiles {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read extension: %w", err)
		}
		encoded = append(encoded, base64.StdEncoding.EncodeToString(buf))
	}
	return append(encoded, c.extensions...), nil
}

// ExperimentalOptions returns the experimental options.
func (c *ChromiumOptions) ExperimentalOptions() map[string]interface{} {
	return c.experimental
}

// AddExperimentalOption sets an experimental option, replacing any previous
// value.
func (c *ChromiumOptions) AddExperimentalOption(name string, value interface{}) {
	c.experimental[name] = value
}

// EmulateDevice sets the mobileEmulation experimental option from a device
// preset.
func (c *ChromiumOptions) EmulateDevice(d device.Device) {
	c.AddExperimentalOption("mobileEmulation", d.Device().MobileEmulation())
}

// expandPath expands a leading ~ and makes path absolute.
func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, path[1:])
	}
	return filepath.Abs(path)
}
