package edgedriver

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tebeka/selenium"
)

// newRemote opens the remote WebDriver session.
var newRemote = selenium.NewRemote

// Driver is a WebDriver session with a legacy or Chromium Edge browser,
// backed by a driver service process it owns.
//
// Standard WebDriver commands are served by the embedded selenium.WebDriver.
type Driver struct {
	selenium.WebDriver

	mode    Mode
	caps    selenium.Capabilities
	service *Service
	exec    *executor

	// logging funcs
	logf, debugf, errorf LogFunc
}

// NewDriver starts a driver service for the Edge variant selected by the
// options and opens a new session against it.
//
// When WithMode is given and the options target the other variant,
// ErrChromiumRequired or ErrLegacyRequired is returned before any process is
// started. If the session can not be created the service is stopped.
func NewDriver(ctx context.Context, opts ...DriverOption) (*Driver, error) {
	c := newDriverConfig(opts)

	mode, err := c.resolveMode()
	if err != nil {
		return nil, err
	}
	caps, err := c.capabilities(mode)
	if err != nil {
		return nil, err
	}
	keepAlive := mode == Chromium
	if c.keepAlive != nil {
		keepAlive = *c.keepAlive
	}

	svc := NewService(mode, c.serviceOptions()...)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}

	wd, err := newRemote(caps, svc.URL())
	if err != nil {
		if serr := svc.Stop(); serr != nil {
			c.errorf("could not stop %s: %v", svc.Executable(), serr)
		}
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	c.debugf("session %s created on %s", wd.SessionID(), svc.URL())

	return &Driver{
		WebDriver: wd,
		mode:      mode,
		caps:      caps,
		service:   svc,
		exec:      newExecutor(svc.URL(), keepAlive, c.debugf),
		logf:      c.logf,
		debugf:    c.debugf,
		errorf:    c.errorf,
	}, nil
}

// Mode returns the Edge variant driven.
func (d *Driver) Mode() Mode {
	return d.mode
}

// Service returns the driver service.
func (d *Driver) Service() *Service {
	return d.service
}

// ServiceURL returns the base URL of the driver service.
func (d *Driver) ServiceURL() string {
	return d.service.URL()
}

// SessionCapabilities returns the capabilities the session was requested
// with.
func (d *Driver) SessionCapabilities() selenium.Capabilities {
	return d.caps
}

// Quit closes the session and stops the driver service. A failure to close
// the session is logged and otherwise ignored, so that the service is always
// stopped.
func (d *Driver) Quit() error {
	if err := d.WebDriver.Quit(); err != nil {
		d.errorf("could not quit session: %v", err)
	}
	return d.service.Stop()
}

// execute runs a vendor command for the current session.
func (d *Driver) execute(ctx context.Context, name string, params, res interface{}) error {
	return d.exec.execute(ctx, d.SessionID(), name, params, res)
}

// LaunchApp launches the Chrome app with the given id.
func (d *Driver) LaunchApp(ctx context.Context, id string) error {
	return d.execute(ctx, CommandLaunchApp, map[string]string{"id": id}, nil)
}

// Document parses the source of the current page.
func (d *Driver) Document() (*goquery.Document, error) {
	src, err := d.PageSource()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(src))
}

// DevTools connects to the DevTools endpoint of the browser.
//
// The debugger address is taken from the ms:edgeOptions returned for the
// session, or from the requested options. Only Chromium sessions have one.
func (d *Driver) DevTools(ctx context.Context, opts ...DevToolsOption) (*DevTools, error) {
	if d.mode != Chromium {
		return nil, fmt.Errorf("%w: %s sessions do not expose devtools", ErrNoDevTools, d.mode)
	}
	addr := ""
	if caps, err := d.Capabilities(); err == nil {
		addr = debuggerAddress(caps)
	} else {
		d.debugf("could not get session capabilities: %v", err)
	}
	if addr == "" {
		addr = debuggerAddress(d.caps)
	}
	if addr == "" {
		return nil, ErrNoDevTools
	}
	return DialDevTools(ctx, addr, append([]DevToolsOption{WithDevToolsDebugf(d.debugf)}, opts...)...)
}
