package edgedriver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/tebeka/selenium"
)

// fakeWebDriver is the session returned by the stubbed newRemote.
type fakeWebDriver struct {
	selenium.WebDriver

	id      string
	caps    selenium.Capabilities
	source  string
	quitErr error
	quits   int
}

func (wd *fakeWebDriver) SessionID() string {
	return wd.id
}

func (wd *fakeWebDriver) Quit() error {
	wd.quits++
	return wd.quitErr
}

func (wd *fakeWebDriver) Capabilities() (selenium.Capabilities, error) {
	return wd.caps, nil
}

func (wd *fakeWebDriver) PageSource() (string, error) {
	return wd.source, nil
}

// stubRemote replaces newRemote for the duration of the test. The stub
// checks the service answers before returning wd, and records the
// capabilities it was called with.
func stubRemote(t *testing.T, wd *fakeWebDriver, err error) *selenium.Capabilities {
	t.Helper()
	requested := new(selenium.Capabilities)
	orig := newRemote
	newRemote = func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error) {
		*requested = caps
		res, herr := http.Get(urlPrefix + "/status")
		if herr != nil {
			t.Errorf("expected service to be running: %v", herr)
			return nil, herr
		}
		res.Body.Close()
		if err != nil {
			return nil, err
		}
		return wd, nil
	}
	t.Cleanup(func() { newRemote = orig })
	return requested
}

// logRecorder collects log messages.
type logRecorder struct {
	mu   sync.Mutex
	msgs []string
}

func (l *logRecorder) logf(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, fmt.Sprintf(format, v...))
}

func (l *logRecorder) contains(s string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.msgs {
		if strings.Contains(m, s) {
			return true
		}
	}
	return false
}

func fakeDriverOptions(t *testing.T, opts ...DriverOption) []DriverOption {
	return append([]DriverOption{
		WithExecPath(testExecutable(t)),
		WithServiceOptions(Env(fakeDriverEnv + "=1")),
		WithLog(t.Logf),
	}, opts...)
}

func TestNewDriverModeMismatch(t *testing.T) {
	newRemote = func(selenium.Capabilities, string) (selenium.WebDriver, error) {
		t.Fatal("expected no session to be created")
		return nil, nil
	}
	defer func() { newRemote = selenium.NewRemote }()

	_, err := NewDriver(context.Background(),
		WithMode(Chromium),
		WithOptions(NewOptions()),
		WithExecPath("/no/such/driver"),
	)
	if err != ErrChromiumRequired {
		t.Errorf("expected ErrChromiumRequired, got %v", err)
	}
	if exp := "options.use_chromium must be set to true when using an Edge Chromium driver service."; err.Error() != exp {
		t.Errorf("expected %q, got %q", exp, err.Error())
	}

	_, err = NewDriver(context.Background(),
		WithMode(Legacy),
		WithOptions(NewChromiumOptions()),
		WithExecPath("/no/such/driver"),
	)
	if err != ErrLegacyRequired {
		t.Errorf("expected ErrLegacyRequired, got %v", err)
	}
	if exp := "options.use_chromium must be set to false when using an Edge Legacy driver service."; err.Error() != exp {
		t.Errorf("expected %q, got %q", exp, err.Error())
	}
}

func TestResolveMode(t *testing.T) {
	tests := []struct {
		name string
		opts []DriverOption
		exp  Mode
	}{
		{"default", nil, Legacy},
		{"options", []DriverOption{WithOptions(NewChromiumOptions())}, Chromium},
		{"mode", []DriverOption{WithMode(Chromium)}, Chromium},
		{"capabilities", []DriverOption{WithCapabilities(selenium.Capabilities{ChromiumKey: true})}, Chromium},
		{"options over capabilities", []DriverOption{
			WithCapabilities(selenium.Capabilities{ChromiumKey: true}),
			WithOptions(NewOptions()),
		}, Legacy},
	}
	for _, test := range tests {
		m, err := newDriverConfig(test.opts).resolveMode()
		if err != nil {
			t.Errorf("%s: expected no error, got %v", test.name, err)
			continue
		}
		if m != test.exp {
			t.Errorf("%s: expected %v, got %v", test.name, test.exp, m)
		}
	}
}

func TestDriverCapabilities(t *testing.T) {
	// explicit capabilities are merged below the options
	c := newDriverConfig([]DriverOption{
		WithCapabilities(selenium.Capabilities{"proxy": map[string]interface{}{"proxyType": "direct"}, "browserName": "x"}),
		WithOptions(NewChromiumOptions()),
	})
	caps, err := c.capabilities(Chromium)
	if err != nil {
		t.Fatal(err)
	}
	if caps["browserName"] != "msedge" || caps["proxy"] == nil {
		t.Errorf("unexpected capabilities %v", caps)
	}

	// explicit capabilities alone are kept as given
	c = newDriverConfig([]DriverOption{WithCapabilities(selenium.Capabilities{"browserName": "MicrosoftEdge", "platformName": "windows"})})
	caps, err = c.capabilities(Legacy)
	if err != nil {
		t.Fatal(err)
	}
	if len(caps) != 2 || caps["platformName"] != "windows" {
		t.Errorf("unexpected capabilities %v", caps)
	}

	// defaults of the mode
	caps, err = newDriverConfig(nil).capabilities(Chromium)
	if err != nil {
		t.Fatal(err)
	}
	if caps["browserName"] != "msedge" || caps[ChromiumKey] != true {
		t.Errorf("unexpected capabilities %v", caps)
	}
}

func TestDeprecatedOptions(t *testing.T) {
	l := new(logRecorder)
	c := newDriverConfig([]DriverOption{
		WithLogf(l.logf),
		WithEdgeOptions(NewChromiumOptions()),
		WithLogPath("/tmp/msedgedriver.log"),
	})
	if c.options == nil || !c.options.UseChromium() {
		t.Error("expected WithEdgeOptions to set the options")
	}
	if c.logPath != "/tmp/msedgedriver.log" {
		t.Errorf("expected WithLogPath to set the service log path, got %q", c.logPath)
	}
	for _, s := range []string{
		"WithEdgeOptions is deprecated, use WithOptions instead",
		"WithLogPath is deprecated, use WithServiceLogPath instead",
	} {
		if !l.contains(s) {
			t.Errorf("expected %q to be logged, got %q", s, l.msgs)
		}
	}
}

func TestNewDriver(t *testing.T) {
	wd := &fakeWebDriver{
		id:     "fake-session",
		caps:   selenium.Capabilities{OptionsKey: map[string]interface{}{"debuggerAddress": "localhost:51234"}},
		source: `<html><body><h1 id="title">Edge</h1></body></html>`,
	}
	requested := stubRemote(t, wd, nil)

	opts := NewChromiumOptions()
	opts.Chromium().SetHeadless(true)
	d, err := NewDriver(context.Background(), fakeDriverOptions(t, WithOptions(opts))...)
	if err != nil {
		t.Fatal(err)
	}
	if d.Mode() != Chromium {
		t.Errorf("expected chromium, got %v", d.Mode())
	}
	if (*requested)["browserName"] != "msedge" {
		t.Errorf("unexpected requested capabilities %v", *requested)
	}
	if !strings.HasPrefix(d.ServiceURL(), "http://localhost:") {
		t.Errorf("unexpected service url %q", d.ServiceURL())
	}
	if d.SessionCapabilities()[ChromiumKey] != true {
		t.Errorf("unexpected session capabilities %v", d.SessionCapabilities())
	}

	doc, err := d.Document()
	if err != nil {
		t.Fatal(err)
	}
	if s := doc.Find("#title").Text(); s != "Edge" {
		t.Errorf("expected Edge, got %q", s)
	}

	ctx := context.Background()
	res, err := d.ExecuteCDP(ctx, "Test.echo", map[string]interface{}{"a": "b"})
	if err != nil {
		t.Fatal(err)
	}
	if res["a"] != "b" {
		t.Errorf("expected echoed params, got %v", res)
	}
	res, err = d.ExecuteCDP(ctx, "Network.enable", nil)
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || len(res) != 0 {
		t.Errorf("expected empty result, got %v", res)
	}
	var cerr *CommandError
	if _, err := d.ExecuteCDP(ctx, "Nope.nope", nil); !errors.As(err, &cerr) {
		t.Errorf("expected *CommandError, got %v", err)
	}

	protocolVersion, product, _, _, _, err := browser.GetVersion().Do(cdp.WithExecutor(ctx, d))
	if err != nil {
		t.Fatal(err)
	}
	if protocolVersion != "1.3" || !strings.HasPrefix(product, "Edg/") {
		t.Errorf("unexpected version %q %q", protocolVersion, product)
	}

	if _, err := d.GetNetworkConditions(ctx); !errors.As(err, &cerr) {
		t.Errorf("expected *CommandError before conditions are set, got %v", err)
	}
	nc := &NetworkConditions{Latency: 5, DownloadThroughput: 500 * 1024, UploadThroughput: 500 * 1024}
	if err := d.SetNetworkConditions(ctx, nc); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetNetworkConditions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *nc {
		t.Errorf("expected %+v, got %+v", nc, got)
	}
	if err := d.DeleteNetworkConditions(ctx); err != nil {
		t.Fatal(err)
	}
	if err := d.LaunchApp(ctx, "aohghmighlieiainnegkcijnfilokake"); err != nil {
		t.Fatal(err)
	}

	svc := d.Service()
	if err := d.Quit(); err != nil {
		t.Fatal(err)
	}
	if wd.quits != 1 {
		t.Errorf("expected session to be quit once, got %d", wd.quits)
	}
	if svc.Running() {
		t.Error("expected service to be stopped")
	}
}

func TestDriverQuitError(t *testing.T) {
	wd := &fakeWebDriver{id: "fake-session", quitErr: errors.New("session already closed")}
	stubRemote(t, wd, nil)

	l := new(logRecorder)
	d, err := NewDriver(context.Background(), fakeDriverOptions(t, WithMode(Legacy), WithErrorf(l.logf))...)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Quit(); err != nil {
		t.Errorf("expected quit error to be swallowed, got %v", err)
	}
	if !l.contains("session already closed") {
		t.Errorf("expected quit error to be logged, got %q", l.msgs)
	}
	if d.Service().Running() {
		t.Error("expected service to be stopped")
	}
	if err := d.Quit(); err != nil {
		t.Errorf("expected second quit to be a no-op for the service, got %v", err)
	}
}

func TestNewDriverSessionError(t *testing.T) {
	stubRemote(t, nil, errors.New("session not created"))

	var svc *Service
	d, err := NewDriver(context.Background(), fakeDriverOptions(t,
		WithMode(Chromium),
		WithServiceOptions(func(s *Service) { svc = s }),
	)...)
	if err == nil || d != nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "session not created") {
		t.Errorf("expected session error, got %v", err)
	}
	if svc == nil || svc.Running() {
		t.Error("expected service to be stopped")
	}
}

func TestDriverDevToolsLegacy(t *testing.T) {
	stubRemote(t, &fakeWebDriver{id: "fake-session"}, nil)

	d, err := NewDriver(context.Background(), fakeDriverOptions(t)...)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Quit()
	if d.Mode() != Legacy {
		t.Fatalf("expected legacy by default, got %v", d.Mode())
	}
	if _, err := d.DevTools(context.Background()); !errors.Is(err, ErrNoDevTools) {
		t.Errorf("expected ErrNoDevTools, got %v", err)
	}
}
