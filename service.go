package edgedriver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// LegacyDriver is the legacy Edge driver executable name.
	LegacyDriver = `MicrosoftWebDriver.exe`

	// DefaultStartTimeout is how long Start waits for the service to answer
	// its status endpoint.
	DefaultStartTimeout = 20 * time.Second

	// statusPollInterval is the interval between status checks while
	// starting.
	statusPollInterval = 100 * time.Millisecond

	// shutdownGrace is how long Stop waits for a service to exit after the
	// shutdown command before killing it.
	shutdownGrace = 2 * time.Second
)

// Service is a driver service process (msedgedriver or
// MicrosoftWebDriver.exe) listening on a local port.
type Service struct {
	mode         Mode
	execPath     string
	port         int
	args         []string
	env          []string
	output       io.Writer
	logPath      string
	verbose      bool
	silent       bool
	startTimeout time.Duration
	logf         LogFunc

	// legacy
	host string
	pkg  string
	w3c  *bool

	// chromium
	adbPort        int
	urlBase        string
	portServer     string
	whitelistedIPs string

	rw      sync.RWMutex
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	logFile *os.File
	stopped bool
	url     string
}

// ServiceOption is a driver service option.
type ServiceOption func(*Service)

// NewService creates a driver service for the given Edge variant. The
// process is started by Start.
func NewService(mode Mode, opts ...ServiceOption) *Service {
	s := &Service{
		mode:         mode,
		startTimeout: DefaultStartTimeout,
		logf:         nopLogf,
	}
	for _, o := range opts {
		o(s)
	}
	if s.execPath == "" {
		s.execPath = LookDriver(mode)
	}
	return s
}

// LookDriver looks for the driver executable of the given mode, and any
// additional names, using exec.LookPath, returning the first encountered
// location or the default executable name if none is found.
func LookDriver(mode Mode, additional ...string) string {
	name := LegacyDriver
	if mode == Chromium {
		name = DefaultChromiumDriver
	}
	names := append(append([]string{}, additional...), name)
	if mode == Legacy {
		names = append(names, legacyDriverPaths...)
	}
	for _, p := range names {
		path, err := exec.LookPath(p)
		if err == nil {
			return path
		}
	}
	return name
}

// Mode returns the Edge variant of the service.
func (s *Service) Mode() Mode {
	return s.mode
}

// Executable returns the driver executable run by the service.
func (s *Service) Executable() string {
	return s.execPath
}

// Port returns the port the service listens on. It is 0 until Start when no
// port was given.
func (s *Service) Port() int {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return s.port
}

// URL returns the base URL of the running service.
func (s *Service) URL() string {
	s.rw.RLock()
	defer s.rw.RUnlock()
	return s.url
}

// Running reports whether the service process is running.
func (s *Service) Running() bool {
	s.rw.RLock()
	defer s.rw.RUnlock()
	if s.cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// buildArgs generates the command line options for the driver.
func (s *Service) buildArgs() []string {
	args := []string{"--port=" + strconv.Itoa(s.port)}

	switch s.mode {
	case Chromium:
		if s.adbPort > 0 {
			args = append(args, "--adb-port="+strconv.Itoa(s.adbPort))
		}
		if s.silent {
			args = append(args, "--silent")
		}
		if s.verbose {
			args = append(args, "--verbose")
		}
		if s.logPath != "" {
			args = append(args, "--log-path="+s.logPath)
		}
		if s.urlBase != "" {
			args = append(args, "--url-base="+s.urlBase)
		}
		if s.portServer != "" {
			args = append(args, "--port-server="+s.portServer)
		}
		if s.whitelistedIPs != "" {
			args = append(args, "--whitelisted-ips="+s.whitelistedIPs)
		}

	default:
		if s.host != "" {
			args = append(args, "--host="+s.host)
		}
		if s.pkg != "" {
			args = append(args, "--package="+s.pkg)
		}
		if s.verbose {
			args = append(args, "--verbose")
		}
		if s.silent {
			args = append(args, "--silent")
		}
		if s.w3c != nil {
			if *s.w3c {
				args = append(args, "--w3c")
			} else {
				args = append(args, "--jwp")
			}
		}
	}

	return append(args, s.args...)
}

// Start starts the driver process and blocks until it answers its status
// endpoint. The context bounds the startup wait only; the process runs until
// Stop. The service is not locked during the wait, so Stop may be called
// concurrently to abort it.
func (s *Service) Start(ctx context.Context) error {
	url, done, err := s.start()
	if err != nil {
		return err
	}

	if err := s.waitReady(ctx, url, done); err != nil {
		s.rw.Lock()
		defer s.rw.Unlock()
		if !s.stopped {
			s.stopped = true
			s.kill()
		}
		return err
	}
	s.logf("started %s (%s) on port %d", s.execPath, s.mode, s.Port())
	return nil
}

// start starts the process and returns the service URL and the channel
// closed when the process exits.
func (s *Service) start() (string, <-chan struct{}, error) {
	s.rw.Lock()
	defer s.rw.Unlock()

	if s.cmd != nil {
		return "", nil, ErrAlreadyStarted
	}

	if s.port == 0 {
		port, err := freePort()
		if err != nil {
			return "", nil, fmt.Errorf("could not find a free port: %w", err)
		}
		s.port = port
	}

	cmd := exec.Command(s.execPath, s.buildArgs()...)
	if len(s.env) != 0 {
		cmd.Env = append(os.Environ(), s.env...)
	}

	out := s.output
	if s.mode == Legacy && s.logPath != "" {
		// MicrosoftWebDriver.exe has no log file flag, so its output is
		// appended to the file instead.
		f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return "", nil, fmt.Errorf("could not open service log: %w", err)
		}
		s.logFile = f
		if out != nil {
			out = io.MultiWriter(out, f)
		} else {
			out = f
		}
	}
	cmd.Stdout = out
	cmd.Stderr = out
	serviceCmdOptions(cmd)

	if err := cmd.Start(); err != nil {
		s.closeLog()
		return "", nil, fmt.Errorf("could not start %s: %w", s.execPath, err)
	}
	s.cmd = cmd
	s.done = make(chan struct{})
	go func() {
		s.waitErr = cmd.Wait()
		close(s.done)
	}()

	s.url = "http://localhost:" + strconv.Itoa(s.port)
	if base := strings.Trim(s.urlBase, "/"); s.mode == Chromium && base != "" {
		s.url += "/" + base
	}
	return s.url, s.done, nil
}

// waitReady polls the status endpoint until the service answers, the process
// exits, or the start timeout expires.
func (s *Service) waitReady(ctx context.Context, url string, done <-chan struct{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.startTimeout)
	defer cancel()

	cl := &http.Client{}
	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()
	for {
		if connectable(ctx, cl, url) {
			return nil
		}
		select {
		case <-done:
			return fmt.Errorf("%w: %s exited: %v", ErrServiceNotReady, s.execPath, s.waitErr)
		case <-ctx.Done():
			return fmt.Errorf("%w: %s at %s: %v", ErrServiceNotReady, s.execPath, url, ctx.Err())
		case <-ticker.C:
		}
	}
}

func connectable(ctx context.Context, cl *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/status", nil)
	if err != nil {
		return false
	}
	res, err := cl.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)
	return res.StatusCode == http.StatusOK
}

// Stop stops the driver process. Chromium services are first asked to shut
// down; the process is killed if it is still running afterwards. Only the
// first call has an effect.
func (s *Service) Stop() error {
	s.rw.Lock()
	defer s.rw.Unlock()

	if s.cmd == nil || s.stopped {
		return nil
	}
	s.stopped = true

	if s.mode == Chromium {
		s.shutdown()
		select {
		case <-s.done:
		case <-time.After(shutdownGrace):
		}
	}
	if err := s.kill(); err != nil {
		return err
	}
	s.logf("stopped %s on port %d", s.execPath, s.port)
	return nil
}

// shutdown sends the shutdown command, ignoring any error.
func (s *Service) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/shutdown", nil)
	if err != nil {
		return
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, res.Body)
	res.Body.Close()
}

// kill kills the process if it is still running and waits for it.
func (s *Service) kill() error {
	defer s.closeLog()
	select {
	case <-s.done:
		return nil
	default:
	}
	if err := s.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	<-s.done
	return nil
}

func (s *Service) closeLog() {
	if s.logFile != nil {
		s.logFile.Close()
		s.logFile = nil
	}
}

// freePort asks the kernel for a free local port.
func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// ExecPath is a service option to set the driver executable. The given path
// can be an absolute path to a binary, or just the name of the program to
// find via exec.LookPath.
func ExecPath(path string) ServiceOption {
	return func(s *Service) {
		if fullPath, _ := exec.LookPath(path); fullPath != "" {
			// Convert to an absolute path if possible, to avoid
			// repeated LookPath calls.
			path = fullPath
		}
		s.execPath = path
	}
}

// Port is a service option to set the port. 0 picks a free port.
func Port(port int) ServiceOption {
	return func(s *Service) {
		s.port = port
	}
}

// Args is a service option to append extra driver command line arguments.
func Args(args ...string) ServiceOption {
	return func(s *Service) {
		s.args = append(s.args, args...)
	}
}

// Env is a service option to add environment variables (key=value) to the
// driver process.
func Env(env ...string) ServiceOption {
	return func(s *Service) {
		s.env = append(s.env, env...)
	}
}

// Output is a service option to send the driver's stdout and stderr to w.
func Output(w io.Writer) ServiceOption {
	return func(s *Service) {
		s.output = w
	}
}

// LogPath is a service option to set the driver log file.
func LogPath(path string) ServiceOption {
	return func(s *Service) {
		s.logPath = path
	}
}

// Verbose is the service option to enable verbose driver logging.
func Verbose(s *Service) {
	s.verbose = true
}

// Silent is the service option to suppress the driver's diagnostic output.
func Silent(s *Service) {
	s.silent = true
}

// StartTimeout is a service option to set how long Start waits for the
// driver to become ready.
func StartTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.startTimeout = d
	}
}

// ServiceLogf is a service option to receive start and stop messages.
func ServiceLogf(f LogFunc) ServiceOption {
	return func(s *Service) {
		s.logf = f
	}
}

// Host is a legacy service option to set the host adapter the driver
// listens on.
func Host(host string) ServiceOption {
	return func(s *Service) {
		s.host = host
	}
}

// Package is a legacy service option to set the app package the driver
// launches and automates.
func Package(pkg string) ServiceOption {
	return func(s *Service) {
		s.pkg = pkg
	}
}

// UseSpecCompliantProtocol is a legacy service option to select the W3C
// (true) or JSON wire (false) protocol dialect. Only drivers shipped with
// Windows 10 1809 and later understand it.
func UseSpecCompliantProtocol(v bool) ServiceOption {
	return func(s *Service) {
		s.w3c = &v
	}
}

// AdbPort is a Chromium service option to set the Android Debug Bridge port.
func AdbPort(port int) ServiceOption {
	return func(s *Service) {
		s.adbPort = port
	}
}

// URLBase is a Chromium service option to set the base path prefix of
// commands, eg "wd/hub".
func URLBase(base string) ServiceOption {
	return func(s *Service) {
		s.urlBase = base
	}
}

// PortServer is a Chromium service option to set the address of a server to
// contact for reserving a port.
func PortServer(addr string) ServiceOption {
	return func(s *Service) {
		s.portServer = addr
	}
}

// WhitelistedIPs is a Chromium service option to set the comma separated
// list of remote IPv4 addresses allowed to connect.
func WhitelistedIPs(ips string) ServiceOption {
	return func(s *Service) {
		s.whitelistedIPs = ips
	}
}
