package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxLogBody is the maximum number of body bytes logged per request.
const maxLogBody = 64 * 1024

// proxy forwards WebDriver requests to a driver service and DevTools
// websocket connections to a browser, logging the traffic.
type proxy struct {
	remote   *url.URL
	devtools string
	logMask  string
	stdout   io.Writer

	rp *httputil.ReverseProxy

	mu   sync.Mutex
	logs map[string]*sessionLog
}

// sessionLog is the log of a session or DevTools target.
type sessionLog struct {
	*logrus.Logger
	f io.Closer
}

func newProxy(remote, devtools, logMask string, stdout io.Writer) (*proxy, error) {
	u, err := url.Parse("http://" + remote)
	if err != nil {
		return nil, err
	}
	return &proxy{
		remote:   u,
		devtools: devtools,
		logMask:  logMask,
		stdout:   stdout,
		rp:       httputil.NewSingleHostReverseProxy(u),
		logs:     make(map[string]*sessionLog),
	}, nil
}

// Close closes the log files.
func (p *proxy) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, l := range p.logs {
		if l.f != nil {
			l.f.Close()
		}
		delete(p.logs, id)
	}
	return nil
}

// createLog returns the log for id, creating it on first use.
func (p *proxy) createLog(id string) (*logrus.Logger, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.logs[id]; ok {
		return l.Logger, nil
	}

	l := &sessionLog{Logger: logrus.New()}
	w := p.stdout
	if p.logMask != "" {
		f, err := os.OpenFile(fmt.Sprintf(p.logMask, id), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.f = f
		w = io.MultiWriter(p.stdout, f)
	}
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	p.logs[id] = l
	return l.Logger, nil
}

// sessionID returns the session id of a WebDriver command path, or "main"
// for commands outside a session.
func sessionID(urlpath string) string {
	parts := strings.Split(strings.Trim(urlpath, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "session" && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return "main"
}

func (p *proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/devtools/") {
		p.serveDevTools(w, r)
		return
	}

	id := sessionID(r.URL.Path)
	logger, err := p.createLog(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	entry := logger.WithField("request", uuid.NewString())

	var body []byte
	if r.Body != nil {
		if body, err = io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
	}
	entry.Infof("-> %s %s %s", r.Method, r.URL.Path, truncate(body))

	rec := &recorder{ResponseWriter: w}
	p.rp.ServeHTTP(rec, r)
	entry.Infof("<- %d %s", rec.status, truncate(rec.buf.Bytes()))

	// new sessions are announced in the main log
	if r.Method == http.MethodPost && strings.TrimSuffix(r.URL.Path, "/") == "/session" {
		var v struct {
			SessionID string `json:"sessionId"`
			Value     struct {
				SessionID string `json:"sessionId"`
			} `json:"value"`
		}
		if json.Unmarshal(rec.buf.Bytes(), &v) == nil {
			if s := v.Value.SessionID + v.SessionID; s != "" {
				entry.Infof("session %s created", s)
			}
		}
	}
}

// serveDevTools proxies a DevTools websocket connection.
func (p *proxy) serveDevTools(w http.ResponseWriter, r *http.Request) {
	logger, err := p.createLog(path.Base(r.URL.Path))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Infof("---------- connection from %s ----------", r.RemoteAddr)
	if p.devtools == "" {
		http.Error(w, "no devtools endpoint", http.StatusNotFound)
		return
	}

	endpoint := "ws://" + p.devtools + r.URL.Path
	logger.Infof("connecting to %s", endpoint)
	out, br, _, err := ws.Dial(r.Context(), endpoint)
	if err != nil {
		msg := fmt.Sprintf("could not connect to %s, got: %v", endpoint, err)
		logger.Error(msg)
		http.Error(w, msg, http.StatusBadGateway)
		return
	}
	defer out.Close()
	var outr io.Reader = out
	if br != nil {
		outr = io.MultiReader(br, out)
	}

	in, inbuf, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		logger.Errorf("could not upgrade websocket from %s, got: %v", r.RemoteAddr, err)
		return
	}
	defer in.Close()
	var inr io.Reader = in
	if inbuf != nil && inbuf.Reader.Buffered() > 0 {
		// the client sent frames along with the handshake
		buf, _ := inbuf.Reader.Peek(inbuf.Reader.Buffered())
		inr = io.MultiReader(bytes.NewReader(buf), in)
	}

	errc := make(chan error, 2)
	go func() {
		rw := struct {
			io.Reader
			io.Writer
		}{inr, in}
		for {
			buf, op, err := wsutil.ReadClientData(rw)
			if err != nil {
				errc <- err
				return
			}
			logger.Infof("-> %s", buf)
			if err := wsutil.WriteClientMessage(out, op, buf); err != nil {
				errc <- err
				return
			}
		}
	}()
	go func() {
		rw := struct {
			io.Reader
			io.Writer
		}{outr, out}
		for {
			buf, op, err := wsutil.ReadServerData(rw)
			if err != nil {
				errc <- err
				return
			}
			logger.Infof("<- %s", buf)
			if err := wsutil.WriteServerMessage(in, op, buf); err != nil {
				errc <- err
				return
			}
		}
	}()
	<-errc
	logger.Infof("---------- closing %s ----------", r.RemoteAddr)
}

func truncate(buf []byte) string {
	if len(buf) > maxLogBody {
		return string(buf[:maxLogBody]) + "..."
	}
	return string(buf)
}

// recorder records the response status and body.
type recorder struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (r *recorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if r.buf.Len() < maxLogBody {
		r.buf.Write(p)
	}
	return r.ResponseWriter.Write(p)
}

// Hijack satisfies http.Hijacker.
func (r *recorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijacking not supported")
	}
	return h.Hijack()
}

// Flush satisfies http.Flusher.
func (r *recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
