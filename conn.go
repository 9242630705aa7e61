package edgedriver

import (
	"context"
	"io"
	"net"
	"strings"
	"time"

	"github.com/chromedp/cdproto"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/mailru/easyjson"
)

// Transport is the common interface to send/receive messages to a target.
type Transport interface {
	Read(context.Context) (*cdproto.Message, error)
	Write(context.Context, *cdproto.Message) error
	io.Closer
}

// Conn implements Transport with a gobwas/ws websocket connection.
type Conn struct {
	conn net.Conn
	rw   io.ReadWriter
}

// DialContext dials the specified websocket URL using gobwas/ws.
func DialContext(ctx context.Context, urlstr string) (*Conn, error) {
	conn, br, _, err := ws.Dial(ctx, urlstr)
	if err != nil {
		return nil, err
	}

	var rw io.ReadWriter = conn
	if br != nil {
		// the server sent frames along with the handshake
		rw = struct {
			io.Reader
			io.Writer
		}{io.MultiReader(br, conn), conn}
	}
	return &Conn{conn: conn, rw: rw}, nil
}

// watch applies ctx to the connection until the returned func is called
// with the result of the I/O. A cancelled ctx unblocks the pending I/O, which
// then fails with ctx.Err().
func (c *Conn) watch(ctx context.Context) (func(error) error, error) {
	dl, hasDeadline := ctx.Deadline()
	if err := c.conn.SetDeadline(dl); err != nil {
		return nil, err
	}
	if ctx.Done() == nil {
		return func(err error) error { return err }, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done, stopped := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			c.conn.SetDeadline(time.Now())
		case <-done:
		}
	}()
	return func(err error) error {
		close(done)
		<-stopped
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		case hasDeadline && !time.Now().Before(dl):
			// the socket deadline can fire before the context's timer
			return context.DeadlineExceeded
		}
		return err
	}, nil
}

// Read reads the next message.
func (c *Conn) Read(ctx context.Context) (*cdproto.Message, error) {
	release, err := c.watch(ctx)
	if err != nil {
		return nil, err
	}
	buf, _, err := wsutil.ReadServerData(c.rw)
	if err = release(err); err != nil {
		return nil, err
	}
	msg := new(cdproto.Message)
	if err := easyjson.Unmarshal(buf, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Write writes a message.
func (c *Conn) Write(ctx context.Context, msg *cdproto.Message) error {
	buf, err := easyjson.Marshal(msg)
	if err != nil {
		return err
	}
	release, err := c.watch(ctx)
	if err != nil {
		return err
	}
	return release(wsutil.WriteClientText(c.rw, buf))
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.conn.SetWriteDeadline(time.Now().Add(time.Second))
	wsutil.WriteClientMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusNormalClosure, ""))
	return c.conn.Close()
}

// ForceIP forces the host component in urlstr to be an IP address.
//
// Since Chrome 66+, Chrome DevTools Protocol clients connecting to a browser
// must send the "Host:" header as either an IP address, or "localhost".
func ForceIP(urlstr string) string {
	if i := strings.Index(urlstr, "://"); i != -1 {
		scheme := urlstr[:i+3]
		host, port, path := urlstr[len(scheme):], "", ""
		if i := strings.Index(host, "/"); i != -1 {
			host, path = host[:i], host[i:]
		}
		if i := strings.Index(host, ":"); i != -1 {
			host, port = host[:i], host[i:]
		}
		if addr, err := net.ResolveIPAddr("ip", host); err == nil {
			urlstr = scheme + addr.IP.String() + port + path
		}
	}
	return urlstr
}
