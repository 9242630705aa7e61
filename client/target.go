package client

import (
	"fmt"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

// Target is a DevTools target, as listed by the browser.
type Target struct {
	Description          string     `json:"description"`
	DevtoolsFrontendURL  string     `json:"devtoolsFrontendUrl"`
	FaviconURL           string     `json:"faviconUrl,omitempty"`
	ID                   string     `json:"id"`
	Title                string     `json:"title"`
	Type                 TargetType `json:"type"`
	URL                  string     `json:"url"`
	WebSocketDebuggerURL string     `json:"webSocketDebuggerUrl"`
}

// String satisfies stringer.
func (t *Target) String() string {
	return fmt.Sprintf("[%s]: %q", t.ID, t.Title)
}

// TargetType are the types of targets available in Chromium browsers.
type TargetType string

// TargetType values.
const (
	BackgroundPage TargetType = "background_page"
	Browser        TargetType = "browser"
	IFrame         TargetType = "iframe"
	Other          TargetType = "other"
	Page           TargetType = "page"
	ServiceWorker  TargetType = "service_worker"
	SharedWorker   TargetType = "shared_worker"
	Webview        TargetType = "webview"
	Worker         TargetType = "worker"
)

// String satisfies stringer.
func (tt TargetType) String() string {
	return string(tt)
}

// MarshalEasyJSON satisfies easyjson.Marshaler.
func (tt TargetType) MarshalEasyJSON(out *jwriter.Writer) {
	out.String(string(tt))
}

// MarshalJSON satisfies json.Marshaler.
func (tt TargetType) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(tt)
}

// UnmarshalEasyJSON satisfies easyjson.Unmarshaler. Types not listed above
// are kept as sent.
func (tt *TargetType) UnmarshalEasyJSON(in *jlexer.Lexer) {
	*tt = TargetType(in.String())
}

// UnmarshalJSON satisfies json.Unmarshaler.
func (tt *TargetType) UnmarshalJSON(buf []byte) error {
	return easyjson.Unmarshal(buf, tt)
}
