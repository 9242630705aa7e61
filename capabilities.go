package edgedriver

import (
	"github.com/tebeka/selenium"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ToCapabilities builds the capabilities requesting a new session with the
// options. A new map is built on every call.
//
// Legacy options produce a top level pageLoadStrategy and no ms:edgeOptions;
// Chromium options produce ms:edgeOptions and no top level
// pageLoadStrategy. The only side effect is reading queued extension files.
func (o *Options) ToCapabilities() (selenium.Capabilities, error) {
	caps := make(selenium.Capabilities, len(o.capabilities)+4)
	maps.Copy(caps, o.capabilities)

	if o.chromium == nil {
		delete(caps, OptionsKey)
		caps["browserName"] = BrowserNameLegacy
		caps["pageLoadStrategy"] = string(o.pageLoadStrategy)
		caps[ChromiumKey] = false
		return caps, nil
	}

	edgeOpts, err := o.chromium.capability()
	if err != nil {
		return nil, err
	}
	delete(caps, "pageLoadStrategy")
	caps["browserName"] = BrowserNameChromium
	if o.chromium.useWebView {
		caps["browserName"] = BrowserNameWebView
	}
	caps[OptionsKey] = edgeOpts
	caps[ChromiumKey] = true
	return caps, nil
}

// capability builds the ms:edgeOptions value.
func (c *ChromiumOptions) capability() (map[string]interface{}, error) {
	extensions, err := c.Extensions()
	if err != nil {
		return nil, err
	}

	m := make(map[string]interface{}, len(c.experimental)+4)
	maps.Copy(m, c.experimental)
	m["extensions"] = extensions
	if c.binaryLocation != "" {
		m["binary"] = c.binaryLocation
	}
	args := slices.Clone(c.args)
	if args == nil {
		args = []string{}
	}
	m["args"] = args
	if c.debuggerAddress != "" {
		m["debuggerAddress"] = c.debuggerAddress
	}
	return m, nil
}

// mergeCapabilities returns a new map holding base overlaid with top.
func mergeCapabilities(base, top selenium.Capabilities) selenium.Capabilities {
	caps := make(selenium.Capabilities, len(base)+len(top))
	maps.Copy(caps, base)
	maps.Copy(caps, top)
	return caps
}

// chromiumRequested reports whether caps ask for Chromium Edge.
func chromiumRequested(caps selenium.Capabilities) bool {
	v, _ := caps[ChromiumKey].(bool)
	return v
}

// debuggerAddress returns the debuggerAddress held in the ms:edgeOptions of
// caps, if any.
func debuggerAddress(caps selenium.Capabilities) string {
	var addr interface{}
	switch m := caps[OptionsKey].(type) {
	case map[string]interface{}:
		addr = m["debuggerAddress"]
	case selenium.Capabilities:
		addr = m["debuggerAddress"]
	}
	s, _ := addr.(string)
	return s
}
