// Package device contains device presets for Chromium Edge mobile emulation.
package device

import (
	"strings"

	"github.com/chromedp/cdproto/emulation"
)

// Device is the common interface for device presets.
type Device interface {
	Device() Info
}

// Info holds device information.
type Info struct {
	// Name is the device name.
	Name string

	// UserAgent is the device user agent string.
	UserAgent string

	// Width is the viewport width.
	Width int64

	// Height is the viewport height.
	Height int64

	// Scale is the device viewport scale factor.
	Scale float64

	// Landscape indicates whether or not the device is in landscape mode or
	// not.
	Landscape bool

	// Mobile indicates whether it is a mobile device or not.
	Mobile bool

	// Touch indicates whether the device has touch enabled.
	Touch bool
}

// String satisfies fmt.Stringer.
func (i Info) String() string {
	return i.Name
}

// Device satisfies Device.
func (i Info) Device() Info {
	return i
}

// MobileEmulation returns the value of the mobileEmulation option understood
// by msedgedriver.
func (i Info) MobileEmulation() map[string]interface{} {
	m := map[string]interface{}{
		"deviceMetrics": map[string]interface{}{
			"width":      i.Width,
			"height":     i.Height,
			"pixelRatio": i.Scale,
			"mobile":     i.Mobile,
			"touch":      i.Touch,
		},
	}
	if i.UserAgent != "" {
		m["userAgent"] = i.UserAgent
	}
	return m
}

// MetricsOverride returns the DevTools command emulating the device viewport,
// for sessions that were not started with mobile emulation.
func (i Info) MetricsOverride() *emulation.SetDeviceMetricsOverrideParams {
	p := emulation.SetDeviceMetricsOverride(i.Width, i.Height, i.Scale, i.Mobile)
	p.ScreenOrientation = &emulation.ScreenOrientation{
		Type:  emulation.OrientationTypePortraitPrimary,
		Angle: 0,
	}
	if i.Landscape {
		p.ScreenOrientation = &emulation.ScreenOrientation{
			Type:  emulation.OrientationTypeLandscapePrimary,
			Angle: 90,
		}
	}
	return p
}

// infoType provides the enumerated device type.
type infoType int

// String satisfies fmt.Stringer.
func (i infoType) String() string {
	return devices[i].String()
}

// Device satisfies Device.
func (i infoType) Device() Info {
	return devices[i]
}

// Devices.
const (
	// Reset is the reset device.
	Reset infoType = iota

	// SurfaceDuo is the "Surface Duo" device.
	SurfaceDuo

	// IPhoneX is the "iPhone X" device.
	IPhoneX

	// IPhone12Pro is the "iPhone 12 Pro" device.
	IPhone12Pro

	// IPad is the "iPad" device.
	IPad

	// Pixel2 is the "Pixel 2" device.
	Pixel2

	// Pixel5 is the "Pixel 5" device.
	Pixel5

	// GalaxyS5 is the "Galaxy S5" device.
	GalaxyS5
)

// devices is the list of devices.
var devices = [...]Info{
	{"", "", 0, 0, 0.000000, false, false, false},
	{"Surface Duo", "Mozilla/5.0 (Linux; Android 11.0; Surface Duo) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", 540, 720, 2.500000, false, true, true},
	{"iPhone X", "Mozilla/5.0 (iPhone; CPU iPhone OS 11_0 like Mac OS X) AppleWebKit/604.1.38 (KHTML, like Gecko) Version/11.0 Mobile/15A372 Safari/604.1", 375, 812, 3.000000, false, true, true},
	{"iPhone 12 Pro", "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1", 390, 844, 3.000000, false, true, true},
	{"iPad", "Mozilla/5.0 (iPad; CPU OS 11_0 like Mac OS X) AppleWebKit/604.1.34 (KHTML, like Gecko) Version/11.0 Mobile/15A5341f Safari/604.1", 768, 1024, 2.000000, false, true, true},
	{"Pixel 2", "Mozilla/5.0 (Linux; Android 8.0; Pixel 2 Build/OPD3.170816.012) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", 411, 731, 2.625000, false, true, true},
	{"Pixel 5", "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", 393, 851, 2.750000, false, true, true},
	{"Galaxy S5", "Mozilla/5.0 (Linux; Android 5.0; SM-G900P Build/LRX21T) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36", 360, 640, 3.000000, false, true, true},
}

// ByName returns the preset with the given name, ignoring case.
func ByName(name string) (Device, bool) {
	for i := range devices {
		if i != int(Reset) && strings.EqualFold(devices[i].Name, name) {
			return infoType(i), true
		}
	}
	return nil, false
}
