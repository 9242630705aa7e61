package edgedriver

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"

	"github.com/msedge/edgedriver/device"
)

// EmulateViewportOption is the type for emulate viewport options.
type EmulateViewportOption = func(*emulation.SetDeviceMetricsOverrideParams, *emulation.SetTouchEmulationEnabledParams)

// EmulateViewport changes the browser viewport of a running Chromium
// session. The executor is either a *Driver or a *DevTools.
//
// Note: this has the effect of setting/forcing the screen orientation to
// landscape, and will disable mobile and touch emulation by default. If this
// is not the desired behavior, use the emulate viewport options
// EmulateOrientation (or EmulateLandscape/EmulatePortrait), EmulateMobile, and
// EmulateTouch, respectively.
func EmulateViewport(ctx context.Context, exec cdp.Executor, width, height int64, opts ...EmulateViewportOption) error {
	p1 := emulation.SetDeviceMetricsOverride(width, height, 1.0, false)
	p2 := emulation.SetTouchEmulationEnabled(false)
	for _, o := range opts {
		o(p1, p2)
	}
	ctx = cdp.WithExecutor(ctx, exec)
	if err := p1.Do(ctx); err != nil {
		return err
	}
	return p2.Do(ctx)
}

// EmulateScale is an emulate viewport option to set the device viewport scaling
// factor.
func EmulateScale(scale float64) EmulateViewportOption {
	return func(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
		p1.DeviceScaleFactor = scale
	}
}

// EmulateOrientation is an emulate viewport option to set the device viewport
// screen orientation.
func EmulateOrientation(orientation emulation.OrientationType, angle int64) EmulateViewportOption {
	return func(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
		p1.ScreenOrientation = &emulation.ScreenOrientation{
			Type:  orientation,
			Angle: angle,
		}
	}
}

// EmulateLandscape is an emulate viewport option to set the device viewport
// screen orientation in landscape primary mode and an angle of 90.
func EmulateLandscape(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
	EmulateOrientation(emulation.OrientationTypeLandscapePrimary, 90)(p1, p2)
}

// EmulatePortrait is an emulate viewport option to set the device viewport
// screen orentation in portrait primary mode and an angle of 0.
func EmulatePortrait(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
	EmulateOrientation(emulation.OrientationTypePortraitPrimary, 0)(p1, p2)
}

// EmulateMobile is an emulate viewport option to toggle the device viewport to
// display as a mobile device.
func EmulateMobile(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
	p1.Mobile = true
}

// EmulateTouch is an emulate viewport option to enable touch emulation.
func EmulateTouch(p1 *emulation.SetDeviceMetricsOverrideParams, p2 *emulation.SetTouchEmulationEnabledParams) {
	p2.Enabled = true
}

// ResetViewport resets the browser viewport to the values the browser was
// started with.
//
// Note: does not modify / change the browser's emulated User-Agent, if any.
func ResetViewport(ctx context.Context, exec cdp.Executor) error {
	return EmulateViewport(ctx, exec, 0, 0, EmulatePortrait)
}

// Emulate emulates a device preset in a running Chromium session. Sessions
// can also be started emulating a device with ChromiumOptions.EmulateDevice.
func Emulate(ctx context.Context, exec cdp.Executor, d device.Device) error {
	info := d.Device()
	ctx = cdp.WithExecutor(ctx, exec)
	if err := emulation.SetUserAgentOverride(info.UserAgent).Do(ctx); err != nil {
		return err
	}
	if err := info.MetricsOverride().Do(ctx); err != nil {
		return err
	}
	return emulation.SetTouchEmulationEnabled(info.Touch).Do(ctx)
}

// EmulateReset resets the device emulation.
//
// Resets the browser's viewport, screen orientation, user-agent, and
// mobile/touch emulation settings to the original values the browser was
// started with.
func EmulateReset(ctx context.Context, exec cdp.Executor) error {
	return Emulate(ctx, exec, device.Reset)
}
