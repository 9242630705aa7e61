//go:build !windows
// +build !windows

package edgedriver

const (
	// DefaultChromiumDriver is the default msedgedriver executable name.
	DefaultChromiumDriver = `msedgedriver`
)

// legacyDriverPaths are looked up after $PATH for MicrosoftWebDriver.exe.
var legacyDriverPaths []string
