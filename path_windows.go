//go:build windows
// +build windows

package edgedriver

const (
	// DefaultChromiumDriver is the default msedgedriver executable name.
	DefaultChromiumDriver = `msedgedriver.exe`
)

// legacyDriverPaths are looked up after %PATH% for MicrosoftWebDriver.exe,
// which Windows 10 1809+ installs as a Feature on Demand.
var legacyDriverPaths = []string{
	`C:\Windows\System32\MicrosoftWebDriver.exe`,
	`C:\Program Files (x86)\Microsoft Web Driver\MicrosoftWebDriver.exe`,
}
