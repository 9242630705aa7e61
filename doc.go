// Package edgedriver drives legacy (EdgeHTML) and Chromium Microsoft Edge
// through a single WebDriver surface.
//
// Options are compiled into the capabilities understood by the matching
// driver service (MicrosoftWebDriver.exe or msedgedriver). NewDriver starts
// that service, opens a session with github.com/tebeka/selenium, and adds the
// Edge vendor commands: Chrome DevTools Protocol execution, network condition
// emulation and Chrome app launching.
package edgedriver
