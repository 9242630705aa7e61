// edgedriver-proxy provides a cli utility that will proxy requests from a
// WebDriver client to an Edge driver service, and DevTools websocket
// connections to the browser, logging all traffic.
//
// edgedriver-proxy is particularly useful for recording the commands sent by
// Selenium clients to msedgedriver or MicrosoftWebDriver.exe. Each session
// and DevTools target is logged to its own file.
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	flagListen   = flag.String("l", "localhost:9516", "listen address")
	flagRemote   = flag.String("r", "localhost:9515", "driver service address")
	flagDevTools = flag.String("d", "", "devtools address of the browser, eg localhost:9222")
	flagNoLog    = flag.Bool("n", false, "disable logging to file")
	flagLogMask  = flag.String("log", "logs/webdriver-%s.log", "log file mask")
)

func main() {
	flag.Parse()

	mask := *flagLogMask
	if *flagNoLog {
		mask = ""
	}
	p, err := newProxy(*flagRemote, *flagDevTools, mask, os.Stdout)
	if err != nil {
		logrus.Fatal(err)
	}
	defer p.Close()

	logrus.Infof("proxying %s to %s", *flagListen, *flagRemote)
	logrus.Fatal(http.ListenAndServe(*flagListen, p))
}
