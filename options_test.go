package edgedriver

import (
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/msedge/edgedriver/device"
)

func TestNewOptions(t *testing.T) {
	t.Parallel()

	o := NewOptions()
	if o.UseChromium() || o.Mode() != Legacy || o.Chromium() != nil {
		t.Errorf("expected legacy options")
	}
	if s := o.PageLoadStrategy(); s != PageLoadNormal {
		t.Errorf("expected normal page load strategy, got %q", s)
	}

	o = NewChromiumOptions()
	if !o.UseChromium() || o.Mode() != Chromium || o.Chromium() == nil {
		t.Errorf("expected chromium options")
	}
	if len(o.Chromium().Arguments()) != 0 || len(o.Chromium().ExperimentalOptions()) != 0 {
		t.Errorf("expected empty chromium options")
	}
}

func TestSetUseChromium(t *testing.T) {
	t.Parallel()

	o := NewOptions()
	o.SetUseChromium(true)
	c := o.Chromium()
	if err := c.AddArgument("--inprivate"); err != nil {
		t.Fatal(err)
	}

	// already chromium, state is kept
	o.SetUseChromium(true)
	if o.Chromium() != c || !reflect.DeepEqual(o.Chromium().Arguments(), []string{"--inprivate"}) {
		t.Errorf("expected chromium options to be kept")
	}

	o.SetUseChromium(false)
	if o.Chromium() != nil {
		t.Fatal("expected chromium options to be dropped")
	}
	o.SetUseChromium(true)
	if len(o.Chromium().Arguments()) != 0 {
		t.Errorf("expected fresh chromium options, got %q", o.Chromium().Arguments())
	}
}

func TestSetPageLoadStrategy(t *testing.T) {
	t.Parallel()

	o := NewOptions()
	for _, s := range []PageLoadStrategy{PageLoadEager, PageLoadNone, PageLoadNormal} {
		if err := o.SetPageLoadStrategy(s); err != nil {
			t.Errorf("expected %q to be accepted, got %v", s, err)
		}
		if o.PageLoadStrategy() != s {
			t.Errorf("expected %q, got %q", s, o.PageLoadStrategy())
		}
	}

	o.SetPageLoadStrategy(PageLoadEager)
	for _, s := range []PageLoadStrategy{"", "fast", "NORMAL"} {
		if err := o.SetPageLoadStrategy(s); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for %q, got %v", s, err)
		}
	}
	if o.PageLoadStrategy() != PageLoadEager {
		t.Errorf("expected strategy to be unchanged, got %q", o.PageLoadStrategy())
	}
}

func TestAddArgument(t *testing.T) {
	t.Parallel()

	c := NewChromiumOptions().Chromium()
	if err := c.AddArgument(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if len(c.Arguments()) != 0 {
		t.Errorf("expected no arguments, got %q", c.Arguments())
	}
	c.AddArgument("--a")
	c.AddArgument("--b")
	if err := c.SetWindowSize(1280, 720); err != nil {
		t.Fatal(err)
	}
	if err := c.SetWindowSize(0, 720); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	exp := []string{"--a", "--b", "--window-size=1280,720"}
	args := c.Arguments()
	if !reflect.DeepEqual(args, exp) {
		t.Errorf("expected %q, got %q", exp, args)
	}

	// returned slice is a copy
	args[0] = "--changed"
	if c.Arguments()[0] != "--a" {
		t.Error("expected Arguments to return a copy")
	}
}

func TestSetHeadless(t *testing.T) {
	for _, test := range []struct {
		goos string
		args []string
		exp  []string
	}{
		{"linux", []string{"--a"}, []string{"--a", "--headless"}},
		{"windows", []string{"--a"}, []string{"--a", "--headless", "--disable-gpu"}},
		{"windows", []string{"--disable-gpu", "--a"}, []string{"--disable-gpu", "--a", "--headless"}},
		{"linux", []string{"--disable-gpu"}, []string{"--disable-gpu", "--headless"}},
	} {
		func() {
			defer func(s string) { goos = s }(goos)
			goos = test.goos

			c := NewChromiumOptions().Chromium()
			for _, a := range test.args {
				c.AddArgument(a)
			}
			if c.Headless() {
				t.Fatal("expected not headless")
			}
			c.SetHeadless(true)
			c.SetHeadless(true)
			if !c.Headless() {
				t.Errorf("%s: expected headless", test.goos)
			}
			if args := c.Arguments(); !reflect.DeepEqual(args, test.exp) {
				t.Errorf("%s: expected %q, got %q", test.goos, test.exp, args)
			}
			c.SetHeadless(false)
			c.SetHeadless(false)
			if args := c.Arguments(); !reflect.DeepEqual(args, test.args) {
				t.Errorf("%s: expected %q to be restored, got %q", test.goos, test.args, args)
			}
		}()
	}
}

func TestAddExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	crx := filepath.Join(dir, "ext.crx")
	if err := os.WriteFile(crx, []byte("Cr24 extension"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewChromiumOptions().Chromium()
	if err := c.AddExtension(filepath.Join(dir, "missing.crx")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
	if err := c.AddExtension(dir); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for a directory, got %v", err)
	}
	if err := c.AddExtension(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for an empty path, got %v", err)
	}
	if err := c.AddEncodedExtension(""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty data, got %v", err)
	}

	if err := c.AddEncodedExtension("ZW5jb2RlZA=="); err != nil {
		t.Fatal(err)
	}
	if err := c.AddExtension(crx); err != nil {
		t.Fatal(err)
	}

	exts, err := c.Extensions()
	if err != nil {
		t.Fatal(err)
	}
	exp := []string{base64.StdEncoding.EncodeToString([]byte("Cr24 extension")), "ZW5jb2RlZA=="}
	if !reflect.DeepEqual(exts, exp) {
		t.Errorf("expected %q, got %q", exp, exts)
	}

	// files are read lazily
	if err := os.Remove(crx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Extensions(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip(err)
	}
	p, err := expandPath("~/ext.crx")
	if err != nil {
		t.Fatal(err)
	}
	if exp := filepath.Join(home, "ext.crx"); p != exp {
		t.Errorf("expected %q, got %q", exp, p)
	}
	p, err = expandPath("ext.crx")
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(p) {
		t.Errorf("expected absolute path, got %q", p)
	}
}

func TestExperimentalOptions(t *testing.T) {
	t.Parallel()

	c := NewChromiumOptions().Chromium()
	c.AddExperimentalOption("detach", false)
	c.AddExperimentalOption("detach", true)
	c.EmulateDevice(device.Pixel2)

	opts := c.ExperimentalOptions()
	if opts["detach"] != true {
		t.Errorf("expected last value to win, got %v", opts["detach"])
	}
	me, ok := opts["mobileEmulation"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected mobileEmulation map, got %T", opts["mobileEmulation"])
	}
	if me["userAgent"] != device.Pixel2.Device().UserAgent {
		t.Errorf("unexpected user agent %v", me["userAgent"])
	}
}

func TestSetCapability(t *testing.T) {
	t.Parallel()

	o := NewOptions()
	o.SetCapability("acceptInsecureCerts", false)
	o.SetCapability("acceptInsecureCerts", true)
	if v := o.Capabilities()["acceptInsecureCerts"]; v != true {
		t.Errorf("expected overwrite, got %v", v)
	}
}

func TestModeString(t *testing.T) {
	t.Parallel()

	for m, exp := range map[Mode]string{Legacy: "legacy", Chromium: "chromium", Mode(7): "Mode(7)"} {
		if s := m.String(); s != exp {
			t.Errorf("expected %q, got %q", exp, s)
		}
	}
}
