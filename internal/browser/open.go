package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupportedURL is returned for anything other than an absolute http(s) URL.
var ErrUnsupportedURL = errors.New("only http and https URLs can be opened")

// command is replaced in tests.
var command = defaultCommand

func defaultCommand(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Open opens the specified URL in the user's default browser. Company
// websites are user input, so the URL is checked before it reaches a shell
// helper.
func Open(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("browser.Open %q: %w", raw, ErrUnsupportedURL)
	}
	target := u.String()
	switch runtime.GOOS {
	case "darwin":
		return command("open", target)
	case "linux", "freebsd", "openbsd":
		return command("xdg-open", target)
	case "windows":
		return command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
