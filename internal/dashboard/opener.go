package dashboard

import (
	"context"
	"os/exec"
	"runtime"

	"github.com/rotisserie/eris"
)

// LinkOpener opens an external URL, typically in a browser.
type LinkOpener interface {
	OpenURL(ctx context.Context, url string) error
}

// SystemOpener opens links with the platform's default handler.
type SystemOpener struct{}

// OpenURL starts the platform opener and does not wait for the browser.
func (SystemOpener) OpenURL(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return eris.Wrapf(err, "dashboard: open %s", url)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}
