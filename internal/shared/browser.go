package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

// browserCommand maps a GOOS value to the launcher binary and its leading
// arguments. Overridable in tests.
var browserCommand = func(goos, url string) []string {
	switch goos {
	case "darwin":
		return []string{"open", url}
	case "linux":
		return []string{"xdg-open", url}
	case "windows":
		return []string{"cmd", "/c", "start", url}
	default:
		return nil
	}
}

// OpenBrowser opens the default system browser at the given URL. The launch
// is fire-and-forget; the spawned process is not waited on.
func OpenBrowser(url string) error {
	args := browserCommand(runtime.GOOS, url)
	if args == nil {
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	if err := exec.Command(args[0], args[1:]...).Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	return nil
}
