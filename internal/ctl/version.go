package ctl

import (
	"fmt"
	"runtime"
	"strings"
)

// Version is the CLI version, set via -ldflags.
var Version = "dev"

// VersionInfo fetches daemon version via GET /api/version and displays both
// the CLI and daemon version information.
func VersionInfo(baseURL string, jsonOutput bool) error {
	baseURL = strings.TrimRight(baseURL, "/")

	var daemon struct {
		Version   string `json:"version"`
		GoVersion string `json:"go_version"`
		BuiltAt   string `json:"built_at"`
	}
	daemonErr := getJSON(baseURL, "/api/version", &daemon)

	if jsonOutput {
		resp := map[string]any{
			"cli": map[string]any{
				"version":    Version,
				"go_version": runtime.Version(),
			},
		}
		if daemonErr == nil {
			resp["daemon"] = daemon
		} else {
			resp["daemon_error"] = daemonErr.Error()
		}
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("SATVIZ VERSION", 38))
	fmt.Println(field("CLI", Version+" ("+runtime.Version()+")"))
	if daemonErr != nil {
		fmt.Println(field("Daemon", errorStyle.Render("unreachable: "+daemonErr.Error())))
	} else {
		fmt.Println(field("Daemon", daemon.Version+" ("+daemon.GoVersion+")"))
		fmt.Println(field("Built", daemon.BuiltAt))
	}
	fmt.Println()

	return nil
}
