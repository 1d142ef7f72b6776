package browser

import (
	"os"
	"sort"
	"strings"
)

// DefaultEnvAllowlist names the variables a launched browser inherits.
var DefaultEnvAllowlist = []string{
	"HOME",
	"PATH",
	"USER",
	"LOGNAME",
	"LANG",
	"TMPDIR",
	"TZ",
	"DISPLAY",
	"WAYLAND_DISPLAY",
	"XAUTHORITY",
	"DBUS_SESSION_BUS_ADDRESS",
	"FONTCONFIG_FILE",
	"FONTCONFIG_PATH",
	"CHROME_DEVEL_SANDBOX",
}

var DefaultEnvAllowPrefixes = []string{
	"XDG_",
	"LC_",
}

// buildEnv returns the allowlisted part of the current environment with
// explicit values applied on top.
func buildEnv(explicitValues map[string]string) []string {
	allowed := map[string]bool{}
	for _, key := range DefaultEnvAllowlist {
		allowed[key] = true
	}

	result := map[string]string{}
	for _, entry := range os.Environ() {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if allowed[key] || hasAllowedPrefix(key, DefaultEnvAllowPrefixes) {
			result[key] = value
		}
	}

	for key, value := range explicitValues {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		result[key] = value
	}

	return mapToEnvSlice(result)
}

func hasAllowedPrefix(key string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func mapToEnvSlice(values map[string]string) []string {
	out := make([]string, 0, len(values))
	for key, value := range values {
		out = append(out, key+"="+value)
	}
	sort.Strings(out)
	return out
}
