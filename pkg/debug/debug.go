// Package debug holds pinpoint's logging setup and category gated debug
// output.
//
// Categories choose which subsystems are chatty (PINPOINT_DEBUG or
// logging.debug), the level chooses how much the default logger lets
// through (PINPOINT_LOG_LEVEL or logging.level). Full backend replies are
// only dumped through Raw, at TRACE, for an enabled category:
//
//	PINPOINT_DEBUG=providers,normalize PINPOINT_LOG_LEVEL=trace ./server
//
// Known categories are listed in Known; "all" enables every category.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// LevelTrace sits below slog.LevelDebug and unlocks Raw dumps.
const LevelTrace = slog.LevelDebug - 4

// Known lists the categories the gateway logs under.
var Known = []string{"providers", "gateway", "normalize", "uploads", "config"}

// enabled is swapped as a whole by Init; readers never lock.
var enabled atomic.Pointer[map[string]bool]

// rawOut receives Raw dumps. Set by Init.
var rawOut io.Writer = os.Stderr

func init() {
	setCategories(os.Getenv("PINPOINT_DEBUG"))
}

// Init installs the default slog handler on out (stderr when nil) and
// enables the configured categories. Environment variables win over the
// config values. Unknown category names are returned so the caller can
// warn about them; they stay enabled.
func Init(configCategories, configLevel string, out io.Writer) []string {
	cats := firstNonEmpty(os.Getenv("PINPOINT_DEBUG"), configCategories)
	level := firstNonEmpty(os.Getenv("PINPOINT_LOG_LEVEL"), configLevel, "INFO")

	if out == nil {
		out = os.Stderr
	}
	rawOut = out

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))

	var unknown []string
	for name := range setCategories(cats) {
		if name != "all" && !slices.Contains(Known, name) {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	return unknown
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func setCategories(s string) map[string]bool {
	m := parseCategories(s)
	enabled.Store(&m)
	return m
}

// Enabled reports whether category is switched on.
func Enabled(category string) bool {
	m := *enabled.Load()
	return m["all"] || m[category]
}

// Log writes a debug record tagged with category when it is enabled.
func Log(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Debug(msg, append([]any{"debug", category}, args...)...)
	}
}

// Trace is Log at LevelTrace.
func Trace(category string, msg string, args ...any) {
	if Enabled(category) {
		slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
	}
}

// TraceIsEnabled reports whether Trace output for category would be kept.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw dumps text verbatim, without slog framing, so backend bodies can be
// copied out of the log as they arrived.
func Raw(category string, text string) {
	if TraceIsEnabled(category) {
		fmt.Fprintln(rawOut, text)
	}
}

// ParseLevel maps ERROR, WARN, INFO, DEBUG and TRACE (any case) to a
// slog level. Anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	m := *enabled.Load()
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Truncate shortens s to at most maxLen bytes plus "...". It never splits
// a UTF-8 sequence.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		if cat = strings.ToLower(strings.TrimSpace(cat)); cat != "" {
			m[cat] = true
		}
	}
	return m
}
