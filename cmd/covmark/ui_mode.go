package main

import (
	"fmt"
	"os"
	"strings"
)

// tristate is the value of an auto|on|off flag such as --color or --ui.
type tristate string

const (
	modeAuto tristate = "auto"
	modeOn   tristate = "on"
	modeOff  tristate = "off"
)

var tristateAliases = map[string]tristate{
	"": modeAuto, "auto": modeAuto,
	"on": modeOn, "always": modeOn,
	"off": modeOff, "never": modeOff,
}

func readTristate(flag, value string) (tristate, error) {
	if m, ok := tristateAliases[strings.ToLower(strings.TrimSpace(value))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

// resolve turns auto into whatever detect says.
func (m tristate) resolve(detect func() bool) bool {
	switch m {
	case modeOn:
		return true
	case modeOff:
		return false
	}
	return detect()
}

func resolveColor(value string) (bool, error) {
	m, err := readTristate("color", value)
	if err != nil {
		return false, err
	}
	return m.resolve(func() bool { return isTerminal(os.Stdout) && os.Getenv("NO_COLOR") == "" }), nil
}

func readUIMode(value string) (tristate, error) {
	return readTristate("ui", value)
}

// shouldUseTUI: auto включает TUI только на терминале и не в --quiet.
func shouldUseTUI(mode tristate, quiet bool) bool {
	return mode.resolve(func() bool {
		return !quiet && isTerminal(os.Stdout) && isTerminal(os.Stdin)
	})
}
