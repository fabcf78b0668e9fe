package keyboard

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/proxgrid/internal/proximity"
)

// Common key codes. Printable codes are positive.
const (
	CodeEnter = '\n'
	CodeTab   = '\t'
	CodeSpace = proximity.CodeSpace
)

// Special key codes. Must be negative.
const (
	CodeShift             = -1
	CodeCapsLock          = -2
	CodeSwitchAlphaSymbol = -3
	CodeOutputText        = -4
	CodeDelete            = -5
	CodeSettings          = -6
	CodeShortcut          = -7
	CodeActionNext        = -8
	CodeActionPrevious    = -9
	CodeLanguageSwitch    = -10
	CodeEmoji             = -11
	CodeClipboard         = -12
	CodeUnspecified       = -20
)

// NotACoordinate marks a code point without a key in Coordinates.
const NotACoordinate = -1

var specialNames = map[string]int{
	"shift":     CodeShift,
	"capslock":  CodeCapsLock,
	"symbols":   CodeSwitchAlphaSymbol,
	"delete":    CodeDelete,
	"settings":  CodeSettings,
	"shortcut":  CodeShortcut,
	"next":      CodeActionNext,
	"previous":  CodeActionPrevious,
	"language":  CodeLanguageSwitch,
	"emoji":     CodeEmoji,
	"clipboard": CodeClipboard,
	"enter":     CodeEnter,
	"tab":       CodeTab,
	"space":     CodeSpace,
}

// SpecialCode returns the code of a named key such as "shift" or "space".
func SpecialCode(name string) (int, bool) {
	code, ok := specialNames[strings.ToLower(name)]
	return code, ok
}

// PrintableCode renders code for logs and debug output.
func PrintableCode(code int) string {
	switch code {
	case CodeUnspecified:
		return "unspec"
	case CodeEnter:
		return "enter"
	case CodeTab:
		return "tab"
	case CodeSpace:
		return "space"
	}
	for name, c := range specialNames {
		if c == code && c < 0 {
			return name
		}
	}
	if code < CodeSpace {
		return fmt.Sprintf("\\u%04x", code)
	}
	if code < 0x100 {
		return string(rune(code))
	}
	if code < 0x10000 {
		return fmt.Sprintf("\\u%04X", code)
	}
	return fmt.Sprintf("\\U%05X", code)
}
