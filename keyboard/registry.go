package keyboard

import (
	"fmt"
	"strings"
)

//nolint:gochecknoglobals
var names = make(map[rune]string)

//nolint:gochecknoinits
func init() {
	for name, k := range map[string]Key{
		"Null": Null, "Cancel": Cancel, "Help": Help, "Backspace": Backspace, "Tab": Tab,
		"Clear": Clear, "Return": Return, "Enter": Enter, "Shift": Shift, "Control": Control,
		"Alt": Alt, "Pause": Pause, "Escape": Escape, "Space": Space, "PageUp": PageUp,
		"PageDown": PageDown, "End": End, "Home": Home, "Left": Left, "Up": Up, "Right": Right,
		"Down": Down, "Insert": Insert, "Delete": Delete, "Semicolon": Semicolon, "Equals": Equals,
		"Numpad0": Numpad0, "Numpad1": Numpad1, "Numpad2": Numpad2, "Numpad3": Numpad3,
		"Numpad4": Numpad4, "Numpad5": Numpad5, "Numpad6": Numpad6, "Numpad7": Numpad7,
		"Numpad8": Numpad8, "Numpad9": Numpad9, "Multiply": Multiply, "Add": Add,
		"Separator": Separator, "Subtract": Subtract, "Decimal": Decimal, "Divide": Divide,
		"F1": F1, "F2": F2, "F3": F3, "F4": F4, "F5": F5, "F6": F6, "F7": F7, "F8": F8,
		"F9": F9, "F10": F10, "F11": F11, "F12": F12, "Meta": Meta,
	} {
		register(name, k)
	}
}

// register names a key.
// It panics if the key is already named.
func register(name string, k Key) {
	r := []rune(string(k))[0]
	if prev, ok := names[r]; ok {
		panic(fmt.Sprintf("keyboard key already registered: %s as %s", name, prev))
	}
	names[r] = name
}

// Name returns the name of the special key r.
func Name(r rune) (string, bool) {
	name, ok := names[r]
	return name, ok
}

// Describe renders text with its special keys spelled out, e.g.
// "ab<Backspace>c".
func Describe(text string) string {
	var sb strings.Builder
	for _, r := range text {
		if !IsSpecial(r) {
			sb.WriteRune(r)
			continue
		}
		if name, ok := names[r]; ok {
			sb.WriteString("<" + name + ">")
			continue
		}
		fmt.Fprintf(&sb, "<U+%04X>", r)
	}
	return sb.String()
}
