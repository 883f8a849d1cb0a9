// Package keyboard holds the special keys understood by the remote end when
// typing into an element. Each key is a code point of the Unicode private use
// area and can be concatenated with ordinary text.
package keyboard

// Key is a special key.
type Key string

// Special keys.
const (
	Null      Key = "\ue000"
	Cancel    Key = "\ue001"
	Help      Key = "\ue002"
	Backspace Key = "\ue003"
	Tab       Key = "\ue004"
	Clear     Key = "\ue005"
	Return    Key = "\ue006"
	Enter     Key = "\ue007"
	Shift     Key = "\ue008"
	Control   Key = "\ue009"
	Alt       Key = "\ue00a"
	Pause     Key = "\ue00b"
	Escape    Key = "\ue00c"
	Space     Key = "\ue00d"
	PageUp    Key = "\ue00e"
	PageDown  Key = "\ue00f"
	End       Key = "\ue010"
	Home      Key = "\ue011"
	Left      Key = "\ue012"
	Up        Key = "\ue013"
	Right     Key = "\ue014"
	Down      Key = "\ue015"
	Insert    Key = "\ue016"
	Delete    Key = "\ue017"
	Semicolon Key = "\ue018"
	Equals    Key = "\ue019"

	Numpad0 Key = "\ue01a"
	Numpad1 Key = "\ue01b"
	Numpad2 Key = "\ue01c"
	Numpad3 Key = "\ue01d"
	Numpad4 Key = "\ue01e"
	Numpad5 Key = "\ue01f"
	Numpad6 Key = "\ue020"
	Numpad7 Key = "\ue021"
	Numpad8 Key = "\ue022"
	Numpad9 Key = "\ue023"

	Multiply  Key = "\ue024"
	Add       Key = "\ue025"
	Separator Key = "\ue026"
	Subtract  Key = "\ue027"
	Decimal   Key = "\ue028"
	Divide    Key = "\ue029"

	F1  Key = "\ue031"
	F2  Key = "\ue032"
	F3  Key = "\ue033"
	F4  Key = "\ue034"
	F5  Key = "\ue035"
	F6  Key = "\ue036"
	F7  Key = "\ue037"
	F8  Key = "\ue038"
	F9  Key = "\ue039"
	F10 Key = "\ue03a"
	F11 Key = "\ue03b"
	F12 Key = "\ue03c"

	Meta    Key = "\ue03d"
	Command Key = Meta
)

// String returns the key itself, so keys can be mixed with text in format
// strings.
func (k Key) String() string {
	return string(k)
}

// IsSpecial reports whether r is one of the special key code points.
func IsSpecial(r rune) bool {
	return r >= '\ue000' && r <= '\ue03d'
}
