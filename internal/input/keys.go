// Package input resolves key names to virtual-key codes, finds the game
// window, and delivers key events to it.
package input

import (
	"sort"
	"strconv"
	"strings"
)

// KeyCode is a Windows virtual-key code.
type KeyCode uint16

// Virtual-key codes used by the key table.
const (
	VKTab      KeyCode = 0x09
	VKReturn   KeyCode = 0x0D
	VKSpace    KeyCode = 0x20
	VKMultiply KeyCode = 0x6A
	VKAdd      KeyCode = 0x6B
	VKSubtract KeyCode = 0x6D
	VKDivide   KeyCode = 0x6F
	VKF1       KeyCode = 0x70
)

// Key is a resolved key: the configured name and its virtual-key code.
// The zero Key is unresolved.
type Key struct {
	Name string
	Code KeyCode
}

// Resolved reports whether k carries a usable code.
func (k Key) Resolved() bool { return k.Code != 0 }

func (k Key) String() string {
	if k.Name == "" {
		return "<none>"
	}
	return k.Name
}

var namedKeys = map[string]KeyCode{
	"numpad_add":      VKAdd,
	"numpad_subtract": VKSubtract,
	"numpad_multiply": VKMultiply,
	"numpad_divide":   VKDivide,
	"space":           VKSpace,
	"enter":           VKReturn,
	"tab":             VKTab,
}

func init() {
	for i := 0; i < 12; i++ {
		namedKeys["f"+strconv.Itoa(i+1)] = VKF1 + KeyCode(i)
	}
}

// Resolve maps a key name to its virtual-key code. Named keys are matched
// case-insensitively; any other single letter or digit maps to its
// upper-case ASCII code.
func Resolve(name string) (Key, bool) {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if code, ok := namedKeys[lower]; ok {
		return Key{Name: lower, Code: code}, true
	}
	if len(trimmed) == 1 {
		c := strings.ToUpper(trimmed)[0]
		if (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			return Key{Name: lower, Code: KeyCode(c)}, true
		}
	}
	return Key{}, false
}

// KeyNames returns the named keys in the table, sorted.
func KeyNames() []string {
	names := make([]string, 0, len(namedKeys))
	for name := range namedKeys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var bindingNames = map[string]string{
	"Numpad_Add":      "numpad_add",
	"Numpad_Subtract": "numpad_subtract",
	"Numpad_Multiply": "numpad_multiply",
	"Numpad_Divide":   "numpad_divide",
	"Space":           "space",
	"Enter":           "enter",
	"Tab":             "tab",
}

// BindingName converts an Elite Dangerous binding key such as
// "Key_Numpad_Add" into a key name understood by Resolve.
func BindingName(elite string) string {
	elite = strings.TrimPrefix(elite, "Key_")
	if name, ok := bindingNames[elite]; ok {
		return name
	}
	return strings.ToLower(elite)
}
