package window

import (
	"strconv"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// keyNames maps GLFW keys to the names scripts and action maps use.
var keyNames = map[glfw.Key]string{
	glfw.KeySpace:        "Space",
	glfw.KeyApostrophe:   "Apostrophe",
	glfw.KeyComma:        "Comma",
	glfw.KeyMinus:        "Minus",
	glfw.KeyPeriod:       "Period",
	glfw.KeySlash:        "Slash",
	glfw.KeySemicolon:    "Semicolon",
	glfw.KeyEqual:        "Equals",
	glfw.KeyLeftBracket:  "LBracket",
	glfw.KeyBackslash:    "Backslash",
	glfw.KeyRightBracket: "RBracket",
	glfw.KeyGraveAccent:  "Grave",
	glfw.KeyEscape:       "Escape",
	glfw.KeyEnter:        "Return",
	glfw.KeyTab:          "Tab",
	glfw.KeyBackspace:    "Back",
	glfw.KeyInsert:       "Insert",
	glfw.KeyDelete:       "Delete",
	glfw.KeyRight:        "Right",
	glfw.KeyLeft:         "Left",
	glfw.KeyDown:         "Down",
	glfw.KeyUp:           "Up",
	glfw.KeyPageUp:       "PageUp",
	glfw.KeyPageDown:     "PageDown",
	glfw.KeyHome:         "Home",
	glfw.KeyEnd:          "End",
	glfw.KeyCapsLock:     "Capital",
	glfw.KeyPause:        "Pause",
	glfw.KeyLeftShift:    "LShift",
	glfw.KeyLeftControl:  "LControl",
	glfw.KeyLeftAlt:      "LAlt",
	glfw.KeyLeftSuper:    "LWin",
	glfw.KeyRightShift:   "RShift",
	glfw.KeyRightControl: "RControl",
	glfw.KeyRightAlt:     "RAlt",
	glfw.KeyRightSuper:   "RWin",
}

func init() {
	for k := glfw.KeyA; k <= glfw.KeyZ; k++ {
		keyNames[k] = string(rune('A' + (k - glfw.KeyA)))
	}
	for k := glfw.Key0; k <= glfw.Key9; k++ {
		keyNames[k] = "Key" + string(rune('0'+(k-glfw.Key0)))
	}
	for k := glfw.KeyF1; k <= glfw.KeyF12; k++ {
		keyNames[k] = "F" + strconv.Itoa(int(k-glfw.KeyF1)+1)
	}
	for k := glfw.KeyKP0; k <= glfw.KeyKP9; k++ {
		keyNames[k] = "Numpad" + string(rune('0'+(k-glfw.KeyKP0)))
	}
}

// KeyName returns the script name of key, or "" for keys without one.
func KeyName(key glfw.Key) string { return keyNames[key] }

var buttonNames = map[glfw.MouseButton]string{
	glfw.MouseButtonLeft:   "Left",
	glfw.MouseButtonRight:  "Right",
	glfw.MouseButtonMiddle: "Middle",
}

// ButtonName returns the script name of a mouse button.
func ButtonName(b glfw.MouseButton) string {
	if n, ok := buttonNames[b]; ok {
		return n
	}
	return "Other" + strconv.Itoa(int(b))
}
