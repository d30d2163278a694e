package duskline

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Capabilities is an immutable record of boolean/enum terminal feature
// flags shared by the Presenter and the Render-Trace Recorder.
type Capabilities struct {
	Profile         string
	TrueColor       bool
	Colors256       bool
	SyncOutput      bool
	OSC8Hyperlinks  bool
	ScrollRegion    bool
	BracketedPaste  bool
	MouseSGR        bool
	FocusEvents     bool
	KittyKeyboard   bool
	OSC52Clipboard  bool
	InTmux          bool
	InScreen        bool
	InZellij        bool
}

// emulator enumerates terminal emulators Detect recognizes, mirroring
// the env-var layering a host uses to pick a feature profile.
type emulator int

const (
	emuUnknown emulator = iota
	emuGhostty
	emuKitty
	emuWezTerm
	emuITerm2
	emuAlacritty
	emuTilix
	emuGNOME
	emuTmux
	emuScreen
	emuZellij
	emuVSCode
	emuGeneric
)

func (e emulator) profile() string {
	switch e {
	case emuGhostty:
		return "ghostty"
	case emuKitty:
		return "kitty"
	case emuWezTerm:
		return "wezterm"
	case emuITerm2:
		return "iterm2"
	case emuAlacritty:
		return "alacritty"
	case emuTilix:
		return "tilix"
	case emuGNOME:
		return "gnome-terminal"
	case emuTmux:
		return "tmux"
	case emuScreen:
		return "screen"
	case emuZellij:
		return "zellij"
	case emuVSCode:
		return "vscode"
	case emuGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// detectEmulator inspects environment variables in order of reliability:
// TERM_PROGRAM (which may itself name tmux), then TERM (a screen TERM
// with STY set selects screen), then emulator-specific vars (including
// ZELLIJ), then VTE, then TMUX/STY as a last resort, so an inner
// terminal's emulator-specific signals take priority over those two.
func detectEmulator() emulator {
	if tp := os.Getenv("TERM_PROGRAM"); tp != "" {
		switch strings.ToLower(tp) {
		case "ghostty":
			return emuGhostty
		case "kitty":
			return emuKitty
		case "wezterm":
			return emuWezTerm
		case "iterm.app":
			return emuITerm2
		case "vscode":
			return emuVSCode
		case "alacritty":
			return emuAlacritty
		case "tmux":
			return emuTmux
		}
	}

	if term := os.Getenv("TERM"); term != "" {
		switch {
		case term == "xterm-ghostty":
			return emuGhostty
		case term == "xterm-kitty":
			return emuKitty
		case strings.HasPrefix(term, "alacritty"):
			return emuAlacritty
		case strings.HasPrefix(term, "screen") && os.Getenv("STY") != "":
			return emuScreen
		}
	}

	switch {
	case os.Getenv("KITTY_WINDOW_ID") != "":
		return emuKitty
	case os.Getenv("ITERM_SESSION_ID") != "":
		return emuITerm2
	case os.Getenv("WEZTERM_EXECUTABLE") != "":
		return emuWezTerm
	case os.Getenv("ZELLIJ") != "":
		return emuZellij
	}

	if os.Getenv("VTE_VERSION") != "" {
		if os.Getenv("TILIX_ID") != "" {
			return emuTilix
		}
		return emuGNOME
	}

	switch {
	case os.Getenv("TMUX") != "":
		return emuTmux
	case os.Getenv("STY") != "":
		return emuScreen
	case os.Getenv("LC_TERMINAL") == "iTerm2":
		return emuITerm2
	}

	return emuGeneric
}

var trueColorCapable = map[emulator]bool{
	emuGhostty: true, emuKitty: true, emuWezTerm: true, emuITerm2: true,
	emuAlacritty: true, emuTilix: true, emuGNOME: true, emuVSCode: true,
}

var syncOutputCapable = map[emulator]bool{
	emuGhostty: true, emuKitty: true, emuWezTerm: true, emuITerm2: true,
	emuAlacritty: true, emuTilix: true, emuGNOME: true,
}

var osc8Capable = map[emulator]bool{
	emuGhostty: true, emuKitty: true, emuWezTerm: true, emuITerm2: true,
	emuAlacritty: true, emuTilix: true, emuGNOME: true, emuVSCode: true,
}

var mouseSGRCapable = map[emulator]bool{
	emuGhostty: true, emuKitty: true, emuWezTerm: true, emuITerm2: true,
	emuAlacritty: true, emuTilix: true, emuGNOME: true,
}

var kittyKeyboardCapable = map[emulator]bool{
	emuGhostty: true, emuKitty: true, emuWezTerm: true,
}

// Detect inspects the environment and the given file descriptor to build
// a Capabilities record. It performs no terminal queries (no I/O beyond
// an isatty check on fd); it is zero-timeout, best-effort
// detection suitable for startup.
func Detect(fd int) Capabilities {
	emu := detectEmulator()

	trueColor := trueColorCapable[emu]
	if !trueColor {
		ct := os.Getenv("COLORTERM")
		trueColor = ct == "truecolor" || ct == "24bit"
	}

	inTmux := os.Getenv("TMUX") != ""
	inScreen := os.Getenv("STY") != ""
	inZellij := os.Getenv("ZELLIJ") != ""

	return Capabilities{
		Profile:        emu.profile(),
		TrueColor:      trueColor,
		Colors256:      trueColor || emu != emuUnknown,
		SyncOutput:     syncOutputCapable[emu],
		OSC8Hyperlinks: osc8Capable[emu],
		ScrollRegion:   isatty.IsTerminal(uintptr(fd)),
		BracketedPaste: emu != emuUnknown && emu != emuGeneric,
		MouseSGR:       mouseSGRCapable[emu],
		FocusEvents:    emu != emuUnknown,
		KittyKeyboard:  kittyKeyboardCapable[emu],
		OSC52Clipboard: trueColor,
		InTmux:         inTmux,
		InScreen:       inScreen,
		InZellij:       inZellij,
	}
}

// Basic returns a conservative capability set that works on essentially
// any terminal: no true color, no sync output, no hyperlinks, no mouse.
func Basic() Capabilities {
	return Capabilities{Profile: "basic"}
}
