package theme

// Palette and ttk styles for the status window. InitStyles activates a base theme
// and configures the semantic button styles used by the root view.

import (
	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Palette defines the light mode colors.
const (
	ColorBg        = "#f7f9fb"
	ColorSurface   = "#ffffff"
	ColorPrimary   = "#2563eb"
	ColorDanger    = "#dc2626"
	ColorAccent    = "#10b981"
	ColorText      = "#1e293b"
	ColorTextMuted = "#64748b"
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg     string
	Surface   string
	Primary   string
	Danger    string
	Accent    string
	Text      string
	TextMuted string
}

var (
	light = PaletteSnapshot{
		AppBg:     ColorBg,
		Surface:   ColorSurface,
		Primary:   ColorPrimary,
		Danger:    ColorDanger,
		Accent:    ColorAccent,
		Text:      ColorText,
		TextMuted: ColorTextMuted,
	}
	dark = PaletteSnapshot{
		AppBg:     "#0f172a",
		Surface:   "#1e293b",
		Primary:   "#3b82f6",
		Danger:    "#ef4444",
		Accent:    "#10b981",
		Text:      "#f1f5f9",
		TextMuted: "#94a3b8",
	}
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleToggleButton  = "toggle.TButton"
	StyleDangerButton  = "danger.TButton"
)

var darkMode bool

// CurrentPalette returns colors for the current mode.
func CurrentPalette() PaletteSnapshot {
	if darkMode {
		return dark
	}
	return light
}

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(CurrentPalette()) }

// SetDark selects dark mode and reapplies styles.
func SetDark(on bool) {
	darkMode = on
	InitStyles()
}

func applyStyles(p PaletteSnapshot) {
	_ = ActivateTheme("azure light")
	App.Configure(Background(p.AppBg))

	// Enabled toggles and primary actions
	StyleConfigure(StylePrimaryButton,
		Background(p.Primary),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
	// Disabled toggles
	StyleConfigure(StyleToggleButton,
		Background(p.Surface),
		Foreground(p.TextMuted),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("groove"),
	)
	StyleConfigure(StyleDangerButton,
		Background(p.Danger),
		Foreground("white"),
		Padding("4p 3p"),
		Borderwidth(1),
		Relief("ridge"),
	)
}
