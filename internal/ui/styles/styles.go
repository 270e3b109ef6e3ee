// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, disabled fields

	// Borders
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#696969"}
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Application states, from nothing loaded to forecast computed
	StateInitialColor    = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#777777"}
	StateMainshockColor  = lipgloss.AdaptiveColor{Light: "#FF9F43", Dark: "#FF9F43"}
	StateCatalogColor    = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"}
	StateParametersColor = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	StateForecastColor   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	// Buttons
	ButtonTextColor           = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}
	ButtonPrimaryBgColor      = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#1A5276"}
	ButtonPrimaryFocusBgColor = lipgloss.AdaptiveColor{Light: "#3498DB", Dark: "#3498DB"}
	ButtonDisabledBgColor     = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#2D2D2D"}
	ButtonDisabledTextColor   = lipgloss.AdaptiveColor{Light: "#EEEEEE", Dark: "#696969"}

	baseButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true)

	PrimaryButtonStyle = baseButtonStyle.
				Foreground(ButtonTextColor).
				Background(ButtonPrimaryBgColor)

	PrimaryButtonFocusedStyle = baseButtonStyle.
					Foreground(ButtonTextColor).
					Background(ButtonPrimaryFocusBgColor).
					Underline(true).
					UnderlineSpaces(true)

	DisabledButtonStyle = baseButtonStyle.
				Foreground(ButtonDisabledTextColor).
				Background(ButtonDisabledBgColor)

	// Panel fields
	FieldLabelStyle    = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	FieldValueStyle    = lipgloss.NewStyle().Foreground(TextPrimaryColor)
	FieldDisabledStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
	FieldOutputStyle   = lipgloss.NewStyle().Foreground(StatusSuccessColor)

	// Overlay colors
	OverlayTitleColor  = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#C9C9C9"}
	OverlayBorderColor = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#8C8C8C"}

	// Toast notification colors
	ToastBorderSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ToastBorderErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderWarnColor    = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)

// StateColor returns the badge color for an application state name.
func StateColor(state string) lipgloss.TerminalColor {
	switch state {
	case "mainshock":
		return StateMainshockColor
	case "catalog":
		return StateCatalogColor
	case "parameters":
		return StateParametersColor
	case "forecast":
		return StateForecastColor
	default:
		return StateInitialColor
	}
}

// StateBadge renders a state name as a colored badge.
func StateBadge(state string) string {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(StateColor(state)).
		Render("● " + state)
}
