// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/dosemu2/cputest/internal/suite"
)

// Color palette shared by all CLI output.
const (
	ColorPrimary   = lipgloss.Color("#7C3AED")
	ColorMuted     = lipgloss.Color("#6B7280")
	ColorSuccess   = lipgloss.Color("#10B981")
	ColorError     = lipgloss.Color("#EF4444")
	ColorWarning   = lipgloss.Color("#F59E0B")
	ColorHighlight = lipgloss.Color("#3B82F6")
	ColorVerbose   = lipgloss.Color("#9CA3AF")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for passing cases and runnable pairs.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for failures and setup errors.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for skipped cases and warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for case names, commands and config keys.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// VerboseStyle is for diffs and supplementary details.
	VerboseStyle = lipgloss.NewStyle().
			Foreground(ColorVerbose)

	// outcomeWidth pads the outcome label so case names line up.
	outcomeWidth = lipgloss.NewStyle().Width(6)
)

// outcomeStyle returns the style of an outcome label.
func outcomeStyle(k suite.Kind) lipgloss.Style {
	switch k {
	case suite.Pass:
		return SuccessStyle
	case suite.Skip:
		return WarningStyle
	case suite.Fail, suite.SetupError:
		return ErrorStyle
	default:
		return SubtitleStyle
	}
}

// outcomeLabel renders k as a fixed-width colored label.
func outcomeLabel(k suite.Kind) string {
	return outcomeWidth.Render(outcomeStyle(k).Render(k.String()))
}
