// Package viz renders the terminal reports of the crtbp command with
// lipgloss: titled panels, aligned key/value rows, stability badges and
// sparklines.
package viz
