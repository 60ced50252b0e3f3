package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(9)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type bannerInfo struct {
	Journal   string
	Key       string
	KeySource string
	Backend   string
	History   string
	Delay     time.Duration
	MaxHonk   time.Duration
}

func renderBanner(b bannerInfo) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
	}
	return boxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("autohonk "+version),
		row("journal", b.Journal),
		row("key", fmt.Sprintf("%s (%s)", b.Key, b.KeySource)),
		row("input", b.Backend),
		row("timing", fmt.Sprintf("wait %s, hold up to %s", b.Delay, b.MaxHonk)),
		row("history", b.History),
	))
}
