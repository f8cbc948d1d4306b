package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/emberdeck/skirmish/internal/game"
	"github.com/emberdeck/skirmish/internal/game/state"
)

var (
	styleHeader = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleEnemy = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	styleParty = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75"))

	styleDead = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	styleCard = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	styleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

// hpBar draws hp as a fixed-width bar, e.g. "[#####.....] 50/100".
func hpBar(hp, maxHP int) string {
	const width = 10
	filled := 0
	if maxHP > 0 && hp > 0 {
		filled = (hp*width + maxHP - 1) / maxHP
		if filled > width {
			filled = width
		}
	}
	return fmt.Sprintf("[%s%s] %d/%d", strings.Repeat("#", filled), strings.Repeat(".", width-filled), hp, maxHP)
}

func renderCombatant(c game.CombatantView, style lipgloss.Style) string {
	line := fmt.Sprintf("%-10s %s", c.Name, hpBar(c.HP, c.MaxHP))
	if c.Position != "" {
		line += "  " + c.Position
	}
	if !c.Alive {
		return styleDead.Render(line)
	}
	return style.Render(line)
}

// renderView lays out the table: enemy on top, party below, hand last.
func renderView(v *game.CombatView) string {
	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf(" Turn %d | %s ", v.Turn, v.Phase)))
	b.WriteString("\n")

	b.WriteString(renderCombatant(v.Enemy, styleEnemy))
	b.WriteString("\n")
	for _, c := range v.Party {
		b.WriteString(renderCombatant(c, styleParty))
		b.WriteString("\n")
	}

	var hand strings.Builder
	for i, card := range v.Hand {
		if i > 0 {
			hand.WriteString("\n")
		}
		hand.WriteString(styleCard.Render(fmt.Sprintf("%d. %s", i+1, card.Name)))
		if card.OwnerName != "" {
			hand.WriteString(styleSystem.Render(" (" + card.OwnerName + ")"))
		}
	}
	if len(v.Hand) == 0 {
		hand.WriteString(styleSystem.Render("hand is empty"))
	}
	hand.WriteString(styleSystem.Render(fmt.Sprintf("\ndeck: %d", v.DeckSize)))
	b.WriteString(styleBox.Render(hand.String()))

	if v.Phase == state.PhaseWaitingForDefense && v.PendingAttack != nil {
		b.WriteString("\n")
		b.WriteString(styleEnemy.Render(fmt.Sprintf("%s prepares %s. Defend with a card or none.", v.Enemy.Name, v.PendingAttack.Name)))
	}
	return b.String()
}
