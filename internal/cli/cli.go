// Package cli provides a line-oriented terminal front end for one combat.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/emberdeck/skirmish/internal/game"
	"github.com/emberdeck/skirmish/internal/game/rules"
	"github.com/emberdeck/skirmish/internal/game/state"
	"github.com/emberdeck/skirmish/internal/game/watchers"
	"go.uber.org/zap"
)

// CLI plays one session's combat from text commands.
type CLI struct {
	Engine    *game.Engine
	SessionID string
	In        io.Reader
	Out       io.Writer
	EchoInput bool // echo each input line after the prompt (for script playback)

	logger     *zap.Logger
	registry   *rules.WatcherRegistry
	damage     *watchers.DamageWatcher
	casualties *watchers.CasualtyWatcher
	handles    []int
	names      map[string]string
	view       *game.CombatView
}

// New creates a CLI for sessionID and starts narrating its events.
func New(engine *game.Engine, sessionID string, logger *zap.Logger) *CLI {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CLI{
		Engine:     engine,
		SessionID:  sessionID,
		In:         os.Stdin,
		Out:        os.Stdout,
		logger:     logger.Named("cli"),
		registry:   rules.NewWatcherRegistry(),
		damage:     watchers.NewDamageWatcher(),
		casualties: watchers.NewCasualtyWatcher(),
		names:      make(map[string]string),
	}
	c.registry.AddWatcher(c.damage)
	c.registry.AddWatcher(c.casualties)
	bus := engine.Bus()
	c.handles = append(c.handles, c.registry.Attach(bus), bus.Subscribe(c.narrate))
	return c
}

// Close stops listening to the engine.
func (c *CLI) Close() {
	bus := c.Engine.Bus()
	for _, h := range c.handles {
		bus.Unsubscribe(h)
	}
	c.handles = nil
}

// Run shows the table and loops prompt, input, dispatch until the combat
// ends, the player quits or input runs out.
func (c *CLI) Run() error {
	if err := c.refresh(); err != nil {
		return err
	}
	c.printLine(renderView(c.view))

	scanner := bufio.NewScanner(c.In)
	for {
		if c.view.Phase.Terminal() {
			c.printSummary()
			return nil
		}
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}
		if c.dispatch(input) {
			c.printSystem("Goodbye.")
			return nil
		}
	}
	return scanner.Err()
}

// dispatch runs one command. Returns true if the player quits.
func (c *CLI) dispatch(input string) bool {
	parts := strings.Fields(strings.ToLower(input))
	args := parts[1:]

	var err error
	switch parts[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		c.cmdHelp()
		return false
	case "look", "l":
		if err := c.refresh(); !c.report(err) {
			c.printLine(renderView(c.view))
		}
		return false
	case "attack", "a":
		err = c.cmdAttack(args)
	case "prepare", "p":
		err = c.cmdPrepare(args)
	case "defend", "d":
		err = c.cmdDefend(args)
	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type help for available commands.", parts[0]))
		return false
	}
	if c.report(err) {
		return false
	}
	if err := c.refresh(); err != nil {
		c.report(err)
		return false
	}
	c.printLine(renderView(c.view))
	return false
}

func (c *CLI) cmdAttack(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: attack <card number>")
	}
	ids, err := c.handCards(args)
	if err != nil {
		return err
	}
	_, err = c.Engine.PlayerAttack(c.SessionID, ids[0])
	return err
}

func (c *CLI) cmdPrepare(args []string) error {
	ids, err := c.handCards(args)
	if err != nil {
		return err
	}
	_, err = c.Engine.PlayerPrepare(c.SessionID, ids)
	return err
}

func (c *CLI) cmdDefend(args []string) error {
	if len(args) > 1 {
		return errors.New("usage: defend [card number]")
	}
	ids, err := c.handCards(args)
	if err != nil {
		return err
	}
	card := ""
	if len(ids) == 1 {
		card = ids[0]
	}
	target, err := c.Engine.PlayerDefend(c.SessionID, card)
	if err != nil {
		return err
	}
	c.printSystem(fmt.Sprintf("%s was attacked.", c.name(target)))
	return nil
}

func (c *CLI) cmdHelp() {
	help := `Commands:
  attack N         play hand card N against the enemy
  prepare [N ...]  replace hand cards and let the enemy attack
  defend [N]       answer the enemy attack, optionally with hand card N
  look             show the table again
  help             show this help
  quit             leave the combat`
	c.printLine(help)
}

// handCards maps 1-based hand positions to card ids.
func (c *CLI) handCards(args []string) ([]string, error) {
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("card number must be an integer, got %q", arg)
		}
		if n < 1 || n > len(c.view.Hand) {
			return nil, fmt.Errorf("no card %d in hand", n)
		}
		ids = append(ids, c.view.Hand[n-1].ID)
	}
	return ids, nil
}

func (c *CLI) refresh() error {
	view, err := c.Engine.CombatView(c.SessionID)
	if err != nil {
		return err
	}
	c.view = view
	c.names[view.Enemy.EntityID] = view.Enemy.Name
	for _, p := range view.Party {
		c.names[p.EntityID] = p.Name
	}
	return nil
}

// report prints err when present and reports whether it did.
func (c *CLI) report(err error) bool {
	if err == nil {
		return false
	}
	c.logger.Debug("command failed", zap.String("session_id", c.SessionID), zap.Error(err))
	c.printLine(styleError.Render(err.Error()))
	return true
}

func (c *CLI) narrate(evt rules.Event) {
	if evt.SessionID != c.SessionID {
		return
	}
	switch evt.Type {
	case rules.EventCardPlayed:
		c.printSystem(fmt.Sprintf("%s plays %s.", c.name(evt.SourceID), evt.Metadata["card"]))
	case rules.EventDamageDealt:
		c.printSystem(fmt.Sprintf("%s hits %s for %d.", c.name(evt.SourceID), c.name(evt.TargetID), evt.Amount))
	case rules.EventAttackCancelled:
		c.printSystem(fmt.Sprintf("%s's attack on %s is cancelled.", c.name(evt.SourceID), c.name(evt.TargetID)))
	case rules.EventCharacterDied:
		c.printSystem(fmt.Sprintf("%s falls.", c.name(evt.TargetID)))
	}
}

func (c *CLI) printSummary() {
	switch c.view.Phase {
	case state.PhaseVictory:
		c.printLine(styleParty.Render("Victory!"))
	case state.PhaseDefeat:
		c.printLine(styleEnemy.Render("Defeat."))
	}
	c.printSystem(fmt.Sprintf("Combat lasted %d turns.", c.view.Turn))
	for _, p := range append([]game.CombatantView{c.view.Enemy}, c.view.Party...) {
		t := c.damage.Tally(c.SessionID, p.EntityID)
		c.printSystem(fmt.Sprintf("%s dealt %d and took %d (biggest hit %d).", p.Name, t.Dealt, t.Taken, t.Biggest))
	}
	for _, fallen := range c.casualties.Casualties(c.SessionID) {
		c.printSystem(fmt.Sprintf("%s fell, taking %d cards out of play.", c.name(fallen.EntityID), fallen.CardsPurged))
	}
	c.registry.ResetWatchersByScope(c.SessionID, rules.WatcherScopeCombat)
}

func (c *CLI) name(id string) string {
	if n, ok := c.names[id]; ok {
		return n
	}
	return id
}

func (c *CLI) print(s string) {
	fmt.Fprint(c.Out, s)
}

func (c *CLI) printLine(s string) {
	fmt.Fprintln(c.Out, s)
}

func (c *CLI) printSystem(s string) {
	c.printLine(styleSystem.Render("[" + s + "]"))
}
