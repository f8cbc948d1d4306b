// Package gamedata holds the static definitions of characters, enemies,
// demons, action cards and position cards. Definitions are keyed by id and
// carry the prefabs the combat engine instantiates.
package gamedata

import (
	"errors"
	"fmt"
	"slices"

	"github.com/emberdeck/skirmish/internal/game/state"
)

// ErrUnknownData is returned when an id is not in the catalog.
var ErrUnknownData = errors.New("unknown game data")

// Stages is the number of position stages a combatant walks through.
const Stages = 3

var (
	// StarterCharacters are granted to every new account.
	StarterCharacters = []string{"elf", "jeanne", "medusa"}
	// StarterDemons are granted to every new account.
	StarterDemons = []string{"chiyo", "meru", "miyu"}
)

// Character describes a playable party member.
type Character struct {
	ID            string
	Name          string
	MaxHP         int
	BaseDamage    int
	BaseArmor     int
	ActionCards   []string
	PositionCards [Stages][]string
	// Passives are linked to the character when combat begins.
	Passives []state.Prefab
}

// Enemy describes an opponent. Enemies without position cards have no position.
type Enemy struct {
	ID            string
	Name          string
	MaxHP         int
	BaseDamage    int
	BaseArmor     int
	ActionCards   []string
	PositionCards [Stages][]string
}

type Demon struct {
	ID   string
	Name string
}

// ActionCard is a playable card. Prefab roots carry state.ActionCard.
type ActionCard struct {
	ID     string
	Name   string
	Prefab state.Prefab
}

// PositionCard is a stance. Prefab roots carry state.PositionCard.
type PositionCard struct {
	ID     string
	Name   string
	Prefab state.Prefab
}

// Catalog stores every definition. It is read-only after New returns, and
// the prefabs it hands out are shared and must not be modified.
type Catalog struct {
	characters    map[string]Character
	enemies       map[string]Enemy
	demons        map[string]Demon
	actionCards   map[string]ActionCard
	positionCards map[string]PositionCard
}

// New builds the catalog and checks that every card a combatant names exists.
func New() (*Catalog, error) {
	c := &Catalog{
		characters:    make(map[string]Character),
		enemies:       make(map[string]Enemy),
		demons:        make(map[string]Demon),
		actionCards:   make(map[string]ActionCard),
		positionCards: make(map[string]PositionCard),
	}
	for _, card := range actionCards() {
		if err := c.AddActionCard(card); err != nil {
			return nil, err
		}
	}
	for _, card := range positionCards() {
		if err := c.AddPositionCard(card); err != nil {
			return nil, err
		}
	}
	for _, ch := range characters() {
		if err := c.AddCharacter(ch); err != nil {
			return nil, err
		}
	}
	for _, e := range enemies() {
		if err := c.AddEnemy(e); err != nil {
			return nil, err
		}
	}
	for _, d := range demons() {
		if err := c.AddDemon(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is New for program initialization.
func MustNew() *Catalog {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) AddActionCard(card ActionCard) error {
	if _, exists := c.actionCards[card.ID]; exists {
		return fmt.Errorf("action card %q already exists", card.ID)
	}
	if err := checkRoot(card.Prefab, state.TypeActionCard); err != nil {
		return fmt.Errorf("action card %q: %w", card.ID, err)
	}
	c.actionCards[card.ID] = card
	return nil
}

func (c *Catalog) AddPositionCard(card PositionCard) error {
	if _, exists := c.positionCards[card.ID]; exists {
		return fmt.Errorf("position card %q already exists", card.ID)
	}
	if err := checkRoot(card.Prefab, state.TypePositionCard); err != nil {
		return fmt.Errorf("position card %q: %w", card.ID, err)
	}
	c.positionCards[card.ID] = card
	return nil
}

// AddCharacter registers a character. Its cards must already be registered.
func (c *Catalog) AddCharacter(ch Character) error {
	if _, exists := c.characters[ch.ID]; exists {
		return fmt.Errorf("character %q already exists", ch.ID)
	}
	if err := c.checkCards(ch.ID, ch.ActionCards, ch.PositionCards); err != nil {
		return err
	}
	c.characters[ch.ID] = ch
	return nil
}

// AddEnemy registers an enemy. Its cards must already be registered.
func (c *Catalog) AddEnemy(e Enemy) error {
	if _, exists := c.enemies[e.ID]; exists {
		return fmt.Errorf("enemy %q already exists", e.ID)
	}
	if err := c.checkCards(e.ID, e.ActionCards, e.PositionCards); err != nil {
		return err
	}
	c.enemies[e.ID] = e
	return nil
}

func (c *Catalog) AddDemon(d Demon) error {
	if _, exists := c.demons[d.ID]; exists {
		return fmt.Errorf("demon %q already exists", d.ID)
	}
	c.demons[d.ID] = d
	return nil
}

func (c *Catalog) checkCards(owner string, actions []string, positions [Stages][]string) error {
	for _, id := range actions {
		if _, ok := c.actionCards[id]; !ok {
			return fmt.Errorf("%s: action card %q: %w", owner, id, ErrUnknownData)
		}
	}
	for _, stage := range positions {
		for _, id := range stage {
			if _, ok := c.positionCards[id]; !ok {
				return fmt.Errorf("%s: position card %q: %w", owner, id, ErrUnknownData)
			}
		}
	}
	return nil
}

func checkRoot(p state.Prefab, want state.Type) error {
	for _, spec := range p[state.RootKey] {
		if spec.Data.Type() == want {
			return nil
		}
	}
	return fmt.Errorf("%w: root has no %s", state.ErrIllegalPrefab, want)
}

func (c *Catalog) Character(id string) (Character, error) {
	ch, ok := c.characters[id]
	if !ok {
		return Character{}, fmt.Errorf("character %q: %w", id, ErrUnknownData)
	}
	return ch, nil
}

func (c *Catalog) Enemy(id string) (Enemy, error) {
	e, ok := c.enemies[id]
	if !ok {
		return Enemy{}, fmt.Errorf("enemy %q: %w", id, ErrUnknownData)
	}
	return e, nil
}

func (c *Catalog) Demon(id string) (Demon, error) {
	d, ok := c.demons[id]
	if !ok {
		return Demon{}, fmt.Errorf("demon %q: %w", id, ErrUnknownData)
	}
	return d, nil
}

func (c *Catalog) ActionCard(id string) (ActionCard, error) {
	card, ok := c.actionCards[id]
	if !ok {
		return ActionCard{}, fmt.Errorf("action card %q: %w", id, ErrUnknownData)
	}
	return card, nil
}

func (c *Catalog) PositionCard(id string) (PositionCard, error) {
	card, ok := c.positionCards[id]
	if !ok {
		return PositionCard{}, fmt.Errorf("position card %q: %w", id, ErrUnknownData)
	}
	return card, nil
}

// ActionCardIDs returns every action card id in sorted order.
func (c *Catalog) ActionCardIDs() []string {
	return sortedKeys(c.actionCards)
}

// PositionCardIDs returns every position card id in sorted order.
func (c *Catalog) PositionCardIDs() []string {
	return sortedKeys(c.positionCards)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
