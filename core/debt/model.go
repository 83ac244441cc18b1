package debt

import (
	"errors"
	"fmt"

	"github.com/huangsam/tally/schema"
)

var (
	// ErrUnknownRule is returned when an issue's rule is not in the model.
	ErrUnknownRule = errors.New("unknown rule")
	// ErrInvalidModel is returned when the debt model is inconsistent.
	ErrInvalidModel = errors.New("invalid debt model")
)

// Rule links a rule key to its id and its characteristic. CharacteristicID is 0
// when the rule is not classified.
type Rule struct {
	ID               int
	Key              string
	CharacteristicID int
}

// Model is the debt model of one report: the characteristic tree and the rule cache.
type Model struct {
	characteristics map[int]Characteristic
	rules           map[string]Rule
}

// NewModel validates ids and references and builds a Model.
func NewModel(characteristics []Characteristic, rules []Rule) (*Model, error) {
	m := &Model{
		characteristics: make(map[int]Characteristic, len(characteristics)),
		rules:           make(map[string]Rule, len(rules)),
	}
	for _, c := range characteristics {
		if c.ID <= 0 {
			return nil, fmt.Errorf("%w: characteristic %q has id %d", ErrInvalidModel, c.Key, c.ID)
		}
		if _, dup := m.characteristics[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate characteristic id %d", ErrInvalidModel, c.ID)
		}
		m.characteristics[c.ID] = c
	}
	for _, c := range characteristics {
		if c.HasParent() {
			if _, ok := m.characteristics[c.ParentID]; !ok {
				return nil, fmt.Errorf("%w: characteristic %s has unknown parent %d", ErrInvalidModel, c, c.ParentID)
			}
		}
	}
	for _, r := range rules {
		if r.Key == "" || r.ID <= 0 {
			return nil, fmt.Errorf("%w: rule %q has id %d", ErrInvalidModel, r.Key, r.ID)
		}
		if _, dup := m.rules[r.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate rule %q", ErrInvalidModel, r.Key)
		}
		if r.CharacteristicID != 0 {
			if _, ok := m.characteristics[r.CharacteristicID]; !ok {
				return nil, fmt.Errorf("%w: rule %q has unknown characteristic %d", ErrInvalidModel, r.Key, r.CharacteristicID)
			}
		}
		m.rules[r.Key] = r
	}
	return m, nil
}

// ModelFromPayload builds the Model carried by a report. A nil payload gives an empty model.
func ModelFromPayload(p *schema.PayloadDebtModel) (*Model, error) {
	if p == nil {
		return NewModel(nil, nil)
	}
	characteristics := make([]Characteristic, 0, len(p.Characteristics))
	for _, pc := range p.Characteristics {
		c, err := NewCharacteristic(pc.ID, pc.Key, pc.Name, pc.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
		}
		characteristics = append(characteristics, c)
	}
	rules := make([]Rule, 0, len(p.Rules))
	for _, pr := range p.Rules {
		rules = append(rules, Rule{ID: pr.ID, Key: pr.Key, CharacteristicID: pr.CharacteristicID})
	}
	return NewModel(characteristics, rules)
}

// Rule resolves a rule key.
func (m *Model) Rule(key string) (Rule, bool) {
	r, ok := m.rules[key]
	return r, ok
}

// Characteristic resolves a characteristic id.
func (m *Model) Characteristic(id int) (Characteristic, bool) {
	c, ok := m.characteristics[id]
	return c, ok
}

// ParentOf returns the parent of a characteristic, or 0 for a root or unknown one.
func (m *Model) ParentOf(id int) int {
	return m.characteristics[id].ParentID
}
