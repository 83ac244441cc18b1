package measure

// Breakdown narrows a measure to one rule or one debt characteristic.
// The zero Breakdown is the component-wide measure.
type Breakdown struct {
	RuleID           int
	CharacteristicID int
}

// IsZero reports whether b is the component-wide breakdown.
func (b Breakdown) IsZero() bool {
	return b.RuleID == 0 && b.CharacteristicID == 0
}

// Measure is a value attached to one (component, metric, breakdown) triple.
type Measure struct {
	Value       Value
	Breakdown   Breakdown
	Variations  *Variations
	Description string
}

// New creates a component-wide measure.
func New(v Value) Measure {
	return Measure{Value: v}
}

// ForRule returns a copy of m narrowed to a rule.
func (m Measure) ForRule(ruleID int) Measure {
	m.Breakdown = Breakdown{RuleID: ruleID}
	return m
}

// ForCharacteristic returns a copy of m narrowed to a debt characteristic.
func (m Measure) ForCharacteristic(characteristicID int) Measure {
	m.Breakdown = Breakdown{CharacteristicID: characteristicID}
	return m
}

// WithVariations returns a copy of m carrying period deltas.
func (m Measure) WithVariations(v *Variations) Measure {
	m.Variations = v
	return m
}
