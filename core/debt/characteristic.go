// Package debt accumulates technical debt minutes over the component tree.
package debt

import (
	"errors"
	"fmt"
)

// ErrEmptyCharacteristicKey is returned when a characteristic has no key.
var ErrEmptyCharacteristicKey = errors.New("characteristic key cannot be empty")

// Characteristic is a node of the debt taxonomy. ParentID is 0 for a root characteristic.
type Characteristic struct {
	ID       int
	Key      string
	Name     string
	ParentID int
}

// NewCharacteristic validates and creates a Characteristic.
func NewCharacteristic(id int, key, name string, parentID int) (Characteristic, error) {
	if key == "" {
		return Characteristic{}, fmt.Errorf("%w: id %d", ErrEmptyCharacteristicKey, id)
	}
	return Characteristic{ID: id, Key: key, Name: name, ParentID: parentID}, nil
}

// HasParent reports whether the characteristic rolls up into another one.
func (c Characteristic) HasParent() bool {
	return c.ParentID != 0
}

func (c Characteristic) String() string {
	return fmt.Sprintf("Characteristic{id=%d, key='%s'}", c.ID, c.Key)
}
