// Package report loads analysis report payloads from disk.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/huangsam/tally/schema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidPayload marks a report whose content cannot be processed.
var ErrInvalidPayload = errors.New("invalid report payload")

// Load reads and validates the payload at path.
func Load(path string) (*schema.ReportPayload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	payload, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", path, err)
	}
	return payload, nil
}

// Decode parses a YAML payload and validates its references.
// JSON payloads decode too since JSON is a subset of YAML.
func Decode(r io.Reader) (*schema.ReportPayload, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var payload schema.ReportPayload
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidPayload)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := Validate(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// Validate checks the payload fields that the tree builder does not.
func Validate(p *schema.ReportPayload) error {
	if p.ProjectKey == "" {
		return fmt.Errorf("%w: missing project key", ErrInvalidPayload)
	}
	if len(p.Components) == 0 {
		return fmt.Errorf("%w: no components", ErrInvalidPayload)
	}

	known := make(map[int]struct{}, len(p.Components))
	for _, c := range p.Components {
		known[c.Ref] = struct{}{}
	}
	check := func(what string, ref int) error {
		if _, ok := known[ref]; !ok {
			return fmt.Errorf("%w: %s refers to unknown component %d", ErrInvalidPayload, what, ref)
		}
		return nil
	}

	for _, m := range p.Measures {
		if err := check("measure "+m.Metric, m.Ref); err != nil {
			return err
		}
		if n := valueCount(m); n > 1 {
			return fmt.Errorf("%w: measure %s on component %d has %d values", ErrInvalidPayload, m.Metric, m.Ref, n)
		}
	}
	for _, i := range p.Issues {
		if err := check("issue "+i.RuleKey, i.Ref); err != nil {
			return err
		}
		if i.RuleKey == "" {
			return fmt.Errorf("%w: issue on component %d has no rule", ErrInvalidPayload, i.Ref)
		}
		if i.Line < 0 || i.EffortMinutes < 0 {
			return fmt.Errorf("%w: issue %s on component %d has a negative line or effort", ErrInvalidPayload, i.RuleKey, i.Ref)
		}
	}
	for _, s := range p.Sources {
		if err := check("source", s.Ref); err != nil {
			return err
		}
	}
	return nil
}

func valueCount(m schema.PayloadMeasure) int {
	n := 0
	if m.Int != nil {
		n++
	}
	if m.Long != nil {
		n++
	}
	if m.Double != nil {
		n++
	}
	if m.Bool != nil {
		n++
	}
	if m.Text != nil {
		n++
	}
	return n
}
