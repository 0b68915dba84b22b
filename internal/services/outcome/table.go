package outcome

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultTable = "classic:2.5:0.4"

var (
	ErrUnknownChoice = errors.New("unknown multiplier key")
	ErrInvalidTable  = errors.New("invalid multiplier table")
)

// Choice is one server-held multiplier option.
type Choice struct {
	Key            string
	Multiplier     decimal.Decimal
	WinProbability float64
}

func (c Choice) Validate() error {
	switch {
	case c.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidTable)
	case !c.Multiplier.GreaterThan(decimal.NewFromInt(1)):
		return fmt.Errorf("%w: %s multiplier %s must be > 1", ErrInvalidTable, c.Key, c.Multiplier)
	case !(c.WinProbability > 0 && c.WinProbability <= 1):
		return fmt.Errorf("%w: %s probability %v must be in (0,1]", ErrInvalidTable, c.Key, c.WinProbability)
	}

	return nil
}

// Table is the configured set of choices, in declaration order.
// The zero value is empty; load it with ParseTable or UnmarshalText.
type Table struct {
	choices []Choice
	byKey   map[string]int
}

func NewTable(choices ...Choice) (Table, error) {
	if len(choices) == 0 {
		return Table{}, fmt.Errorf("%w: no choices", ErrInvalidTable)
	}

	t := Table{
		choices: make([]Choice, 0, len(choices)),
		byKey:   make(map[string]int, len(choices)),
	}

	for _, c := range choices {
		err := c.Validate()
		if err != nil {
			return Table{}, err
		}

		if _, dup := t.byKey[c.Key]; dup {
			return Table{}, fmt.Errorf("%w: duplicate key %q", ErrInvalidTable, c.Key)
		}

		t.byKey[c.Key] = len(t.choices)
		t.choices = append(t.choices, c)
	}

	return t, nil
}

// ParseTable reads "key:multiplier:probability" entries separated by commas.
func ParseTable(s string) (Table, error) {
	parts := strings.Split(s, ",")
	choices := make([]Choice, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		fields := strings.Split(part, ":")
		if len(fields) != 3 {
			return Table{}, fmt.Errorf("%w: entry %q, want key:multiplier:probability", ErrInvalidTable, part)
		}

		mult, err := decimal.NewFromString(strings.TrimSpace(fields[1]))
		if err != nil {
			return Table{}, fmt.Errorf("%w: entry %q multiplier: %v", ErrInvalidTable, part, err)
		}

		p, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return Table{}, fmt.Errorf("%w: entry %q probability: %v", ErrInvalidTable, part, err)
		}

		choices = append(choices, Choice{
			Key:            strings.TrimSpace(fields[0]),
			Multiplier:     mult,
			WinProbability: p,
		})
	}

	return NewTable(choices...)
}

func MustParseTable(s string) Table {
	t, err := ParseTable(s)
	if err != nil {
		panic(err)
	}

	return t
}

func (t *Table) UnmarshalText(text []byte) error {
	parsed, err := ParseTable(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

func (t Table) Lookup(key string) (Choice, error) {
	i, ok := t.byKey[key]
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrUnknownChoice, key)
	}

	return t.choices[i], nil
}

// Choices returns a copy of the configured choices.
func (t Table) Choices() []Choice {
	return append([]Choice(nil), t.choices...)
}

func (t Table) Len() int { return len(t.choices) }
