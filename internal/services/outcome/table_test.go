package outcome

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		wantKeys []string
		wantErr  error
	}{
		{name: "default", in: DefaultTable, wantKeys: []string{"classic"}},
		{name: "several_with_spaces", in: "classic:2.5:0.4, safe : 1.2 : 0.8 ,long:10:0.09", wantKeys: []string{"classic", "safe", "long"}},
		{name: "empty", in: "", wantErr: ErrInvalidTable},
		{name: "missing_field", in: "classic:2.5", wantErr: ErrInvalidTable},
		{name: "multiplier_not_above_one", in: "flat:1:0.5", wantErr: ErrInvalidTable},
		{name: "probability_zero", in: "never:2:0", wantErr: ErrInvalidTable},
		{name: "probability_above_one", in: "always:2:1.1", wantErr: ErrInvalidTable},
		{name: "bad_multiplier", in: "x:abc:0.5", wantErr: ErrInvalidTable},
		{name: "duplicate_key", in: "a:2:0.4,a:3:0.3", wantErr: ErrInvalidTable},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			table, err := ParseTable(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			choices := table.Choices()
			if len(choices) != len(tt.wantKeys) {
				t.Fatalf("choices: want %d, got %d", len(tt.wantKeys), len(choices))
			}
			for i, k := range tt.wantKeys {
				if choices[i].Key != k {
					t.Fatalf("order[%d]: want %s, got %s", i, k, choices[i].Key)
				}
			}
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	var table Table
	err := table.UnmarshalText([]byte("classic:2.5:0.4,safe:1.2:0.8"))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	c, err := table.Lookup("safe")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !c.Multiplier.Equal(decimal.RequireFromString("1.2")) || c.WinProbability != 0.8 {
		t.Fatalf("unexpected choice: %+v", c)
	}

	_, err = table.Lookup("jackpot")
	if !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("want ErrUnknownChoice, got %v", err)
	}

	// zero table knows nothing
	_, err = Table{}.Lookup("classic")
	if !errors.Is(err, ErrUnknownChoice) {
		t.Fatalf("zero table: want ErrUnknownChoice, got %v", err)
	}
}
