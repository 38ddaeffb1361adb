package determinism

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestHashJSONIsOrderIndependentForMaps(t *testing.T) {
	a := map[string]string{"rate_per_mile": "2.00", "helper_rate": "40.00"}
	b := map[string]string{"helper_rate": "40.00", "rate_per_mile": "2.00"}

	ha, err := HashJSON(a)
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	hb, err := HashJSON(b)
	if err != nil {
		t.Fatalf("HashJSON: %v", err)
	}
	if ha != hb {
		t.Errorf("expected equal hashes, got %s and %s", ha.Hex(), hb.Hex())
	}
	if ha.IsZero() {
		t.Error("hash should not be zero")
	}
	if len(ha.String()) != 16 {
		t.Errorf("expected 16 char short form, got %q", ha.String())
	}
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"-2.675", "-2.68"},
		{"187.55", "187.55"},
	}
	for _, tt := range tests {
		got := RoundMoney(decimal.RequireFromString(tt.in))
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("RoundMoney(%s): expected %s, got %s", tt.in, tt.want, got)
		}
	}
}

func TestPercent(t *testing.T) {
	got := Percent(decimal.NewFromInt(100), decimal.NewFromInt(110))
	if !got.Equal(decimal.NewFromInt(110)) {
		t.Errorf("expected 110, got %s", got)
	}
	got = Percent(decimal.NewFromInt(110), decimal.NewFromInt(120))
	if !got.Equal(decimal.NewFromInt(132)) {
		t.Errorf("expected 132, got %s", got)
	}
}

func TestSortedKeys(t *testing.T) {
	keys := SortedKeys(map[string]int{"weekend": 1, "peak": 2, "standard": 3})
	want := []string{"peak", "standard", "weekend"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keys)
		}
	}
}
