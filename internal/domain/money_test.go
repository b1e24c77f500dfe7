package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceDisplayRounding(t *testing.T) {
	cases := []struct {
		price Price
		want  int64
	}{
		{PriceFromDisplay(800), 800},
		{Price(8004999), 800},
		{Price(8005000), 801}, // half rounds up
		{Price(-8004999), -800},
		{Price(-8005000), -801},
		{0, 0},
	}
	for _, c := range cases {
		if got := c.price.Display(); got != c.want {
			t.Errorf("Display(%d) = %d, want %d", int64(c.price), got, c.want)
		}
	}
}

func TestPercentOf(t *testing.T) {
	got := PercentOf(PriceFromDisplay(150), PriceFromDisplay(800))
	if !got.Equal(decimal.NewFromFloat(18.75)) {
		t.Errorf("expected 18.75, got %s", got)
	}

	if !PercentOf(PriceFromDisplay(1), 0).IsZero() {
		t.Error("percent of zero base must be zero")
	}
}

func TestPriceDecimal(t *testing.T) {
	p := PriceFromDisplay(1234)
	if !p.Decimal().Equal(decimal.NewFromInt(1234)) {
		t.Errorf("expected 1234, got %s", p.Decimal())
	}
}
