package domain

import "github.com/shopspring/decimal"

// ProfitAlert notifies when a scan turns up an opportunity above a profit
// threshold. Empty item/city fields match anything. In-memory only.
type ProfitAlert struct {
	ItemID           string          `json:"item_id,omitempty"`
	BuyCity          string          `json:"buy_city,omitempty"`
	SellCity         string          `json:"sell_city,omitempty"`
	MinProfitPercent decimal.Decimal `json:"min_profit_percent"`
	IsPersistent     bool            `json:"is_persistent"`
	active           bool
}

// NewProfitAlert creates an active alert. A persistent alert keeps firing; a
// one-shot alert deactivates after its first match.
func NewProfitAlert(itemID, buyCity, sellCity string, minProfitPercent decimal.Decimal, isPersistent bool) *ProfitAlert {
	return &ProfitAlert{
		ItemID:           itemID,
		BuyCity:          buyCity,
		SellCity:         sellCity,
		MinProfitPercent: minProfitPercent,
		IsPersistent:     isPersistent,
		active:           true,
	}
}

// IsActive returns whether the alert is active.
func (a *ProfitAlert) IsActive() bool {
	return a.active
}

// SetActive sets the alert's active state.
func (a *ProfitAlert) SetActive(active bool) {
	a.active = active
}

// Matches checks an opportunity against the alert. A match on a one-shot
// alert deactivates it.
func (a *ProfitAlert) Matches(opp *ArbitrageOpportunity) bool {
	if !a.active || opp == nil {
		return false
	}
	if a.ItemID != "" && a.ItemID != opp.ItemID {
		return false
	}
	if a.BuyCity != "" && a.BuyCity != opp.BuyCity {
		return false
	}
	if a.SellCity != "" && a.SellCity != opp.SellCity {
		return false
	}
	if opp.BestProfitPercent.LessThan(a.MinProfitPercent) {
		return false
	}
	if !a.IsPersistent {
		a.active = false
	}
	return true
}
