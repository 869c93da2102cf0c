package engine

import (
	"fmt"

	"github.com/talgya/main-street/internal/buildings"
	"github.com/talgya/main-street/internal/economy"
)

// shopOpen is true while a clerk is hired and the hour is inside trading
// hours.
func (s *Simulation) shopOpen(b *buildings.Building) bool {
	if b.Shop == nil || !b.Shop.HasEmployee {
		return false
	}
	h := s.g.Clock.Hour()
	return h >= s.cfg.Shops.OpenHour && h < s.cfg.Shops.CloseHour
}

// processShop refreshes opening state and raises low-stock alerts once per
// distinct stock level.
func (s *Simulation) processShop(b *buildings.Building) {
	inv := b.Shop
	if inv == nil {
		return
	}
	inv.IsOpen = s.shopOpen(b)
	s.checkLowStock(b)
}

func (s *Simulation) checkLowStock(b *buildings.Building) {
	inv := b.Shop
	if inv.Stock > s.cfg.Shops.LowStockLevel {
		inv.LastLowStockNotified = -1
		return
	}
	if inv.Stock == inv.LastLowStockNotified {
		return
	}
	inv.LastLowStockNotified = inv.Stock
	if inv.Stock == 0 {
		s.emitEvent(CategoryStock, b.ID, "%s is out of stock", s.label(b))
		return
	}
	s.emitEvent(CategoryStock, b.ID, "%s is low on stock (%d left)", s.label(b), inv.Stock)
}

// ShopPurchase sells one item to a visiting customer and returns the price.
func (s *Simulation) ShopPurchase(buildingID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return 0, err
	}
	if b.Shop == nil {
		return 0, fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}
	if !s.shopOpen(b) {
		return 0, fmt.Errorf("%s: %w", b.ID, ErrShopClosed)
	}
	if b.Shop.Stock <= 0 {
		return 0, fmt.Errorf("%s: %w", b.ID, ErrOutOfStock)
	}
	b.Shop.Stock--
	price := def.ItemPrice * s.totalBonus(b)
	s.award(b, def, price)
	s.checkLowStock(b)
	return price, nil
}

// RestockShop refills a shop to capacity and returns the cost paid.
func (s *Simulation) RestockShop(buildingID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, def, err := s.building(buildingID)
	if err != nil {
		return 0, err
	}
	if b.Shop == nil {
		return 0, fmt.Errorf("%s is a %s: %w", b.ID, b.Kind, ErrNotApplicable)
	}
	units := b.Shop.MaxStock - b.Shop.Stock
	if units <= 0 {
		return 0, nil
	}
	cost := economy.Round(float64(units) * def.RestockCost)
	if !s.g.Creative {
		if s.g.Treasury.Cash < cost {
			return 0, fmt.Errorf("restock %s for %s: %w", b.ID, economy.Format(cost), ErrInsufficientFunds)
		}
		s.g.Treasury.Charge(cost)
	}
	b.Shop.Stock = b.Shop.MaxStock
	b.Shop.LastLowStockNotified = -1
	s.emitEvent(CategoryStock, b.ID, "Restocked %s with %d items for %s", s.label(b), units, economy.Format(cost))
	return cost, nil
}
