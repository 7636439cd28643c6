package services

import (
	"sync"
	"time"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/utils"
)

// StockMonitor periodically looks for ingredients running low and alerts the
// kitchen once per stock level, so an unchanged shortage is not repeated
// on every tick.
type StockMonitor struct {
	Ledger    *Ledger
	Notifier  Notifier
	Threshold int
	Interval  time.Duration
	StopChan  chan struct{}

	wg       sync.WaitGroup
	stopOnce sync.Once
	reported map[uint]int
}

func NewStockMonitor(ledger *Ledger, notifier Notifier, threshold int, interval time.Duration) *StockMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &StockMonitor{
		Ledger:    ledger,
		Notifier:  notifier,
		Threshold: threshold,
		Interval:  interval,
		StopChan:  make(chan struct{}),
		reported:  make(map[uint]int),
	}
}

func (sm *StockMonitor) Start() {
	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		ticker := time.NewTicker(sm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sm.checkStock()
			case <-sm.StopChan:
				return
			}
		}
	}()
}

// Stop ends the monitor goroutine and waits for it to exit.
func (sm *StockMonitor) Stop() {
	sm.stopOnce.Do(func() { close(sm.StopChan) })
	sm.wg.Wait()
}

func (sm *StockMonitor) checkStock() {
	low := sm.Ledger.ListBelow(sm.Threshold)

	var fresh []models.Ingredient
	current := make(map[uint]int, len(low))
	for _, ing := range low {
		current[ing.ID] = ing.Stock
		if last, ok := sm.reported[ing.ID]; ok && last == ing.Stock {
			continue
		}
		fresh = append(fresh, ing)
	}
	sm.reported = current

	if len(fresh) == 0 {
		return
	}
	for _, ing := range fresh {
		utils.InfoLogger.WithField("ingredient_id", ing.ID).
			Warnf("ingredient %s is low: %d left", ing.Name, ing.Stock)
	}
	sm.Notifier.LowStock(fresh)
}
