package engine

import "q5engine/internal/models"

// LineItems holds the fact table in Struct-of-Arrays format for the scan.
// All columns have the same length.
type LineItems struct {
	OrderKeys      []int64
	SuppKeys       []int64
	ExtendedPrices []float64
	Discounts      []float64
}

func (li *LineItems) Len() int {
	return len(li.OrderKeys)
}

// Append adds one row. Used by tests and by the loader when merging chunks.
func (li *LineItems) Append(orderKey, suppKey int64, price, discount float64) {
	li.OrderKeys = append(li.OrderKeys, orderKey)
	li.SuppKeys = append(li.SuppKeys, suppKey)
	li.ExtendedPrices = append(li.ExtendedPrices, price)
	li.Discounts = append(li.Discounts, discount)
}

// Tables is the read-only table store. Nothing mutates it after LoadTables
// returns, so it is shared by reference across workers.
type Tables struct {
	Customers []models.Customer
	Orders    []models.Order
	LineItems LineItems
	Suppliers []models.Supplier
	Nations   []models.Nation
	Regions   []models.Region
}

func (t *Tables) Counts() models.TableCounts {
	return models.TableCounts{
		Customer: len(t.Customers),
		Orders:   len(t.Orders),
		LineItem: t.LineItems.Len(),
		Supplier: len(t.Suppliers),
		Nation:   len(t.Nations),
		Region:   len(t.Regions),
	}
}
