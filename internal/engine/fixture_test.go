package engine

import "q5engine/internal/models"

const (
	asiaKey   = 2
	europeKey = 3

	franceKey = 6
	indiaKey  = 8
	chinaKey  = 18
)

var window1994 = Window{Start: 19940101, End: 19950101}

// asiaTables:
//
//	order 100 (INDIA customer, 1994-03-01): INDIA supplier 1000 @ 10% -> INDIA 900
//	                                        CHINA supplier 500       -> nation mismatch
//	order 101 (CHINA customer, 1994-01-01): CHINA supplier 200 @ 50% -> CHINA 100
//	order 102 (INDIA customer, 1995-01-01): excluded, end of window
//	order 103 (FRANCE customer):            not in ASIA
//	order 999:                              unknown order
func asiaTables() *Tables {
	t := &Tables{
		Regions: []models.Region{
			{RegionKey: asiaKey, Name: "ASIA"},
			{RegionKey: europeKey, Name: "EUROPE"},
		},
		Nations: []models.Nation{
			{NationKey: franceKey, Name: "FRANCE", RegionKey: europeKey},
			{NationKey: indiaKey, Name: "INDIA", RegionKey: asiaKey},
			{NationKey: chinaKey, Name: "CHINA", RegionKey: asiaKey},
		},
		Customers: []models.Customer{
			{CustKey: 1, NationKey: indiaKey},
			{CustKey: 2, NationKey: chinaKey},
			{CustKey: 3, NationKey: franceKey},
		},
		Suppliers: []models.Supplier{
			{SuppKey: 10, NationKey: indiaKey},
			{SuppKey: 20, NationKey: chinaKey},
			{SuppKey: 30, NationKey: franceKey},
		},
		Orders: []models.Order{
			{OrderKey: 100, CustKey: 1, OrderDate: 19940301},
			{OrderKey: 101, CustKey: 2, OrderDate: 19940101},
			{OrderKey: 102, CustKey: 1, OrderDate: 19950101},
			{OrderKey: 103, CustKey: 3, OrderDate: 19940615},
		},
	}
	t.LineItems.Append(100, 10, 1000, 0.10)
	t.LineItems.Append(100, 20, 500, 0)
	t.LineItems.Append(101, 20, 200, 0.5)
	t.LineItems.Append(102, 10, 300, 0)
	t.LineItems.Append(103, 30, 400, 0)
	t.LineItems.Append(999, 10, 50, 0)
	return t
}
