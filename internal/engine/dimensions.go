package engine

// Window is the half-open order date interval [Start, End), YYYYMMDD.
type Window struct {
	Start int32
	End   int32
}

func (w Window) Contains(d int32) bool {
	return w.Start <= d && d < w.End
}

// Dimensions are the lookup tables the fact scan joins against. All maps are
// read-only once ResolveDimensions returns.
type Dimensions struct {
	NationOfInterest map[int64]string // nation key -> name, target region only
	NationOfSupplier map[int64]int64
	NationOfCustomer map[int64]int64
	CustomerOfOrder  map[int64]int64 // orders inside the window only
	ValidOrders      map[int64]struct{}
}

// ResolveDimensions narrows region -> nation and builds the supplier,
// customer and order lookups. An unknown region is not an error: it yields
// an empty NationOfInterest and therefore an empty result.
func ResolveDimensions(t *Tables, region string, w Window) *Dimensions {
	regionKey, found := int64(0), false
	for _, r := range t.Regions {
		if r.Name == region {
			regionKey, found = r.RegionKey, true
		}
	}

	d := &Dimensions{
		NationOfInterest: make(map[int64]string),
		NationOfSupplier: make(map[int64]int64, len(t.Suppliers)),
		NationOfCustomer: make(map[int64]int64, len(t.Customers)),
		CustomerOfOrder:  make(map[int64]int64),
		ValidOrders:      make(map[int64]struct{}),
	}

	if found {
		for _, n := range t.Nations {
			if n.RegionKey == regionKey {
				d.NationOfInterest[n.NationKey] = n.Name
			}
		}
	}

	for _, s := range t.Suppliers {
		d.NationOfSupplier[s.SuppKey] = s.NationKey
	}
	for _, c := range t.Customers {
		d.NationOfCustomer[c.CustKey] = c.NationKey
	}
	for _, o := range t.Orders {
		if w.Contains(o.OrderDate) {
			d.CustomerOfOrder[o.OrderKey] = o.CustKey
			d.ValidOrders[o.OrderKey] = struct{}{}
		}
	}
	return d
}
