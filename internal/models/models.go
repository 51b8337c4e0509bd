package models

// Dimension rows. Keys are integers; text only exists at the file boundary.

type Region struct {
	RegionKey int64
	Name      string
}

type Nation struct {
	NationKey int64
	Name      string
	RegionKey int64
}

type Supplier struct {
	SuppKey   int64
	NationKey int64
}

type Customer struct {
	CustKey   int64
	NationKey int64
}

// Order.OrderDate is YYYYMMDD (1994-03-01 -> 19940301).
type Order struct {
	OrderKey  int64
	CustKey   int64
	OrderDate int32
}

// API payloads

type NationRevenue struct {
	Nation    string  `json:"nation"`
	Revenue   float64 `json:"revenue"`
	LineItems int     `json:"line_items"`
}

type QueryStats struct {
	Threads       int    `json:"threads"`
	RowsScanned   int    `json:"rows_scanned"`
	RowsMatched   int    `json:"rows_matched"`
	ValidOrders   int    `json:"valid_orders"`
	RegionNations int    `json:"region_nations"`
	Elapsed       string `json:"elapsed"`
}

type RevenueResponse struct {
	QueryID string          `json:"query_id"`
	Region  string          `json:"region"`
	Start   string          `json:"start"`
	End     string          `json:"end"`
	Data    []NationRevenue `json:"data"`
	Total   int             `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	Stats   QueryStats      `json:"stats"`
}

type TableCounts struct {
	Customer int `json:"customer"`
	Orders   int `json:"orders"`
	LineItem int `json:"lineitem"`
	Supplier int `json:"supplier"`
	Nation   int `json:"nation"`
	Region   int `json:"region"`
}

type Status struct {
	State  string       `json:"state"`
	Error  string       `json:"error,omitempty"`
	Tables *TableCounts `json:"tables,omitempty"`
}
