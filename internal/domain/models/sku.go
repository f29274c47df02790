package models

// SKURecord is the merged view of one stock-keeping unit across the origin
// inventory sheet, the destination channel export and the sales history.
type SKURecord struct {
	Key                   string
	Name                  string
	OriginStock           float64
	DestinationStock      float64
	DestinationOptionCode string

	DestinationSales7D  float64
	DestinationSales30D float64
	// DirectDestinationSales30D excludes quantities redistributed from set sales.
	DirectDestinationSales30D float64
	HasDirectSales            bool

	OriginSales7D  float64
	OriginSales30D float64
}

// BOMEdge links a set SKU to one of its components.
type BOMEdge struct {
	SetKey       string
	ComponentKey string
	QtyPerSet    int
}
