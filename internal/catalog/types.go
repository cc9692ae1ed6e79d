package catalog

// Product is a catalog record resolved by code. Prices are integer minor
// currency units. Immutable once received.
type Product struct {
	Code      string `json:"PRD_CD"`
	Name      string `json:"PRD_NAME"`
	UnitPrice int64  `json:"PRD_PRICE"`
}

// TaxEntry is one row of the remote tax schedule.
type TaxEntry struct {
	Code    int     `json:"CODE"`
	Percent float64 `json:"PERCENT"`
}

// PurchaseItem is one purchased line as submitted to the catalog service.
type PurchaseItem struct {
	Code      string `json:"PRD_CD"`
	Name      string `json:"PRD_NAME"`
	UnitPrice int64  `json:"PRD_PRICE"`
	Quantity  int    `json:"quantity"`
}

// PurchaseRequest is the purchase submission payload.
type PurchaseRequest struct {
	Items           []PurchaseItem `json:"items"`
	TotalWithTax    int64          `json:"totalWithTax"`
	TotalWithoutTax int64          `json:"totalWithoutTax"`
}
