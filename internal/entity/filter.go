package entity

type OrderFactor string

const (
	Ascending  OrderFactor = "ASC"
	Descending OrderFactor = "DESC"
)

func (of *OrderFactor) String() string {
	if of != nil {
		if *of == Ascending {
			return "ASC"
		}
		return "DESC"
	}
	return "ASC"
}

// OrderBy orders a record read by a single field.
type OrderBy struct {
	Field  string
	Factor OrderFactor
}

// ReadQuery describes which fields of which records a read returns.
type ReadQuery struct {
	Fields []string
	// Limit caps the number of rows; 0 means unbounded.
	Limit int
	Order []OrderBy
}
