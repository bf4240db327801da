package types

// Quantity is a whole-unit stock count. Retail stock here moves in discrete
// units, so no fixed-point scaling is needed.
type Quantity int64

func (q Quantity) Int64() int64 { return int64(q) }

func (q Quantity) IsZero() bool { return q == 0 }

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) IsNegative() bool { return q < 0 }
