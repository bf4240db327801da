// Package catalog exposes product and branch reference data.
// The catalog is owned by an external collaborator; the stock engine only
// reads it, and copies unit prices into sale lines at creation time so that
// later price changes never retroactively affect historical sales.
package catalog

import (
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/types"
)

// Product is immutable reference data.
type Product struct {
	ID              id.ID       `db:"id" json:"id"`
	ItemCode        string      `db:"item_code" json:"itemCode"`
	ItemParticulars string      `db:"item_particulars" json:"itemParticulars"`
	SellingPrice    types.Money `db:"selling_price" json:"sellingPrice"`
	CreatedAt       time.Time   `db:"created_at" json:"createdAt"`
}

// Branch is the profile of a retail branch, used for receipt headers and
// report labels.
type Branch struct {
	ID       id.ID  `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Location string `db:"location" json:"location"`
	Contact  string `db:"contact" json:"contact"`
	Email    string `db:"email" json:"email"`
}
