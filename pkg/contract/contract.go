// Package contract is the root service every other bounded context's
// contract_id foreign key references: it creates and looks up Contract
// rows by id and name. Grounded on the teacher's pkg/incident row/response
// layering.
package contract

import (
	"time"

	"github.com/google/uuid"
)

// Contract is the root entity identifying a deployed smart contract by
// name, independent of any particular version or ABI snapshot.
type Contract struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateRequest is the JSON body for POST /api/v1/contracts.
type CreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}
