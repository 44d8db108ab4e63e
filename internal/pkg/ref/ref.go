// internal/pkg/ref/ref.go
package ref

import "github.com/oklog/ulid/v2"

// Reference generators for externally visible identifiers. ULIDs sort
// by creation time, which keeps gateway dashboards readable.

func NewPayment() string {
	return "PAY-" + ulid.Make().String()
}

func NewDisbursement() string {
	return "DSB-" + ulid.Make().String()
}

func NewLoyaltyCredit() string {
	return "LOY-" + ulid.Make().String()
}
