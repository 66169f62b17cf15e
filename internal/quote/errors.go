package quote

import (
	"errors"
	"strings"
)

// ErrUnknownProduct is matched by every UnknownProductError via errors.Is.
var ErrUnknownProduct = errors.New("no known product codes in email")

// UnknownProductError is returned when not a single line of an email
// resolves to a catalog product. Codes is empty when the email contained
// no product lines at all.
type UnknownProductError struct {
	Codes []string
}

func (e *UnknownProductError) Error() string {
	if len(e.Codes) == 0 {
		return "unknown product: no product codes found in email"
	}
	return "unknown product: " + strings.Join(e.Codes, ", ")
}

// Is reports whether target is ErrUnknownProduct.
func (e *UnknownProductError) Is(target error) bool {
	return target == ErrUnknownProduct
}
