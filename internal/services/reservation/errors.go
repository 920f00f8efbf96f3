package reservation

import "errors"

var (
	ErrEmptySeries     = errors.New("reservation: empty price series")
	ErrInvalidBounds   = errors.New("reservation: invalid market bounds")
	ErrEtaOutOfRange   = errors.New("reservation: error parameter out of range")
	ErrInvalidDiscount = errors.New("reservation: discount factor must be positive")
	ErrInvalidTrust    = errors.New("reservation: invalid trust bounds")
	ErrUnknownVariant  = errors.New("reservation: unknown algorithm variant")
)
