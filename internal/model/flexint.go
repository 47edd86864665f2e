package model

import (
	"bytes"
	"strconv"
)

// FlexInt is an integer that accepts both 123 and "123" in JSON.
// Values that are not integers decode as invalid instead of failing the payload.
type FlexInt struct {
	Value int64
	Valid bool
}

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(b), `"`))
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = FlexInt{}
		return nil
	}
	*f = FlexInt{Value: v, Valid: true}
	return nil
}
