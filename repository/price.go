package repository

import (
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/bsoncore"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/AlfredDev/bestcombo/apperr"
)

// flexiblePrice normalizes the upstream aggregation's monthly_price_cents
// quirk (spec.md §4.4/§6): it may arrive as a number, a numeric string,
// an empty string, null, or be absent entirely. All but a non-numeric
// non-empty string normalize to Some(n)/None; that last case is a hard
// deserialization error.
type flexiblePrice struct {
	value *uint64
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (p *flexiblePrice) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	val := bsoncore.Value{Type: t, Data: data}

	switch t {
	case bsontype.Null, bsontype.Undefined:
		p.value = nil
		return nil
	case bsontype.Int32:
		v, ok := val.Int32OK()
		if !ok {
			return fmt.Errorf("%w: monthly_price_cents: malformed int32", apperr.ErrDeserialization)
		}
		n := uint64(v)
		p.value = &n
		return nil
	case bsontype.Int64:
		v, ok := val.Int64OK()
		if !ok {
			return fmt.Errorf("%w: monthly_price_cents: malformed int64", apperr.ErrDeserialization)
		}
		n := uint64(v)
		p.value = &n
		return nil
	case bsontype.Double:
		v, ok := val.DoubleOK()
		if !ok {
			return fmt.Errorf("%w: monthly_price_cents: malformed double", apperr.ErrDeserialization)
		}
		n := uint64(v)
		p.value = &n
		return nil
	case bsontype.String:
		s, ok := val.StringValueOK()
		if !ok {
			return fmt.Errorf("%w: monthly_price_cents: malformed string", apperr.ErrDeserialization)
		}
		if s == "" {
			p.value = nil
			return nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: monthly_price_cents: non-numeric string %q", apperr.ErrDeserialization, s)
		}
		p.value = &n
		return nil
	default:
		return fmt.Errorf("%w: monthly_price_cents: unsupported bson type %s", apperr.ErrDeserialization, t)
	}
}
