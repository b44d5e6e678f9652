package graphql

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Int64 is the Int64 scalar. GraphQL's Int is 32 bits, too narrow for
// amounts.
type Int64 int64

func (Int64) ImplementsGraphQLType(name string) bool { return name == "Int64" }

func (i *Int64) UnmarshalGraphQL(input interface{}) error {
	switch v := input.(type) {
	case int32:
		*i = Int64(v)
	case int64:
		*i = Int64(v)
	case int:
		*i = Int64(v)
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return fmt.Errorf("Int64: %v is not an integer in range", v)
		}
		*i = Int64(v)
	case json.Number:
		n, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("Int64: %w", err)
		}
		*i = Int64(n)
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("Int64: %w", err)
		}
		*i = Int64(n)
	default:
		return fmt.Errorf("Int64: unsupported input %T", input)
	}
	return nil
}

func (i Int64) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(i), 10), nil
}
