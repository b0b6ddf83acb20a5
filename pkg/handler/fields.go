package handler

import (
	"fmt"
	"math"
	"strconv"

	"github.com/AccelByte/extend-sponsor-unlock/pkg/offer"
	"github.com/AccelByte/extend-sponsor-unlock/pkg/unlock"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField reads a string. Numbers are accepted because chat platforms
// hand out numeric user IDs.
func stringField(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	}
	return ""
}

func intField(s *structpb.Struct, key string) (int64, error) {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%s must be an integer, got %v", key, n)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	}
	return 0, fmt.Errorf("%s must be an integer", key)
}

func boolField(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func stringsField(s *structpb.Struct, key string) []string {
	values := s.GetFields()[key].GetListValue().GetValues()
	if len(values) == 0 {
		return nil
	}

	out := make([]string, 0, len(values))
	for _, v := range values {
		if str := v.GetStringValue(); str != "" {
			out = append(out, str)
		}
	}
	return out
}

func offerValues(offers []offer.Offer) []interface{} {
	out := make([]interface{}, 0, len(offers))
	for _, o := range offers {
		entry := map[string]interface{}{
			"url":                 o.URL,
			"provider_source":     string(o.Source),
			"action_kind":         string(o.Kind),
			"requires_live_check": o.RequiresLiveCheck,
		}
		if o.Title != "" {
			entry["title"] = o.Title
		}
		out = append(out, entry)
	}
	return out
}

func resultStruct(res *unlock.Result) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"outcome": string(res.Outcome),
		"offers":  offerValues(res.Offers),
	}
	if res.Stage != "" {
		fields["stage"] = string(res.Stage)
	}
	if res.Variant != "" {
		fields["variant"] = string(res.Variant)
	}
	return structpb.NewStruct(fields)
}
