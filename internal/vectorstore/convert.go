package vectorstore

import (
	"github.com/qdrant/go-client/qdrant"

	"govreporter/internal/models"
)

// =============================================================================
// WIRE PAYLOAD DECODING
// =============================================================================

// parseWirePayload rebuilds a payload from the stored value map, restoring
// the original id and splitting text back out of the metadata.
func parseWirePayload(values map[string]*qdrant.Value) models.Payload {
	var p models.Payload
	p.Metadata = make(map[string]any, len(values))

	for k, v := range values {
		switch k {
		case "original_id":
			p.ID, _ = valueToAny(v).(string)
		case "text":
			p.Text, _ = valueToAny(v).(string)
		default:
			p.Metadata[k] = valueToAny(v)
		}
	}
	return p
}

// valueToAny converts a qdrant Value to its plain Go form.
func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_NullValue:
		return nil
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		list := make([]any, 0, len(items))
		for _, item := range items {
			list = append(list, valueToAny(item))
		}
		return list
	case *qdrant.Value_StructValue:
		fields := kind.StructValue.GetFields()
		m := make(map[string]any, len(fields))
		for k, item := range fields {
			m[k] = valueToAny(item)
		}
		return m
	default:
		return nil
	}
}
