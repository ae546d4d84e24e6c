package ssagen

import "kanso/internal/ssa/ir"

// DatabusVisibility classifies how a parameter or return value flows
// across the public/private boundary of a proof. Grounded on
// ssa/function_builder/data_bus.rs's DatabusVisibility enum.
type DatabusVisibility uint8

const (
	// VisibilityNone is an ordinary value with no databus treatment.
	VisibilityNone DatabusVisibility = iota
	// VisibilityPublic is a public input/output, verified in the clear.
	VisibilityPublic
	// VisibilityPrivate is a private (witness-only) value.
	VisibilityPrivate
	// VisibilityCallData marks a parameter that is read from an
	// indexed call-data array rather than passed as individual
	// witnesses, identified by CallDataID.
	VisibilityCallData
	// VisibilityReturnData marks a return value written into an
	// indexed return-data array instead of individual witnesses.
	VisibilityReturnData
)

// CallData describes one call-data input array: which id it is (a
// function may have more than one, e.g. separate arrays per caller
// context) and the flattened list of values that belong to it.
type CallData struct {
	ID     uint32
	Values []ir.ValueId
}

// DataBusBuilder accumulates the flattened visibility list for a
// function's parameters (or return values) as they're declared, mirrors
// data_bus.rs's DataBusBuilder::new/is_databus.
type DataBusBuilder struct {
	visibilities []DatabusVisibility
	callData     map[uint32]*CallData
}

// NewDataBusBuilder returns an empty builder.
func NewDataBusBuilder() *DataBusBuilder {
	return &DataBusBuilder{callData: make(map[uint32]*CallData)}
}

// Push records one flattened field's visibility (a composite
// parameter/return value contributes one entry per scalar field it
// flattens to, via fieldCount in the original; callers here flatten
// ahead of time and call Push once per resulting scalar).
func (b *DataBusBuilder) Push(v DatabusVisibility) { b.visibilities = append(b.visibilities, v) }

// PushCallData records value as belonging to call-data array id.
func (b *DataBusBuilder) PushCallData(id uint32, value ir.ValueId) {
	cd, ok := b.callData[id]
	if !ok {
		cd = &CallData{ID: id}
		b.callData[id] = cd
	}
	cd.Values = append(cd.Values, value)
	b.Push(VisibilityCallData)
}

// IsDatabus reports whether any entry pushed so far carries call-data or
// return-data visibility (i.e. this function actually uses the databus
// mechanism rather than plain public/private witnesses).
func (b *DataBusBuilder) IsDatabus() bool {
	for _, v := range b.visibilities {
		if v == VisibilityCallData || v == VisibilityReturnData {
			return true
		}
	}
	return false
}

// DataBus is the finished, per-function summary: the parameter and
// return-value databuses, built once signature flattening is complete.
type DataBus struct {
	CallDataArrays []*CallData
	ReturnData     *CallData
}

// Build finalizes a DataBusBuilder into a DataBus, sorted by array id so
// output is deterministic regardless of map iteration order.
func (b *DataBusBuilder) Build() DataBus {
	var arrays []*CallData
	for _, cd := range b.callData {
		arrays = append(arrays, cd)
	}
	for i := 1; i < len(arrays); i++ {
		for j := i; j > 0 && arrays[j-1].ID > arrays[j].ID; j-- {
			arrays[j-1], arrays[j] = arrays[j], arrays[j-1]
		}
	}
	return DataBus{CallDataArrays: arrays}
}

// MapValues returns a copy of every call-data value across all arrays,
// in array-id order, followed by the return-data values when ReturnData
// is set; used by passes that need to treat the whole
// databus as one flat list (mirrors DataBus::map_values).
func (d DataBus) MapValues() []ir.ValueId {
	var out []ir.ValueId
	for _, cd := range d.CallDataArrays {
		out = append(out, cd.Values...)
	}
	if d.ReturnData != nil {
		out = append(out, d.ReturnData.Values...)
	}
	return out
}
