package market

import (
	"fmt"
	"math"
	"time"
)

// Null is the cell value used for a missing observation in a Frame.
var Null = math.NaN()

// Frame is a raw, column-oriented OHLCV table as a provider returns it.
// Column labels are free-form; a missing cell is NaN and a missing index
// entry is the zero time.
type Frame struct {
	Index   []time.Time
	Columns []string

	data map[string][]float64
}

// NewFrame returns a frame over index with no columns.
func NewFrame(index []time.Time) *Frame {
	return &Frame{
		Index: index,
		data:  make(map[string][]float64),
	}
}

// Set adds the named column, or replaces it if the label already exists.
func (f *Frame) Set(name string, vals []float64) error {
	if len(vals) != len(f.Index) {
		return fmt.Errorf("column %q has %d values, index has %d", name, len(vals), len(f.Index))
	}
	if f.data == nil {
		f.data = make(map[string][]float64)
	}
	if _, ok := f.data[name]; !ok {
		f.Columns = append(f.Columns, name)
	}
	f.data[name] = vals
	return nil
}

// Column returns the values stored under the exact label name.
func (f *Frame) Column(name string) ([]float64, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.data[name]
	return v, ok
}

func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// Empty is true for a nil frame, a frame without rows or without columns.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Index) == 0 || len(f.Columns) == 0
}

// check reports a frame whose Columns and Index disagree with its data, as
// happens when the exported fields are filled in by hand.
func (f *Frame) check() error {
	for _, name := range f.Columns {
		vals, ok := f.data[name]
		if !ok {
			return fmt.Errorf("frame column %q has no data", name)
		}
		if len(vals) != len(f.Index) {
			return fmt.Errorf("frame column %q has %d values, index has %d", name, len(vals), len(f.Index))
		}
	}
	return nil
}
