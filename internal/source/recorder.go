package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"mold_autotest/internal/thermocouple"
)

// Recorder wraps a DataSource and appends every polled batch to w in the
// format NewReplay reads.
type Recorder struct {
	src DataSource

	mu    sync.Mutex
	enc   *json.Encoder
	sides map[thermocouple.Side]string
}

// NewRecorder returns a recording DataSource.
func NewRecorder(src DataSource, w io.Writer) *Recorder {
	return &Recorder{src: src, enc: json.NewEncoder(w)}
}

// SideStates forwards to the wrapped source and remembers the result for
// the next recorded frame.
func (r *Recorder) SideStates(ctx context.Context) (map[thermocouple.Side]string, error) {
	sides, err := r.src.SideStates(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sides = sides
	r.mu.Unlock()
	return sides, nil
}

// SensorData forwards to the wrapped source and writes one frame.
func (r *Recorder) SensorData(ctx context.Context) (Batch, error) {
	b, err := r.src.SensorData(ctx)
	if err != nil {
		return Batch{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fr := Frame{Time: Timestamp(b.Time), State: b.State}
	if r.sides != nil {
		fr.Sides = make(map[string]string, len(r.sides))
		for side, state := range r.sides {
			fr.Sides[string(side)] = state
		}
	}
	if err := r.enc.Encode(fr); err != nil {
		return Batch{}, fmt.Errorf("record frame: %w", err)
	}
	return b, nil
}
