package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/relvacode/iso8601"

	"mold_autotest/internal/thermocouple"
)

// ErrExhausted is returned once a replay has served its last frame.
var ErrExhausted = errors.New("replay exhausted")

// maxFrameSize bounds a single JSON line of a recording.
const maxFrameSize = 1 << 20

// Timestamp is an ISO 8601 instant in a recording.
type Timestamp time.Time

// MarshalText formats the instant as RFC 3339 with nanoseconds.
func (t Timestamp) MarshalText() ([]byte, error) {
	return []byte(time.Time(t).UTC().Format(time.RFC3339Nano)), nil
}

// UnmarshalText accepts any ISO 8601 date-time.
func (t *Timestamp) UnmarshalText(b []byte) error {
	parsed, err := iso8601.Parse(b)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Frame is one line of a recording.
type Frame struct {
	Time  Timestamp         `json:"time"`
	State map[int]Reading   `json:"state"`
	Sides map[string]string `json:"sides,omitempty"`
}

type replayFrame struct {
	batch Batch
	sides map[thermocouple.Side]string
}

// Replay serves a recording one frame per SensorData call. SideStates
// reports the sides of the frame SensorData will return next.
type Replay struct {
	mu     sync.Mutex
	frames []replayFrame
	next   int
}

// OpenReplay loads a recording from path.
func OpenReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()
	return NewReplay(f)
}

// NewReplay reads a JSON-lines recording. Blank lines are skipped. A frame
// without "sides" reports every side as healthy.
func NewReplay(r io.Reader) (*Replay, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxFrameSize)

	rp := &Replay{}
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		var fr Frame
		if err := json.Unmarshal(raw, &fr); err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		sides, err := frameSides(fr.Sides)
		if err != nil {
			return nil, fmt.Errorf("replay line %d: %w", line, err)
		}
		rp.frames = append(rp.frames, replayFrame{
			batch: Batch{Time: time.Time(fr.Time), State: fr.State},
			sides: sides,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read replay: %w", err)
	}
	return rp, nil
}

func frameSides(raw map[string]string) (map[thermocouple.Side]string, error) {
	out := make(map[thermocouple.Side]string, len(thermocouple.Sides))
	if raw == nil {
		for _, side := range thermocouple.Sides {
			out[side] = SideOK
		}
		return out, nil
	}
	for name, state := range raw {
		side, err := thermocouple.ParseSide(name)
		if err != nil {
			return nil, err
		}
		out[side] = state
	}
	return out, nil
}

// Len is the number of frames in the recording.
func (r *Replay) Len() int {
	return len(r.frames)
}

// SensorData returns the next frame.
func (r *Replay) SensorData(ctx context.Context) (Batch, error) {
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.frames) {
		return Batch{}, ErrExhausted
	}
	b := r.frames[r.next].batch
	r.next++
	return b, nil
}

// SideStates returns the side states of the upcoming frame.
func (r *Replay) SideStates(ctx context.Context) (map[thermocouple.Side]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next >= len(r.frames) {
		return nil, ErrExhausted
	}
	src := r.frames[r.next].sides
	out := make(map[thermocouple.Side]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out, nil
}
