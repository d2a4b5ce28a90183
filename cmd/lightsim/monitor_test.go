package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lightcode-go/services/telemetry"
	"lightcode-go/types"
)

// chunkReader hands out data in small reads, reports io.EOF like a serial
// read timeout, then fails.
type chunkReader struct {
	data  []byte
	chunk int
	eofs  int
}

var errUnplugged = errors.New("device unplugged")

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		if r.eofs > 0 {
			r.eofs--
			return 0, io.EOF
		}
		return 0, errUnplugged
	}
	n := r.chunk
	if n > len(r.data) {
		n = len(r.data)
	}
	n = copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestMonitorStream_DecodesSplitLines(t *testing.T) {
	state, err := telemetry.Encode(types.TopicState, types.LightState{State: "ramping", Ramp: 90, Duties: [3]uint8{64}})
	assert.NoError(t, err)
	var in bytes.Buffer
	in.WriteString("[INFO] ui: boot profile=narsil\n")
	in.Write(state)
	in.WriteString("{broken\n")

	var out bytes.Buffer
	err = monitorStream(context.Background(), &chunkReader{data: in.Bytes(), chunk: 7, eofs: 3}, &out, false)

	assert.ErrorIs(t, err, errUnplugged)
	assert.Contains(t, out.String(), "[INFO] ui: boot profile=narsil\n")
	assert.Contains(t, out.String(), "light/state")
	assert.Contains(t, out.String(), "ramping group=0 mode=0 duties=64/0/0 ramp=90")
	assert.Contains(t, out.String(), "?? {broken")
}

func TestMonitorStream_Raw(t *testing.T) {
	line, _ := telemetry.Encode(types.TopicEvent, types.SwitchEvent{Kind: "double_click"})
	var out bytes.Buffer
	_ = monitorStream(context.Background(), &chunkReader{data: line, chunk: 64}, &out, true)
	assert.Equal(t, string(line), out.String())
}

func TestMonitorStream_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := monitorStream(ctx, &chunkReader{eofs: 1 << 30}, io.Discard, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBackoffSeq(t *testing.T) {
	next := backoffSeq(250*time.Millisecond, time.Second)
	got := []time.Duration{next(), next(), next(), next()}
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 500 * time.Millisecond, time.Second, time.Second}, got)
}
