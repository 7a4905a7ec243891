package inbox

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/storyboard/pkg/canvas"
	errs "github.com/matzehuels/storyboard/pkg/errors"
	"github.com/matzehuels/storyboard/pkg/geom"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestFailureKeepsResult(t *testing.T) {
	s := canvas.New(canvas.Options{})
	for range 6 {
		s.AddNode(geom.V(0, 0), canvas.NewConcept("filler"))
	}
	id := s.AddNode(geom.V(0, 0), canvas.NewResearch("q"))
	require.Equal(t, canvas.NodeID(7), id)

	n, _ := s.Node(id)
	prior := "earlier result"
	n.Content.(*canvas.Research).Result = &prior

	_, err := s.BeginOperation(id)
	require.NoError(t, err)

	b := New(4)
	require.NoError(t, b.Send(context.Background(), Failure{NodeID: 7, Reason: "timeout"}))
	r := b.Drain(s)

	assert.Equal(t, 1, r.Applied)
	assert.False(t, n.Content.Pending())
	assert.Equal(t, "earlier result", *n.Content.(*canvas.Research).Result)
}

func TestDrainAppliesAll(t *testing.T) {
	s := canvas.New(canvas.Options{})
	c := s.AddNode(geom.V(0, 0), canvas.NewConcept("c"))
	v := s.AddNode(geom.V(300, 0), canvas.NewVisual("v"))
	for _, id := range []canvas.NodeID{c, v} {
		_, err := s.BeginOperation(id)
		require.NoError(t, err)
	}

	b := New(0)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, TextResult{NodeID: c, Text: "expanded"}))
	require.NoError(t, b.Send(ctx, ImageResult{NodeID: v, Data: pngBytes(t, 3, 2)}))
	require.Equal(t, 2, b.Len())

	r := b.Drain(s)
	assert.Equal(t, Report{Applied: 2}, r)
	assert.Zero(t, b.Len())

	nc, _ := s.Node(c)
	assert.Equal(t, "expanded", *nc.Content.(*canvas.Concept).Expansion)
	nv, _ := s.Node(v)
	img := nv.Content.(*canvas.Visual).Image
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.False(t, nv.Content.Pending())
}

func TestDrainDropsStale(t *testing.T) {
	s := canvas.New(canvas.Options{})
	id := s.AddNode(geom.V(0, 0), canvas.NewResearch("q"))
	_, _ = s.BeginOperation(id)
	s.RemoveNode(id)

	b := New(4)
	ctx := context.Background()
	require.NoError(t, b.Send(ctx, TextResult{NodeID: id, Text: "late"}))
	require.NoError(t, b.Send(ctx, ImageResult{NodeID: id, Data: []byte("junk")}))
	require.NoError(t, b.Send(ctx, Failure{NodeID: id, Reason: "late"}))

	r := b.Drain(s)
	assert.Equal(t, Report{Stale: 3}, r)
	assert.Zero(t, s.NodeCount())
}

func TestDrainBadImage(t *testing.T) {
	s := canvas.New(canvas.Options{})
	id := s.AddNode(geom.V(0, 0), canvas.NewVisual("v"))
	_, _ = s.BeginOperation(id)

	b := New(1)
	require.NoError(t, b.Send(context.Background(), ImageResult{NodeID: id, Data: []byte("not an image")}))
	r := b.Drain(s)

	require.Len(t, r.Errors, 1)
	assert.Equal(t, 1, r.Rejected)
	assert.Zero(t, r.Applied)
	assert.True(t, errs.Is(r.Errors[0], errs.ErrCodeInvalidFormat))
	n, _ := s.Node(id)
	assert.False(t, n.Content.Pending())
	assert.Nil(t, n.Content.(*canvas.Visual).Image)
}

func TestDrainMismatchedPayload(t *testing.T) {
	s := canvas.New(canvas.Options{})
	id := s.AddNode(geom.V(0, 0), canvas.NewResearch("q"))
	_, _ = s.BeginOperation(id)

	b := New(2)
	require.NoError(t, b.Send(context.Background(), ImageResult{NodeID: id, Data: pngBytes(t, 1, 1)}))
	require.NoError(t, b.Send(context.Background(), TextResult{NodeID: id, Text: "ok"}))
	r := b.Drain(s)

	assert.Equal(t, 1, r.Rejected, "mismatched payload is not counted as applied")
	assert.Equal(t, 1, r.Applied)
	require.Len(t, r.Errors, 1)
	assert.ErrorIs(t, r.Errors[0], canvas.ErrPayloadMismatch)
	n, _ := s.Node(id)
	assert.False(t, n.Content.Pending())
}

func TestDrainDoesNotBlock(t *testing.T) {
	s := canvas.New(canvas.Options{})
	b := New(1)

	done := make(chan Report)
	go func() { done <- b.Drain(s) }()
	select {
	case r := <-done:
		assert.Zero(t, r.Applied)
	case <-time.After(time.Second):
		t.Fatal("Drain blocked on an empty inbox")
	}
}

func TestSendRespectsContext(t *testing.T) {
	b := New(1)
	require.NoError(t, b.Send(context.Background(), Failure{NodeID: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := b.Send(ctx, Failure{NodeID: 2})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 50

	s := canvas.New(canvas.Options{})
	ids := make([]canvas.NodeID, producers*perProducer)
	for i := range ids {
		ids[i] = s.AddNode(geom.V(0, 0), canvas.NewResearch("q"))
		_, err := s.BeginOperation(ids[i])
		require.NoError(t, err)
	}

	b := New(16)
	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perProducer {
				_ = b.Send(context.Background(), TextResult{NodeID: ids[p*perProducer+i], Text: "ok"})
			}
		}()
	}

	finished := make(chan struct{})
	go func() { wg.Wait(); close(finished) }()

	applied := 0
	for applied < len(ids) {
		applied += b.Drain(s).Applied
		select {
		case <-finished:
			applied += b.Drain(s).Applied
			require.Equal(t, len(ids), applied)
		default:
		}
	}
	for _, id := range ids {
		n, _ := s.Node(id)
		assert.False(t, n.Content.Pending())
	}
}
