package inbox

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	_ "golang.org/x/image/webp" // register decoder

	"github.com/matzehuels/storyboard/pkg/canvas"
	errs "github.com/matzehuels/storyboard/pkg/errors"
)

// DefaultCapacity is the buffer size used when New is given zero.
const DefaultCapacity = 256

// Message is the outcome of one background operation. Exactly one message
// is sent per dispatched operation.
type Message interface {
	Target() canvas.NodeID
}

// TextResult carries a text payload for node NodeID.
type TextResult struct {
	NodeID canvas.NodeID
	Text   string
}

// ImageResult carries encoded image bytes for node NodeID. Decoding happens
// on the consumer side when the message is applied.
type ImageResult struct {
	NodeID canvas.NodeID
	Data   []byte
}

// Failure reports that the operation on node NodeID did not complete.
type Failure struct {
	NodeID canvas.NodeID
	Reason string
}

func (m TextResult) Target() canvas.NodeID  { return m.NodeID }
func (m ImageResult) Target() canvas.NodeID { return m.NodeID }
func (m Failure) Target() canvas.NodeID     { return m.NodeID }

// Inbox is a multi-producer, single-consumer queue of outcome messages.
// Any number of goroutines may Send; only the goroutine that owns the
// canvas.State may Drain.
type Inbox struct {
	ch chan Message
}

// New creates an inbox buffering up to capacity undelivered messages.
func New(capacity int) *Inbox {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Inbox{ch: make(chan Message, capacity)}
}

// Send enqueues m. It blocks while the buffer is full and returns the
// context error if ctx ends first.
func (b *Inbox) Send(ctx context.Context, m Message) error {
	select {
	case b.ch <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of messages waiting to be drained.
func (b *Inbox) Len() int { return len(b.ch) }

// Report summarizes one Drain call.
type Report struct {
	Applied  int
	Stale    int // messages for nodes that no longer exist
	Rejected int // payloads the node could not take; pending is still cleared
	Errors   []error
}

// Drain applies every message currently buffered to s and returns without
// waiting for more. Messages for deleted nodes are counted as stale and
// otherwise ignored. Messages that fail to apply are counted as rejected
// and their errors collected.
func (b *Inbox) Drain(s *canvas.State) Report {
	var r Report
	for {
		select {
		case m := <-b.ch:
			err := Apply(s, m)
			switch {
			case err == nil:
				r.Applied++
			case canvas.IsStale(err):
				r.Stale++
			default:
				r.Rejected++
				r.Errors = append(r.Errors, err)
			}
		default:
			return r
		}
	}
}

// Apply applies a single message to s. The node's pending flag is cleared
// in every case where the node still exists.
func Apply(s *canvas.State, m Message) error {
	switch m := m.(type) {
	case TextResult:
		return s.ResolveText(m.NodeID, m.Text)
	case ImageResult:
		if !s.Has(m.NodeID) {
			return errs.Wrap(errs.ErrCodeNodeNotFound, canvas.ErrNodeNotFound, "node %d", m.NodeID)
		}
		img, _, err := image.Decode(bytes.NewReader(m.Data))
		if err != nil {
			_ = s.Fail(m.NodeID)
			return errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode image for node %d", m.NodeID)
		}
		return s.ResolveImage(m.NodeID, img)
	case Failure:
		return s.Fail(m.NodeID)
	default:
		return errs.New(errs.ErrCodeInternal, "unknown message %T", m)
	}
}
