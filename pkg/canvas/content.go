package canvas

import (
	"fmt"
	"image"
	"strings"
)

// Kind enumerates the closed set of node content variants.
type Kind int

const (
	// KindConcept is freeform text that can be expanded through an LLM.
	KindConcept Kind = iota
	// KindResearch holds a search query and its remote result.
	KindResearch
	// KindVisual holds a generation prompt and the generated image.
	KindVisual
	// KindExport tracks the status of a document export.
	KindExport
)

// Kinds lists every content kind in display order.
var Kinds = []Kind{KindConcept, KindResearch, KindVisual, KindExport}

// String returns the lower-case kind name used in logs and config.
func (k Kind) String() string {
	switch k {
	case KindConcept:
		return "concept"
	case KindResearch:
		return "research"
	case KindVisual:
		return "visual"
	case KindExport:
		return "export"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Operation names the remote enrichment a content kind can trigger.
type Operation string

// Remote operations, one per content kind.
const (
	OpExpand    Operation = "expand"
	OpSearch    Operation = "search"
	OpVisualize Operation = "visualize"
	OpExport    Operation = "export"
)

// Operation returns the remote operation a node of this kind triggers.
func (k Kind) Operation() Operation {
	switch k {
	case KindConcept:
		return OpExpand
	case KindResearch:
		return OpSearch
	case KindVisual:
		return OpVisualize
	case KindExport:
		return OpExport
	default:
		panic(fmt.Sprintf("canvas: unhandled kind %v", k))
	}
}

// Content is the closed sum type carried by every node. The unexported
// methods seal it to this package: *Concept, *Research, *Visual and *Export
// are the only implementations, and every switch over Content in this
// module handles all four.
type Content interface {
	// Kind identifies the variant.
	Kind() Kind
	// Title is the header shown on the node.
	Title() string
	// Summary is the body text used by renderers and exports.
	Summary() string
	// Pending reports whether a remote operation is in flight.
	Pending() bool

	flag() *pendingFlag
}

// pendingFlag is embedded by every content variant.
type pendingFlag struct {
	pending bool
}

func (p *pendingFlag) Pending() bool      { return p.pending }
func (p *pendingFlag) flag() *pendingFlag { return p }

// DefaultModel is the LLM used to expand concepts when none is set.
const DefaultModel = "openai/gpt-4o-mini"

// Concept is freeform text. Its remote operation asks an LLM to expand the
// text into a scene; the answer is kept in Expansion.
type Concept struct {
	pendingFlag
	Text      string
	Model     string
	Expansion *string
}

// Research is a search query with an optional result.
type Research struct {
	pendingFlag
	Query  string
	Result *string
}

// Visual is an image generation prompt with an optional decoded image.
type Visual struct {
	pendingFlag
	Prompt string
	Image  image.Image
}

// Export tracks a document export built from the text of every node.
type Export struct {
	pendingFlag
	Status string

	prior string // status before the in-flight export, restored on failure
}

// NewConcept returns concept content with the default model.
func NewConcept(text string) *Concept { return &Concept{Text: text, Model: DefaultModel} }

// NewResearch returns research content without a result.
func NewResearch(query string) *Research { return &Research{Query: query} }

// NewVisual returns visual content without an image.
func NewVisual(prompt string) *Visual { return &Visual{Prompt: prompt} }

// NewExport returns export content in the "Ready" status.
func NewExport() *Export { return &Export{Status: "Ready"} }

func (*Concept) Kind() Kind  { return KindConcept }
func (*Research) Kind() Kind { return KindResearch }
func (*Visual) Kind() Kind   { return KindVisual }
func (*Export) Kind() Kind   { return KindExport }

func (*Concept) Title() string  { return "Concept" }
func (*Research) Title() string { return "Research" }
func (*Visual) Title() string   { return "Visual" }
func (*Export) Title() string   { return "Export" }

func (c *Concept) Summary() string {
	if c.Expansion != nil {
		return c.Text + "\n\n" + *c.Expansion
	}
	return c.Text
}

func (r *Research) Summary() string {
	if r.Result != nil {
		return "Query: " + r.Query + "\n" + *r.Result
	}
	return "Query: " + r.Query
}

func (v *Visual) Summary() string {
	if v.Image != nil {
		b := v.Image.Bounds()
		return fmt.Sprintf("Prompt: %s\nImage %dx%d", v.Prompt, b.Dx(), b.Dy())
	}
	return "Prompt: " + v.Prompt
}

func (e *Export) Summary() string { return "Status: " + e.Status }

// HasResult reports whether the content already carries a remote result.
func HasResult(c Content) bool {
	switch c := c.(type) {
	case *Concept:
		return c.Expansion != nil
	case *Research:
		return c.Result != nil
	case *Visual:
		return c.Image != nil
	case *Export:
		return c.Status != "" && c.Status != "Ready"
	default:
		panic(fmt.Sprintf("canvas: unhandled content %T", c))
	}
}

// Headline returns the first line of the content summary, trimmed, for
// compact renderers that only have room for one line of body text.
func Headline(c Content) string {
	s := strings.TrimSpace(c.Summary())
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
