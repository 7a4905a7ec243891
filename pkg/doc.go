// Package pkg holds the libraries behind storyboard, an interactive
// node-graph canvas for building stories out of linked concept, research,
// visual and export nodes.
//
// # Overview
//
// The pkg directory is organized into four areas:
//
//  1. [canvas] - The graph model, viewport, hit testing and its frame loop
//     ([canvas/physics], [canvas/interact], [canvas/inbox], [canvas/frame])
//  2. [render] - Surfaces the frame driver paints on (raster, term) and
//     Graphviz diagrams (nodelink)
//  3. [enrich], [dispatch] - Remote node operations: the service that
//     calls the APIs and the dispatcher that runs them off the frame loop
//  4. Infrastructure - [cache], [store], [config], [integrations],
//     [observability], [errors]
//
// # Architecture
//
// One frame of the canvas:
//
//	inbox results  →  physics step  →  pointer events  →  render
//	     ↑                                                   ↓
//	dispatch goroutines  ←  Trigger(node)             frame.Surface
//
// The canvas state is owned by the goroutine that runs frames. Remote work
// never touches it; results come back through the inbox and are applied at
// the start of the next frame.
//
// # Quick Start
//
//	s := canvas.Demo(canvas.Options{})
//	d := frame.New(s, frame.DefaultConfig())
//	surf, _ := raster.New(1280, 800)
//	d.Frame(ctx, surf.Bounds(), surf)
//	_ = surf.EncodePNG(w)
//
// [canvas]: github.com/matzehuels/storyboard/pkg/canvas
// [canvas/physics]: github.com/matzehuels/storyboard/pkg/canvas/physics
// [canvas/interact]: github.com/matzehuels/storyboard/pkg/canvas/interact
// [canvas/inbox]: github.com/matzehuels/storyboard/pkg/canvas/inbox
// [canvas/frame]: github.com/matzehuels/storyboard/pkg/canvas/frame
// [render]: github.com/matzehuels/storyboard/pkg/render
// [enrich]: github.com/matzehuels/storyboard/pkg/enrich
// [dispatch]: github.com/matzehuels/storyboard/pkg/dispatch
// [cache]: github.com/matzehuels/storyboard/pkg/cache
// [store]: github.com/matzehuels/storyboard/pkg/store
// [config]: github.com/matzehuels/storyboard/pkg/config
// [integrations]: github.com/matzehuels/storyboard/pkg/integrations
// [observability]: github.com/matzehuels/storyboard/pkg/observability
// [errors]: github.com/matzehuels/storyboard/pkg/errors
package pkg
