// Package inbox delivers the outcomes of background operations to the
// goroutine that owns a canvas.
//
// Background work never touches a canvas.State. It sends one of
// [TextResult], [ImageResult] or [Failure] into an [Inbox], and the owner
// calls [Inbox.Drain] once per frame. Drain never blocks: whatever is
// buffered is applied, the rest waits for the next frame.
//
// Applying a message stores the payload on the node and clears its pending
// flag. A Failure clears the flag and leaves the stored result as it was.
// Messages for nodes deleted in the meantime are dropped.
package inbox
