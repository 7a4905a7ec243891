// Package pollinations provides a client for the Pollinations text-to-image
// service, used by Visual nodes.
//
// [Client.Generate] returns encoded image bytes (usually JPEG). Decoding is
// left to the canvas, which accepts PNG, JPEG, GIF and WebP. [Placeholder]
// produces a deterministic PNG for offline use.
package pollinations
