// Package pixel implements the bit-plane framebuffer and color models used by e-paper displays.
//
// The colors in this package are compatible with Go's native [color.Color] interface, so
// anything that renders through [image/draw] can target a [Framebuffer] via an adapter.
package pixel
