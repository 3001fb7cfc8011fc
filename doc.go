// Package katcp implements the core of a codec for the KATCP
// (Karoo Array Telescope Control Protocol) line-based text protocol: a
// streaming parser that turns arbitrary byte chunks into Messages, and a
// generic formatter that turns Messages back into wire bytes.
//
// Host bindings, transports, and request/reply correlation are left to
// callers; this package only concerns itself with the wire grammar.
package katcp
