// Package wire implements the line-oriented framing and response-reading
// primitives shared by the Zino request and notification sockets: CRLF line
// accumulation, multi-line "." terminated blocks, and the CP1252 fallback
// decoder the server's non-UTF-8 output requires.
package wire
