// Package message extracts the readable body from a raw RFC 5322 email so
// it can be handed to the line parser.
//
// Multipart messages are walked depth-first. The first text/plain part
// wins; a text/html part is used, with markup removed, only when no plain
// part exists. Quoted-printable and base64 transfer encodings are decoded.
package message
