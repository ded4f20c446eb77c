// Package logging configures structured JSON logging for amankb.
//
// Logs go to a size-rotated file under ~/.amankb/logs/ and, outside of
// serve mode, optionally to stderr. Stdout is never used: it carries the
// MCP stdio transport.
package logging
