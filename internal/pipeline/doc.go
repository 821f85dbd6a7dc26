// Package pipeline runs the stages of a page scan in sequence.
//
// A scan navigates to the page, settles it, captures network traffic and
// scripts, collects per-tool evidence and fuses it into verdicts. Each stage
// is a Step operating on shared Scan state. Steps run strictly one after
// another against a single browser page; evidence collection completes
// before fusion starts.
//
// Scanner owns the browser session of one scan. BatchProcessor scans several
// pages concurrently with errgroup, one Scanner call and therefore one
// browser session per page.
package pipeline
