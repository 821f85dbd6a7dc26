// Package collector gathers the four classes of evidence used to detect
// analytics tools on a rendered page.
//
// Each collector examines one kind of signal and returns zero or more hits:
//   - MatchNetwork: substrings of captured request URLs
//   - Collector.MatchDOM: elements located by CSS selectors or XPath
//   - Collector.ProbeGlobals: variables defined on window
//   - ScanScripts: substrings of inline and external script text
//
// Collectors never fail the scan. A broken locator, a script that throws or
// an unreachable external script is logged and treated as "no evidence".
//
// The Gatherer builds the script corpus for ScanScripts by serializing the
// live DOM, parsing it with golang.org/x/net/html and fetching external
// scripts over HTTP.
package collector
