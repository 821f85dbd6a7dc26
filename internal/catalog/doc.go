// Package catalog provides the registry of known analytics and advertising
// tool signatures.
//
// A signature lists the signals that reveal a tool on a rendered page:
// substrings of request URLs, DOM element locators, substrings of script
// text and names of global JavaScript variables. The built-in catalog is
// constructed once and never mutated; Extend returns a new catalog when
// user-supplied signatures are loaded from the configuration file.
//
// Adding a tool is a pure data change in builtin.go.
package catalog
