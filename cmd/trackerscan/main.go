// Package main provides the entry point for the trackerscan CLI.
//
// trackerscan loads web pages in a real browser and reports which analytics,
// advertising and tag management tools they run, with a confidence level
// per tool.
//
// Usage:
//
//	trackerscan scan <url>
//	trackerscan scan --batch 4 <url> <url> ...
//
// See --help for all available options.
package main

// main is the entry point for trackerscan.
func main() {
	Execute()
}
