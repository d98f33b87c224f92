// Package main provides the entry point for the sitemd CLI.
//
// sitemd crawls a website starting from a seed URL and consolidates the
// extracted content into a single markdown document.
//
// Usage:
//
//	sitemd crawl https://docs.example.com
//	sitemd discover https://docs.example.com
//
// See --help for all available options.
package main

// main is the entry point for sitemd.
func main() {
	Execute()
}
