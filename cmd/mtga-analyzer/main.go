// Package main is the entry point for the MTGA Analyzer backend.
//
// @title          MTGA Analyzer API
// @version        1.0
// @description    Backend for the MTGA draft analyzer: relays Scryfall card data and images and the draft assistant's set catalog behind a cache.
// @host           localhost:8000
// @BasePath       /
// @schemes        http
package main

func main() {
	Execute()
}
