// Package main provides the permgate CLI for runtime capability grant
// management.
package main

func main() {
	Execute()
}
