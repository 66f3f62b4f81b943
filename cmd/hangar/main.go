// Command hangar loads a schema of types and instances, drives their fields
// over time, serves them over HTTP and inspects mirrored snapshots.
package main

func main() {
	Execute()
}
