// Longsort is the command-line front end of the longsort library.
//
// Usage:
//
//	longsort gen values.bin --count 100000000
//	longsort sort values.bin sorted.bin --workers 8 --strategy batched
//	longsort verify values.bin sorted.bin
//	longsort dump sorted.bin --head 10
package main

func main() {
	execute()
}
