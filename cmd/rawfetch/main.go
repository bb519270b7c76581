// Command rawfetch fetches URLs with the raw HTTP/1.0 fetcher.
package main

func main() {
	execute()
}
