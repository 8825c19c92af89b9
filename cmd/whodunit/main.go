// Command whodunit plays and serves murder-mystery sessions.
package main

func main() {
	Execute()
}
