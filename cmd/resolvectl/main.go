// Command resolvectl resolves stream links and reads the top 10 listing
// from the terminal, without running the HTTP server.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
