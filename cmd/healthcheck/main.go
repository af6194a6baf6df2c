package main

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// Container healthcheck: probe the local server and exit non-zero when it
// is unreachable or failing.
func main() {
	addr := os.Getenv("WILDLANDS_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + addr + "/")
	if err != nil {
		os.Exit(1)
	}
	defer resp.Body.Close()
	// Any status below 500 counts as healthy (404 for the bare root is fine).
	if resp.StatusCode >= 500 {
		os.Exit(1)
	}
	os.Exit(0)
}
