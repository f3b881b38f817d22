// Command issue-token mints a bearer token for local development.
//
//	JWT_SECRET=dev go run ./cmd/issue-token -participant 284619930112 -caps bank:admin
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/josh-kwaku/community-bank/internal/auth"
)

func main() {
	var (
		participant string
		caps        string
		ttl         time.Duration
	)
	flag.StringVar(&participant, "participant", "", "participant id carried as the token subject (required)")
	flag.StringVar(&caps, "caps", "", "comma-separated capabilities, e.g. bank:admin")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" || participant == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET and -participant are required")
		flag.Usage()
		os.Exit(2)
	}

	var capabilities []string
	for _, c := range strings.Split(caps, ",") {
		if c = strings.TrimSpace(c); c != "" {
			capabilities = append(capabilities, c)
		}
	}

	token, err := auth.GenerateToken(auth.Principal{ParticipantID: participant, Capabilities: capabilities}, secret, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
