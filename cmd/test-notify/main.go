// Command test-notify is a manual test for the case-intake notifier.
// It posts one event to the configured endpoint and prints the result.
//
// Usage:
//
//	go run ./cmd/test-notify --email you@example.com [--event cancel] [--endpoint URL]
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chaz8081/fallwatch/internal/notify"
)

func main() {
	email := flag.String("email", "", "email address attached to the case")
	event := flag.String("event", "fall", "event to send: fall or cancel")
	endpoint := flag.String("endpoint", notify.DefaultEndpoint, "case-intake endpoint")
	orgID := flag.String("org-id", "00D24000000dWDe", "organization id")
	flag.Parse()

	if *email == "" {
		fmt.Println("Error: --email is required")
		os.Exit(2)
	}

	label := notify.EventFallDetected
	if *event == "cancel" {
		label = notify.EventFallCancelled
	}

	n := notify.New(notify.Options{
		Endpoint: *endpoint,
		OrgID:    *orgID,
		Email:    *email,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}, nil)

	fmt.Printf("Posting %q to %s...\n", label, *endpoint)
	if err := n.Send(context.Background(), label); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nDone!")
}
