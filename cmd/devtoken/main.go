package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ifiscoder/CommunityApp/internal/platform/servicetoken"
)

// Tiny dev-only service-token minter.
//
// The deletion function trusts HS256 tokens signed with the shared secret;
// this prints one for manual testing with curl.
func main() {
	actor := flag.String("actor", "memberd", "actor id placed in the token")
	ttl := flag.Duration("ttl", 2*time.Minute, "token lifetime")
	flag.Parse()

	secret := os.Getenv("SERVICE_TOKEN_SECRET")
	if secret == "" {
		log.Fatalf("SERVICE_TOKEN_SECRET is required")
	}

	minter := servicetoken.NewMinter(servicetoken.Config{
		Secret: secret,
		Issuer: getenv("SERVICE_TOKEN_ISSUER", "memberd"),
		TTL:    *ttl,
	})
	token, err := minter.Mint(*actor, time.Now())
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(token)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
