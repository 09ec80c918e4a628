// Command keygen mints provider API tokens and opaque secrets for local
// development and operations.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"lumina/internal/platform/middleware"
	"lumina/pkg/secrets"
)

func main() {
	var (
		providerID = flag.String("provider", "", "provider UUID to mint a token for")
		signingKey = flag.String("key", os.Getenv("LUMINA_JWT_SIGNING_KEY"), "HS256 signing key (defaults to LUMINA_JWT_SIGNING_KEY)")
		ttl        = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		secret     = flag.Bool("secret", false, "generate a provider secret and its bcrypt hash instead of a token")
	)
	flag.Parse()

	if *secret {
		s, err := secrets.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
			os.Exit(1)
		}
		hash, err := secrets.Hash(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
			os.Exit(1)
		}
		// The plaintext goes to the provider; the hash goes in the
		// providers.secret_hash column.
		fmt.Printf("secret:      %s\n", s)
		fmt.Printf("secret_hash: %s\n", hash)
		return
	}

	if *providerID == "" {
		fmt.Fprintln(os.Stderr, "keygen: -provider is required (or use -secret)")
		flag.Usage()
		os.Exit(2)
	}
	if *signingKey == "" {
		fmt.Fprintln(os.Stderr, "keygen: -key or LUMINA_JWT_SIGNING_KEY is required")
		os.Exit(2)
	}

	id, err := uuid.Parse(*providerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: invalid provider id: %v\n", err)
		os.Exit(2)
	}

	token, err := middleware.MintProviderToken(*signingKey, id, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
