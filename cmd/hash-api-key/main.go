package main

import (
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// hash-api-key prints a bcrypt hash of the given API key, suitable for
// the GRADIA_API_KEY_HASH environment variable.
func main() {
	if len(os.Args) != 2 {
		log.Fatal("Usage: hash-api-key <api-key>")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash key: %v", err)
	}

	fmt.Println(string(hash))
}
