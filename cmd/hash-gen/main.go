package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"device-license.backend/pkg/crypto"
)

var (
	printfFn       = fmt.Printf
	generateHashFn = generateHash
	fatalfFn       = log.Fatalf
)

// resolvePassword takes the first argument, falling back to ADMIN_PASSWORD
func resolvePassword(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		return password, nil
	}
	return "", errors.New("usage: hash-gen <password> (or set ADMIN_PASSWORD)")
}

func generateHash(password string) (string, error) {
	return crypto.HashPassword(password)
}

func main() {
	password, err := resolvePassword(os.Args[1:])
	if err != nil {
		fatalfFn("%v", err)
		return
	}

	hash, err := generateHashFn(password)
	if err != nil {
		fatalfFn("Failed to hash password: %v", err)
		return
	}

	printfFn("ADMIN_PASSWORD_HASH=%s\n", hash)
}
