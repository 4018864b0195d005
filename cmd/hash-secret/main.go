// Package main prints the argon2id hash of a secret for EXPORT_SECRET_HASH.
//
// Usage:
//
//	hash-secret <secret>
//	echo -n <secret> | hash-secret
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sitekit/sitekit/internal/auth"
)

func main() {
	secret, err := readSecret(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	hash, err := auth.HashSecret(secret)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash secret:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

func readSecret(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read secret: %w", err)
		}
		return "", errors.New("secret is empty")
	}
	return line, nil
}
