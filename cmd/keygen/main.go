// Command keygen prints a fresh base64 AES key and IV pair for the
// IMAGEVAULT_AES_KEY and IMAGEVAULT_AES_IV environment variables.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/dunamismax/imagevault/internal/cryptobox"
)

func main() {
	key := make([]byte, cryptobox.KeySize)
	iv := make([]byte, cryptobox.IVSize)
	if _, err := rand.Read(key); err != nil {
		fmt.Fprintf(os.Stderr, "generate key: %v\n", err)
		os.Exit(1)
	}
	if _, err := rand.Read(iv); err != nil {
		fmt.Fprintf(os.Stderr, "generate iv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("IMAGEVAULT_AES_KEY=%s\n", base64.StdEncoding.EncodeToString(key))
	fmt.Printf("IMAGEVAULT_AES_IV=%s\n", base64.StdEncoding.EncodeToString(iv))
}
