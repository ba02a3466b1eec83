package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const SecretKeyBytesLen = 32

// Prints fresh signing secrets for access and refresh tokens,
// ready to be pasted into a '.env' file.
func main() {
	secrets := []string{"ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET"}

	for _, name := range secrets {
		b := make([]byte, SecretKeyBytesLen)

		_, err := rand.Read(b)
		if err != nil {
			fmt.Printf("error while generating secret key: %v", err)
			os.Exit(1)
		}

		fmt.Printf("%s=%s\n", name, hex.EncodeToString(b))
	}
}
