// Command signer derives keys and signs or verifies payloads from the
// command line. Output is hex so vectors can be pinned and compared across
// implementations.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"main/internal/signing"
)

func main() {
	op := flag.String("op", "keygen", "Operation: keygen, sign or verify")
	seed := flag.Uint64("seed", 0, "Key derivation seed (keygen, or sign/verify without -key)")
	keyHex := flag.String("key", "", "Key as hex (sign/verify)")
	sigHex := flag.String("sig", "", "Signature as hex (verify)")
	flag.Parse()

	service := signing.New(nil)

	switch *op {
	case "keygen":
		key, err := service.Keygen(*seed)
		if err != nil {
			log.Fatalf("keygen failed: %v", err)
		}
		fmt.Println(hex.EncodeToString(key[:]))
		key.Zero()

	case "sign":
		key := resolveKey(service, *keyHex, *seed)
		payload := readPayload()
		sig := service.SignKey(key, payload)
		key.Zero()
		fmt.Println(hex.EncodeToString(sig[:]))

	case "verify":
		key := resolveKey(service, *keyHex, *seed)
		sig, err := hex.DecodeString(*sigHex)
		if err != nil {
			log.Fatalf("invalid signature hex: %v", err)
		}
		payload := readPayload()
		ok := service.Verify(key[:], payload, sig)
		key.Zero()
		if !ok {
			fmt.Println("invalid")
			os.Exit(1)
		}
		fmt.Println("valid")

	default:
		log.Fatalf("unknown op: %s", *op)
	}
}

func resolveKey(service *signing.Service, keyHex string, seed uint64) signing.Key {
	if keyHex == "" {
		key, err := service.Keygen(seed)
		if err != nil {
			log.Fatalf("keygen failed: %v", err)
		}
		return key
	}

	raw, err := hex.DecodeString(keyHex)
	if err != nil {
		log.Fatalf("invalid key hex: %v", err)
	}
	key, err := signing.KeyFromBytes(raw)
	if err != nil {
		log.Fatalf("invalid key: %v", err)
	}
	return key
}

func readPayload() []byte {
	if args := flag.Args(); len(args) > 0 {
		return []byte(args[0])
	}
	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		log.Fatalf("read payload: %v", err)
	}
	return payload
}
