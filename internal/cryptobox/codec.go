// Package cryptobox encrypts canonical image bytes at rest.
//
// The codec runs AES-256-CBC with PKCS#7 padding under a single key/IV pair
// supplied once at process start and held immutable afterwards. Reusing the
// IV across records makes encryption deterministic: identical plaintext
// always yields identical ciphertext. Deduplication does not rely on that
// (it hashes plaintext), and a per-record IV stored alongside the ciphertext
// remains the obvious hardening step if the at-rest threat model tightens.
package cryptobox

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

const (
	KeySize = 32
	IVSize  = aes.BlockSize
)

var (
	ErrInvalidKeyMaterial = errors.New("invalid key material")
	ErrMalformedCipher    = errors.New("malformed ciphertext")
)

type Codec struct {
	block cipher.Block
	iv    []byte
}

// NewCodec validates the key material and builds the process-wide codec.
// The key must be exactly 32 bytes and the IV exactly 16.
func NewCodec(key, iv []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes, got %d", ErrInvalidKeyMaterial, KeySize, len(key))
	}
	if len(iv) != IVSize {
		return nil, fmt.Errorf("%w: iv must be %d bytes, got %d", ErrInvalidKeyMaterial, IVSize, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	return &Codec{block: block, iv: append([]byte(nil), iv...)}, nil
}

// Encrypt returns the ciphertext for plaintext. Every input, including the
// empty one, produces at least one full padded block.
func (c *Codec) Encrypt(plaintext []byte) []byte {
	padded := pad(plaintext)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
	return out
}

// Decrypt inverts Encrypt. It fails without exposing any partial plaintext
// when the ciphertext is not block-aligned or the padding does not verify.
func (c *Codec) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: length %d is not a positive multiple of the block size", ErrMalformedCipher, len(ciphertext))
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(padded, ciphertext)
	return unpad(padded)
}

func pad(data []byte) []byte {
	n := aes.BlockSize - len(data)%aes.BlockSize
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(padded []byte) ([]byte, error) {
	n := int(padded[len(padded)-1])
	if n < 1 || n > aes.BlockSize || n > len(padded) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformedCipher)
	}
	for _, b := range padded[len(padded)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformedCipher)
		}
	}
	return padded[:len(padded)-n], nil
}
