package internal

import (
	"fmt"
	"gitee.com/golang-module/dongle"
)

// Encryptor decrypts secrets stored as base64 AES-CBC ciphertext.
// Without a key configured, secrets are treated as plain text.
type Encryptor struct {
	key string
	iv  string
}

func NewEncryptor(key string, iv string) *Encryptor {
	return &Encryptor{
		key: key,
		iv:  iv,
	}
}

func (e *Encryptor) cipher() *dongle.Cipher {
	cipher := dongle.NewCipher()
	cipher.SetMode(dongle.CBC)
	cipher.SetPadding(dongle.PKCS7)
	cipher.SetKey(e.key)
	cipher.SetIV(e.iv)
	return cipher
}

// Decrypt returns the plain text of a stored secret.
func (e *Encryptor) Decrypt(secret string) (string, error) {
	if secret == "" || e.key == "" {
		return secret, nil
	}
	decrypter := dongle.Decrypt.FromBase64String(secret).ByAes(e.cipher())
	if decrypter.Error != nil {
		return "", fmt.Errorf("decrypt secret: %w", decrypter.Error)
	}
	plain := decrypter.ToString()
	if plain == "" {
		return "", fmt.Errorf("decrypt secret: empty result")
	}
	return plain, nil
}

// Encrypt is the inverse of Decrypt; used when provisioning settings records.
func (e *Encryptor) Encrypt(plain string) (string, error) {
	if plain == "" || e.key == "" {
		return plain, nil
	}
	encrypter := dongle.Encrypt.FromString(plain).ByAes(e.cipher())
	if encrypter.Error != nil {
		return "", fmt.Errorf("encrypt secret: %w", encrypter.Error)
	}
	return encrypter.ToBase64String(), nil
}
