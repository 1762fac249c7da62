package encryption

import (
	"fmt"

	"fim-go/internal/config"
	"fim-go/internal/fim"
)

// NewEncryptorFromConfig returns the encryptor for cfg.Type. An empty type means age.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (fim.Encryptor, error) {
	switch cfg.Type {
	case "age", "":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
