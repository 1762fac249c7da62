package encryption

import (
	"testing"

	"fim-go/internal/config"
)

func TestNewEncryptorFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.EncryptionConfig
		wantAge bool
		wantErr bool
	}{
		{"default is age", config.EncryptionConfig{PublicKeyPath: "/k/fimd.pub", PrivateKeyPath: "/k/fimd.key"}, true, false},
		{"age without keys", config.EncryptionConfig{Type: "age"}, false, true},
		{"test", config.EncryptionConfig{Type: "test"}, false, false},
		{"unknown", config.EncryptionConfig{Type: "rot13"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncryptorFromConfig(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewEncryptorFromConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if _, isAge := enc.(*AgeEncryptor); isAge != tt.wantAge {
				t.Errorf("NewEncryptorFromConfig() = %T, wantAge %v", enc, tt.wantAge)
			}
		})
	}
}
