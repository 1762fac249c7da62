package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"fim-go/internal/fim"
)

// ErrWrongPassphrase is returned by TestEncryptor.Unlock for a passphrase
// other than the one given to Setup.
var ErrWrongPassphrase = errors.New("wrong passphrase")

// testHeader marks TestEncryptor output so an export is visibly not plaintext.
var testHeader = []byte("FIMENC\x00\x01")

// TestEncryptor stands in for AgeEncryptor where real keys get in the way.
// Output is the plaintext behind testHeader. Unlock only checks the
// passphrase, which is empty until Setup is called.
type TestEncryptor struct {
	mu         sync.Mutex
	passphrase string
}

var _ fim.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.passphrase = passphrase
	return nil
}

func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying plaintext: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (fim.DecryptionContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if passphrase != e.passphrase {
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

// IsConfigured is always true; there are no key files.
func (e *TestEncryptor) IsConfigured() bool { return true }

// TestDecryptionContext strips the header written by TestEncryptor.
type TestDecryptionContext struct{}

var _ fim.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("not a test-encrypted stream (header %q)", header)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying plaintext: %w", err)
	}
	return nil
}
