package auth

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCredentialManager(t *testing.T) {
	manager, mockStore := NewMockManager()

	account := &Account{
		Host:     "https://cdli.earth/",
		Username: "testuser",
		Password: "correct horse battery",
	}

	if err := manager.Store(account); err != nil {
		t.Fatalf("Failed to store account: %v", err)
	}
	if account.LastModified.IsZero() {
		t.Error("Store should stamp LastModified")
	}

	retrieved, err := manager.Retrieve("testuser")
	if err != nil {
		t.Fatalf("Failed to retrieve account: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Errorf("Password mismatch: got %s, want %s", retrieved.Password, account.Password)
	}
	if retrieved.Host != account.Host {
		t.Errorf("Host mismatch: got %s, want %s", retrieved.Host, account.Host)
	}

	sanitized := SanitizeAccount(account)
	if sanitized.Password == account.Password {
		t.Error("Password should be masked")
	}
	if sanitized.Username != account.Username {
		t.Error("Username should not be masked")
	}

	if err := manager.Delete("testuser"); err != nil {
		t.Errorf("Failed to delete account: %v", err)
	}
	if _, err := manager.Retrieve("testuser"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if mockStore.Count() != 0 {
		t.Errorf("Expected 0 accounts after deletion, got %d", mockStore.Count())
	}
}

func TestManagerStoreValidation(t *testing.T) {
	manager, _ := NewMockManager()

	tests := []struct {
		name    string
		account *Account
	}{
		{"nil account", nil},
		{"missing username", &Account{Password: "pw"}},
		{"missing password", &Account{Username: "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.Store(tt.account); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	failing := NewMockStore()
	failing.StoreError = ErrStoreUnavailable
	working := NewMockStore()

	manager := NewManagerWithStores(failing, working)
	if err := manager.Store(&Account{Username: "user", Password: "pw"}); err != nil {
		t.Fatalf("Expected fallback store to accept account: %v", err)
	}
	if !working.Exists("user") {
		t.Error("Account should be in the fallback store")
	}

	working.StoreError = fmt.Errorf("disk full")
	err := manager.Store(&Account{Username: "other", Password: "pw"})
	if err == nil || !errors.Is(err, working.StoreError) {
		t.Errorf("Expected last store error, got %v", err)
	}
}

func TestManagerForHost(t *testing.T) {
	older := NewMockStore()
	newer := NewMockStore()
	now := time.Now()

	_ = older.Store(&Account{Host: "https://cdli.earth/", Username: "alice", Password: "a", LastModified: now.Add(-time.Hour)})
	_ = older.Store(&Account{Host: "https://staging.cdli.earth/", Username: "bob", Password: "b", LastModified: now})
	_ = newer.Store(&Account{Host: "https://cdli.earth", Username: "carol", Password: "c", LastModified: now.Add(-time.Minute)})

	manager := NewManagerWithStores(older, newer)

	account, err := manager.ForHost("https://cdli.earth/", "")
	if err != nil {
		t.Fatalf("ForHost failed: %v", err)
	}
	if account.Username != "carol" {
		t.Errorf("Expected newest account for host, got %s", account.Username)
	}

	account, err = manager.ForHost("https://cdli.earth/", "alice")
	if err != nil || account.Username != "alice" {
		t.Errorf("Explicit username should win, got %v, %v", account, err)
	}

	if _, err := manager.ForHost("https://example.org/", ""); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestManagerListPrefersNewest(t *testing.T) {
	first := NewMockStore()
	second := NewMockStore()
	now := time.Now()

	_ = first.Store(&Account{Username: "user", Password: "old", LastModified: now.Add(-time.Hour)})
	_ = second.Store(&Account{Username: "user", Password: "new", LastModified: now})

	accounts, err := NewManagerWithStores(first, second).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 1 || accounts[0].Password != "new" {
		t.Errorf("Expected the newest copy, got %+v", accounts)
	}
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.enc")

	store, err := NewEncryptedFileStore(path, "test_passphrase_123")
	if err != nil {
		t.Fatalf("Failed to create encrypted store: %v", err)
	}

	account := &Account{
		Host:     "https://cdli.earth/",
		Username: "encrypted_user",
		Password: "encrypted_password",
	}
	if err := store.Store(account); err != nil {
		t.Fatalf("Failed to store in encrypted file: %v", err)
	}

	retrieved, err := store.Retrieve("encrypted_user")
	if err != nil {
		t.Fatalf("Failed to retrieve from encrypted file: %v", err)
	}
	if retrieved.Password != account.Password {
		t.Error("Password mismatch after encryption/decryption")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(content, []byte("encrypted_password")) {
		t.Error("File contains plaintext password")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %v", info.Mode().Perm())
	}

	other, err := NewEncryptedFileStore(path, "wrong passphrase")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Retrieve("encrypted_user"); err == nil {
		t.Error("Expected decryption to fail with the wrong passphrase")
	}

	if err := store.Delete("encrypted_user"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("File should be removed with its last account")
	}
	if err := store.Delete("encrypted_user"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
}

func TestEncryptedFileStoreKeepsOtherAccounts(t *testing.T) {
	store, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "nested", "credentials.enc"), "pass")
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a", "b", "c"} {
		if err := store.Store(&Account{Username: name, Password: name + "pw"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Delete("b"); err != nil {
		t.Fatal(err)
	}

	accounts, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 2 {
		t.Errorf("Expected 2 accounts, got %d", len(accounts))
	}
	if !store.Exists("c") || store.Exists("b") {
		t.Error("Unexpected account set after delete")
	}
}

func TestNewEncryptedFileStoreRequiresPassphrase(t *testing.T) {
	if _, err := NewEncryptedFileStore(filepath.Join(t.TempDir(), "c.enc"), ""); err == nil {
		t.Error("Expected error for empty passphrase")
	}
}

func TestLoadPassphrase(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvPassphrase, "from-env")
	pass, err := loadPassphrase(dir)
	if err != nil || pass != "from-env" {
		t.Errorf("Expected env passphrase, got %q, %v", pass, err)
	}

	t.Setenv(EnvPassphrase, "")
	first, err := loadPassphrase(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := loadPassphrase(dir)
	if err != nil {
		t.Fatal(err)
	}
	if first == "" || first != second {
		t.Errorf("Generated passphrase should be persisted, got %q then %q", first, second)
	}
}

func TestEnvironmentStore(t *testing.T) {
	t.Setenv(EnvUsername, "env_user")
	t.Setenv(EnvPassword, "env_password")

	store := NewEnvironmentStore()

	account, err := store.Retrieve("")
	if err != nil {
		t.Fatalf("Failed to retrieve from environment: %v", err)
	}
	if account.Username != "env_user" || account.Password != "env_password" {
		t.Errorf("Unexpected account: %+v", account)
	}

	if _, err := store.Retrieve("someone_else"); !errors.Is(err, ErrCredentialsNotFound) {
		t.Errorf("Expected ErrCredentialsNotFound, got %v", err)
	}
	if !store.Exists("env_user") {
		t.Error("Account should exist")
	}

	if err := store.Store(&Account{}); !errors.Is(err, ErrStoreUnavailable) {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
	if err := store.Delete("env_user"); !errors.Is(err, ErrStoreUnavailable) {
		t.Error("Expected ErrStoreUnavailable for environment store")
	}
}

func TestEnvironmentStoreEmpty(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	accounts, err := NewEnvironmentStore().List()
	if err != nil {
		t.Fatal(err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected no accounts, got %d", len(accounts))
	}
}

func TestMockStore(t *testing.T) {
	store := NewMockStore()

	accounts, err := store.List()
	if err != nil {
		t.Errorf("Failed to list empty store: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected 0 accounts, got %d", len(accounts))
	}

	if err := store.Store(&Account{Username: "mockuser", Password: "pw"}); err != nil {
		t.Errorf("Failed to store account: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Expected 1 account, got %d", store.Count())
	}
	if !store.Exists("mockuser") {
		t.Error("Account should exist")
	}

	store.ListError = fmt.Errorf("injected error")
	if _, err := store.List(); err == nil || err.Error() != "injected error" {
		t.Error("Expected injected error")
	}
}
