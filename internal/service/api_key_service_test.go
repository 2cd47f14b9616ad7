package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jifen-next/internal/models"
	"github.com/jifen-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupApiKeyTest(t *testing.T) *ApiKeyService {
	t.Helper()
	dsn := fmt.Sprintf("file:api_key_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ApiKey{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewApiKeyService(repository.NewApiKeyRepository(db))
}

func TestApiKeyUpsertGeneratesKey(t *testing.T) {
	svc := setupApiKeyTest(t)

	created, err := svc.Upsert(UpsertApiKeyInput{Name: "openai"})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if created.Key == "" {
		t.Fatalf("key should be generated when empty")
	}
	if !created.Enabled {
		t.Fatalf("new key should default to enabled")
	}

	updated, err := svc.Upsert(UpsertApiKeyInput{Name: "openai", Key: "sk-fixed", Remark: "主密钥"})
	if err != nil {
		t.Fatalf("upsert update failed: %v", err)
	}
	if updated.ID != created.ID || updated.Key != "sk-fixed" || updated.Remark != "主密钥" {
		t.Fatalf("unexpected updated key: %+v", updated)
	}

	if _, err := svc.Upsert(UpsertApiKeyInput{Name: "  "}); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got: %v", err)
	}
}

func TestApiKeyToggleAndDelete(t *testing.T) {
	svc := setupApiKeyTest(t)

	if _, err := svc.Upsert(UpsertApiKeyInput{Name: "stability", Key: "sk-1"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	toggled, err := svc.Toggle("stability")
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if toggled.Enabled {
		t.Fatalf("key should be disabled after toggle")
	}

	if err := svc.Delete("stability"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Toggle("stability"); !errors.Is(err, ErrApiKeyNotFound) {
		t.Fatalf("expected ErrApiKeyNotFound, got: %v", err)
	}
}

func TestApiKeyVerify(t *testing.T) {
	svc := setupApiKeyTest(t)

	if _, err := svc.Upsert(UpsertApiKeyInput{Name: "verify", Key: "sk-verify"}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	verified, err := svc.Verify("sk-verify")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if verified.LastUsedAt == nil {
		t.Fatalf("last_used_at should be refreshed")
	}

	if _, err := svc.Verify("sk-unknown"); !errors.Is(err, ErrApiKeyNotFound) {
		t.Fatalf("expected ErrApiKeyNotFound for unknown key, got: %v", err)
	}

	disabled := false
	if _, err := svc.UpdateByName("verify", UpdateApiKeyInput{Enabled: &disabled}); err != nil {
		t.Fatalf("disable failed: %v", err)
	}
	if _, err := svc.Verify("sk-verify"); !errors.Is(err, ErrApiKeyNotFound) {
		t.Fatalf("expected ErrApiKeyNotFound for disabled key, got: %v", err)
	}
}
