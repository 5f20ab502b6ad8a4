package storagefactory

import (
	"context"
	"io"
	"strings"
	"testing"

	"tmmedia/internal/config"
)

const testBaseURL = "http://localhost:8080/storage"

func TestNewStorage(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		cfg      *config.StorageConfig
		wantErr  bool
		wantType string
	}{
		{
			name: "valid local storage config",
			cfg: &config.StorageConfig{
				Type:  "local",
				Local: &config.LocalConfig{BasePath: tmpDir, BaseURL: testBaseURL},
			},
			wantType: "local",
		},
		{
			name:    "missing local config",
			cfg:     &config.StorageConfig{Type: "local"},
			wantErr: true,
		},
		{
			name:    "missing oss config",
			cfg:     &config.StorageConfig{Type: "oss"},
			wantErr: true,
		},
		{
			name:    "unsupported storage type",
			cfg:     &config.StorageConfig{Type: "s3"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStorage(context.Background(), tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("NewStorage() unexpected error: %v", err)
			}
			if got := store.GetStorageType(); got != tt.wantType {
				t.Errorf("GetStorageType() = %v, want %v", got, tt.wantType)
			}
		})
	}
}

func TestLocalStorage_Operations(t *testing.T) {
	ctx := context.Background()
	store, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: t.TempDir(), BaseURL: testBaseURL + "/"},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	key := "projects/p1/images/a.jpeg"
	content := "fake image bytes"

	url, err := store.Upload(ctx, key, strings.NewReader(content), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if want := testBaseURL + "/" + key; url != want {
		t.Errorf("Upload() url = %v, want %v", url, want)
	}

	exists, err := store.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v; want true, nil", exists, err)
	}

	reader, err := store.Download(ctx, key)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	got, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(got) != content {
		t.Errorf("Download() content = %v, want %v", string(got), content)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if exists, _ := store.Exists(ctx, key); exists {
		t.Errorf("Exists() = true after Delete()")
	}

	// 删除不存在的文件视为成功
	if err := store.Delete(ctx, key); err != nil {
		t.Errorf("Delete() of missing file error = %v", err)
	}
	if _, err := store.Download(ctx, "missing/file.jpeg"); err == nil {
		t.Errorf("Download() expected error for missing file")
	}
}

func TestLocalStorage_KeyEscape(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store, err := NewStorage(ctx, &config.StorageConfig{
		Type:  "local",
		Local: &config.LocalConfig{BasePath: base, BaseURL: testBaseURL},
	})
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if _, err := store.Upload(ctx, "../../outside.txt", strings.NewReader("x"), "text/plain"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	exists, err := store.Exists(ctx, "outside.txt")
	if err != nil || !exists {
		t.Errorf("escaped key should be confined to base path, exists=%v err=%v", exists, err)
	}
}
