package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"wifisub_app/internal/apperr"
)

type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string]string
	deleteErr map[string]error

	PutCount    int
	DeleteCount int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string]string{}, deleteErr: map[string]error{}}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PutCount++
	f.objects[aws.ToString(in.Key)] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCount++
	key := aws.ToString(in.Key)
	if err := f.deleteErr[key]; err != nil {
		return nil, err
	}
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestR2StoreUploadReturnsPublicURL(t *testing.T) {
	client := newFakeS3()
	store, err := newR2Store(client, "proofs", "https://cdn.example.com/")
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Upload(context.Background(), ScreenshotPrefix+"a.png", strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "https://cdn.example.com/payment-screenshots/a.png" {
		t.Errorf("url = %q", url)
	}
	if client.objects[ScreenshotPrefix+"a.png"] != "image/png" {
		t.Errorf("object not stored with content type: %v", client.objects)
	}
}

func TestR2StoreKeyFromURL(t *testing.T) {
	store, err := newR2Store(newFakeS3(), "proofs", "https://acct.r2.cloudflarestorage.com/proofs")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"valid", "https://acct.r2.cloudflarestorage.com/proofs/payment-screenshots/x.jpg", "payment-screenshots/x.jpg", false},
		{"host is case insensitive", "https://ACCT.r2.cloudflarestorage.com/proofs/k.png", "k.png", false},
		{"other host", "https://evil.example.com/proofs/k.png", "", true},
		{"other bucket", "https://acct.r2.cloudflarestorage.com/other/k.png", "", true},
		{"empty key", "https://acct.r2.cloudflarestorage.com/proofs/", "", true},
		{"garbage", "::not a url", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.KeyFromURL(tt.url)
			if tt.wantErr {
				if !apperr.Is(err, apperr.Validation) {
					t.Errorf("KeyFromURL(%q) error = %v; want validation", tt.url, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("KeyFromURL(%q) error = %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("KeyFromURL(%q) = %q; want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestR2StoreDeleteWrapsError(t *testing.T) {
	client := newFakeS3()
	client.deleteErr["k"] = errors.New("access denied")
	store, _ := newR2Store(client, "proofs", "https://cdn.example.com")

	if err := store.Delete(context.Background(), "k"); !apperr.Is(err, apperr.Infrastructure) {
		t.Errorf("Delete() error = %v; want infrastructure", err)
	}
}
