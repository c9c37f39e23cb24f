package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fhuszti/levigram-go/internal/storage"
	"github.com/fhuszti/levigram-go/internal/uuid"
	"github.com/minio/minio-go/v7"
)

type TestBuckets struct {
	Staging  *storage.MinioStorage
	Uploader *storage.PublicUploader
	// StagingName and PublicName are unique per test
	StagingName string
	PublicName  string
}

// SetupTestBuckets creates a staging and a public-read bucket and empties
// and removes both when the test ends.
func SetupTestBuckets(t *testing.T, strg *storage.Strg) *TestBuckets {
	t.Helper()
	ctx := context.Background()

	suffix := time.Now().UnixNano()
	stagingName := fmt.Sprintf("staging-%d", suffix)
	publicName := fmt.Sprintf("public-%d", suffix)

	staging, err := strg.WithBucket(ctx, stagingName)
	if err != nil {
		t.Fatalf("init staging bucket: %v", err)
	}
	uploader, err := strg.NewPublicUploader(ctx, publicName, uuid.NewUUID)
	if err != nil {
		t.Fatalf("init public bucket: %v", err)
	}

	t.Cleanup(func() {
		for _, b := range []string{stagingName, publicName} {
			for obj := range strg.Client.(*minio.Client).ListObjects(ctx, b, minio.ListObjectsOptions{Recursive: true}) {
				if obj.Err != nil {
					continue
				}
				_ = strg.Client.RemoveObject(ctx, b, obj.Key, minio.RemoveObjectOptions{})
			}
			if err := strg.Client.(*minio.Client).RemoveBucket(ctx, b); err != nil {
				t.Logf("could not remove bucket %q: %v", b, err)
			}
		}
	})

	return &TestBuckets{
		Staging:     staging,
		Uploader:    uploader,
		StagingName: stagingName,
		PublicName:  publicName,
	}
}

// ObjectCount lists the keys of bucket under prefix.
func ObjectCount(t *testing.T, strg *storage.Strg, bucket, prefix string) int {
	t.Helper()
	n := 0
	for obj := range strg.Client.(*minio.Client).ListObjects(context.Background(), bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			t.Fatalf("list %q: %v", bucket, obj.Err)
		}
		n++
	}
	return n
}
