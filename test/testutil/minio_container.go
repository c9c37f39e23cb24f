package testutil

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/fhuszti/levigram-go/internal/storage"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

type MinIOContainerInfo struct {
	Endpoint string
	Strg     *storage.Strg
	Cleanup  func()
}

const (
	minioRootUser     = "minioadmin"
	minioRootPassword = "minioadmin"
)

func StartMinIOContainer() (*MinIOContainerInfo, error) {
	const (
		image        = "minio/minio"
		tag          = "latest"
		internalPort = "9000/tcp"
	)

	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not connect to docker: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: image,
		Tag:        tag,
		Env: []string{
			fmt.Sprintf("MINIO_ROOT_USER=%s", minioRootUser),
			fmt.Sprintf("MINIO_ROOT_PASSWORD=%s", minioRootPassword),
		},
		Cmd: []string{"server", "/data"},
	}, func(hostConfig *docker.HostConfig) {
		hostConfig.AutoRemove = true
		hostConfig.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		return nil, fmt.Errorf("could not start minio container: %w", err)
	}

	var endpoint string
	if err := pool.Retry(func() error {
		endpoint = fmt.Sprintf("localhost:%s", resource.GetPort(internalPort))
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(minioRootUser, minioRootPassword, ""),
			Secure: false,
		})
		if err != nil {
			return err
		}
		// ListBuckets is a light operation to check health
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = client.ListBuckets(ctx)
		return err
	}); err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("minio did not become ready: %w", err)
	}

	strg, err := storage.NewMinioClient(endpoint, minioRootUser, minioRootPassword, false)
	if err != nil {
		_ = pool.Purge(resource)
		return nil, fmt.Errorf("could not create minio client: %w", err)
	}

	return &MinIOContainerInfo{
		Endpoint: endpoint,
		Strg:     strg,
		Cleanup: func() {
			if err := pool.Purge(resource); err != nil {
				log.Printf("could not purge minio container: %s", err)
			}
		},
	}, nil
}

// MinioFromEnv builds a client for a CI-provided MinIO, or returns nil when none is configured.
func MinioFromEnv() (*storage.Strg, string, error) {
	endpoint := getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		return nil, "", nil
	}
	strg, err := storage.NewMinioClient(endpoint, getenv("TEST_MINIO_ACCESS_KEY"), getenv("TEST_MINIO_SECRET_KEY"), getenv("TEST_MINIO_USE_SSL") == "true")
	return strg, endpoint, err
}
