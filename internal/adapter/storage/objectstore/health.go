package objectstore

import (
	"context"
	"fmt"
)

// HealthCheck implements ports.HealthChecker for the object store.
type HealthCheck struct {
	store *MinioStore
}

// NewHealthCheck creates an object store health checker.
func NewHealthCheck(store *MinioStore) *HealthCheck {
	return &HealthCheck{store: store}
}

// Ping checks object store connectivity and bucket visibility.
func (h *HealthCheck) Ping(ctx context.Context) error {
	exists, err := h.store.client.BucketExists(ctx, h.store.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("bucket %q is missing", h.store.bucket)
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "objectstore"
}
