package usecase

import (
	"context"
	"io"

	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// readStoredDocument reads a stored document, trying primary storage first
// and the local spool second. Uploads that hit the degraded save path only
// exist on the spool; the spooled flag tells the caller the bytes came from
// there so they can be promoted back to primary storage.
func readStoredDocument(ctx context.Context, primary, spool ports.ObjectStorage, key string) ([]byte, bool, error) {
	spooled := false
	rc, err := primary.Open(ctx, key)
	if err != nil {
		rc, err = spool.Open(ctx, key)
		if err != nil {
			return nil, false, err
		}
		spooled = true
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, err
	}
	return data, spooled, nil
}
