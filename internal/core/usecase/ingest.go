package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmarchais/facturx-backend/internal/core/domain"
	"github.com/rmarchais/facturx-backend/internal/core/ports"
)

// maxUploadBytes bounds how much of an upload is held in memory for the
// probe and the storage write.
const maxUploadBytes = 32 << 20

type IngestInvoiceUseCase struct {
	repo     ports.InvoiceRepository
	storage  ports.ObjectStorage
	spool    ports.ObjectStorage
	queue    ports.MessageQueue
	prober   ports.DocumentProber
	notifier *NotificationCenter
	now      func() time.Time
}

func NewIngestInvoiceUseCase(
	repo ports.InvoiceRepository,
	storage ports.ObjectStorage,
	spool ports.ObjectStorage,
	queue ports.MessageQueue,
	prober ports.DocumentProber,
	notifier *NotificationCenter,
) *IngestInvoiceUseCase {
	return &IngestInvoiceUseCase{
		repo:     repo,
		storage:  storage,
		spool:    spool,
		queue:    queue,
		prober:   prober,
		notifier: notifier,
		now:      time.Now,
	}
}

// CheckDuplicates is the pre-import gate: a candidate is flagged iff an
// existing invoice for the user has the same name and the same byte count.
// No content hashing.
func (uc *IngestInvoiceUseCase) CheckDuplicates(
	ctx context.Context,
	userID string,
	candidates []domain.UploadCandidate,
) (domain.DuplicateReport, error) {
	report := domain.DuplicateReport{Duplicates: []string{}}
	for _, c := range candidates {
		exists, err := uc.repo.ExistsNameSize(ctx, userID, c.Name, c.Size)
		if err != nil {
			return domain.DuplicateReport{}, fmt.Errorf("duplicate lookup for %q: %w", c.Name, err)
		}
		if exists {
			report.Duplicates = append(report.Duplicates, c.Name)
		}
	}
	return report, nil
}

// Upload stores the document bytes and creates the pending invoice row.
// A primary-storage failure is degraded, not fatal: the bytes land on the
// local spool and processing continues from there. Mode resolves a flagged
// duplicate: under ImportUnique a file whose (name, size) already exists is
// skipped and the returned invoice is nil.
func (uc *IngestInvoiceUseCase) Upload(
	ctx context.Context,
	userID, filename, mimeType string,
	size int64,
	body io.Reader,
	mode domain.ImportMode,
) (*domain.Invoice, domain.ProbeResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ProbeResult{}, domain.WrapError(domain.ErrUnauthorized, "upload", errors.New("missing user id"))
	}
	if strings.TrimSpace(filename) == "" {
		return nil, domain.ProbeResult{}, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("missing filename"))
	}
	if mode == "" {
		mode = domain.ImportAll
	}
	if mode != domain.ImportAll && mode != domain.ImportUnique {
		return nil, domain.ProbeResult{}, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unknown import mode %q", mode))
	}

	data, err := io.ReadAll(io.LimitReader(body, maxUploadBytes+1))
	if err != nil {
		return nil, domain.ProbeResult{}, fmt.Errorf("read upload body: %w", err)
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, domain.ProbeResult{}, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("document exceeds size limit"))
	}
	if size <= 0 {
		size = int64(len(data))
	}

	if mode == domain.ImportUnique {
		exists, err := uc.repo.ExistsNameSize(ctx, userID, filename, size)
		if err != nil {
			return nil, domain.ProbeResult{}, fmt.Errorf("duplicate lookup for %q: %w", filename, err)
		}
		if exists {
			return nil, domain.ProbeResult{}, nil
		}
	}

	probe := uc.prober.Probe(data, mimeType)

	id := uuid.NewString()
	now := uc.now().UTC()
	key := fmt.Sprintf("%s/%d_%s", userID, now.UnixMilli(), sanitizeFilename(filename))

	fileURL, err := uc.storage.Save(ctx, key, bytes.NewReader(data))
	if err != nil {
		// Degraded path: keep the bytes locally so extraction can still run.
		slog.Warn("primary_storage_save_failed", "key", key, "error", err)
		fileURL, err = uc.spool.Save(ctx, key, bytes.NewReader(data))
		if err != nil {
			return nil, domain.ProbeResult{}, fmt.Errorf("spool upload: %w", err)
		}
	}

	inv := &domain.Invoice{
		ID:         id,
		UserID:     userID,
		Name:       filename,
		Size:       size,
		MimeType:   mimeType,
		Status:     domain.StatusPending,
		FileURL:    fileURL,
		StorageKey: key,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, inv); err != nil {
		return nil, domain.ProbeResult{}, fmt.Errorf("create invoice row: %w", err)
	}

	if uc.notifier != nil {
		uc.notifier.Push(userID,
			"Fichier importé",
			fmt.Sprintf("%s est prêt pour l'analyse.", filename),
			domain.NotifInfo,
			inv.ID,
		)
	}
	return inv, probe, nil
}

// ProcessBatch queues the requested pending invoices for extraction. An
// empty id list means every pending invoice the user owns ("tout lancer").
// Returns how many were queued.
func (uc *IngestInvoiceUseCase) ProcessBatch(ctx context.Context, userID string, ids []string) (int, error) {
	invoices, err := uc.repo.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list invoices: %w", err)
	}

	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	queued := 0
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != domain.StatusPending {
			continue
		}
		if len(ids) > 0 && !requested[inv.ID] {
			continue
		}
		if err := uc.queue.PublishInvoiceQueued(ctx, inv.ID); err != nil {
			return queued, fmt.Errorf("queue invoice %s: %w", inv.ID, err)
		}
		queued++
	}
	return queued, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
