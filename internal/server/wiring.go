package server

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/extraction"
	"github.com/joseph-ayodele/supplier-invoices/internal/pipeline"
	"github.com/joseph-ayodele/supplier-invoices/internal/reconcile"
	repo "github.com/joseph-ayodele/supplier-invoices/internal/repository"
	"github.com/joseph-ayodele/supplier-invoices/internal/sanitize"
	"github.com/joseph-ayodele/supplier-invoices/internal/supplier"
)

// NewPipeline builds the invoice processor on top of an open store.
func NewPipeline(store *repo.Store, cfg common.NormalizeConfig, logger *slog.Logger) (*pipeline.Processor, error) {
	dec, err := extraction.NewDecoder(logger)
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}
	resolver, err := supplier.NewResolver(repo.NewSupplierRepository(store, logger), cfg.SupplierCacheSize, logger)
	if err != nil {
		return nil, fmt.Errorf("supplier resolver: %w", err)
	}
	if len(cfg.DisabledRules) > 0 {
		logger.Info("reconcile rules disabled", "rules", cfg.DisabledRules)
	}
	san := sanitize.NewSanitizer(reconcile.NewReconciler(cfg.DisabledRules...))
	return pipeline.NewProcessor(logger, dec, san, resolver, repo.NewInvoiceRepository(store, logger)), nil
}
