package server

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/export"
	"github.com/joseph-ayodele/supplier-invoices/internal/pipeline"
	"github.com/joseph-ayodele/supplier-invoices/internal/utils"
)

// maxPayloadChars caps the extraction payload accepted in one call.
const maxPayloadChars = 1 << 20

type InvoiceService struct {
	processor  *pipeline.Processor
	exporter   *export.Service
	autoCreate bool
	logger     *slog.Logger
}

// NewInvoiceService wires the pipeline and the exporter behind the gRPC
// surface. autoCreate is used when a request does not set
// auto_create_suppliers.
func NewInvoiceService(processor *pipeline.Processor, exporter *export.Service, autoCreate bool, logger *slog.Logger) *InvoiceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &InvoiceService{
		processor:  processor,
		exporter:   exporter,
		autoCreate: autoCreate,
		logger:     logger,
	}
}

// ProcessInvoice normalizes and stores one extraction payload.
func (s *InvoiceService) ProcessInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := extractionPayload(req)
	if err != nil {
		s.logger.Error("process invoice request rejected", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}

	opts := pipeline.Options{AutoCreateSuppliers: s.autoCreate}
	if v, ok := req.GetFields()["auto_create_suppliers"]; ok {
		b, isBool := v.GetKind().(*structpb.Value_BoolValue)
		if !isBool {
			return nil, common.InvalidArgumentError("auto_create_suppliers must be a boolean")
		}
		opts.AutoCreateSuppliers = b.BoolValue
	}

	res, err := s.processor.Process(ctx, raw, opts)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toResponse(res)
}

// NormalizeInvoice runs the pipeline without persistence.
func (s *InvoiceService) NormalizeInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	raw, err := extractionPayload(req)
	if err != nil {
		s.logger.Error("normalize invoice request rejected", "request_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}
	res, err := s.processor.Normalize(ctx, raw)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toResponse(res)
}

// GetInvoice returns a stored invoice header with its line items.
func (s *InvoiceService) GetInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := invoiceID(req)
	if err != nil {
		return nil, err
	}
	rec, items, err := s.processor.Lookup(ctx, id)
	if err != nil {
		s.logger.Error("failed to get invoice", "invoice_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	return toResponse(map[string]any{"invoice": rec, "items": items})
}

// ExportInvoice returns the invoice lines as a base64 encoded XLSX workbook.
func (s *InvoiceService) ExportInvoice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := invoiceID(req)
	if err != nil {
		return nil, err
	}
	xlsx, err := s.exporter.InvoiceItemsXLSX(ctx, id)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "invoice_id", id, "err", err)
		return nil, common.ToStatus(err)
	}
	return structpb.NewStruct(map[string]any{
		"invoice_id":  id.String(),
		"xlsx_base64": base64.StdEncoding.EncodeToString(xlsx),
	})
}

// extractionPayload accepts the extraction either as a JSON object or as the
// raw model output string.
func extractionPayload(req *structpb.Struct) ([]byte, error) {
	v, ok := req.GetFields()["extraction"]
	if !ok {
		return nil, common.InvalidArgumentError("extraction is required")
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StructValue:
		b, err := protojson.Marshal(k.StructValue)
		if err != nil {
			return nil, common.InvalidArgumentErrorf("extraction: %v", err)
		}
		return b, nil
	case *structpb.Value_StringValue:
		val := common.NewValidator().
			Field("extraction", k.StringValue, common.Required, common.MaxLength(maxPayloadChars))
		if err := common.ValidateAndReturnError(val); err != nil {
			return nil, err
		}
		return []byte(k.StringValue), nil
	default:
		return nil, common.InvalidArgumentError("extraction must be an object or a JSON string")
	}
}

func invoiceID(req *structpb.Struct) (uuid.UUID, error) {
	raw := strings.TrimSpace(req.GetFields()["invoice_id"].GetStringValue())
	val := common.NewValidator().Field("invoice_id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(val); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func toResponse(v any) (*structpb.Struct, error) {
	out, err := utils.ToStruct(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}
