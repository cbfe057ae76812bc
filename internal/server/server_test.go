package server

import (
	"context"
	"encoding/base64"
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/supplier-invoices/internal/common"
	"github.com/joseph-ayodele/supplier-invoices/internal/export"
	repo "github.com/joseph-ayodele/supplier-invoices/internal/repository"
)

const extractionJSON = `{
  "purchase_id": "FT 2024/7",
  "purchase_date": "2024-05-02",
  "supplier_description": "Frutas do Vale",
  "supplier_nif": "501442600",
  "items": [
    {"product_desc": "77 Laranja", "qty": 3, "unit_supplier": "kg", "price_unit": "1.50", "vat_rate": "6%"}
  ]
}`

func newTestClient(t *testing.T) *InvoiceServiceClient {
	t.Helper()
	ctx := context.Background()

	store, err := ConnectDB(ctx, common.DatabaseConfig{
		Driver:     repo.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "server.db"),
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, PingDB(ctx, store, discardLogger(), 0))

	proc, err := NewPipeline(store, common.NormalizeConfig{AutoCreateSuppliers: true}, discardLogger())
	require.NoError(t, err)
	exporter := export.NewService(repo.NewInvoiceRepository(store, nil), discardLogger())

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.UnaryInterceptor(UnaryRequestID(discardLogger())))
	RegisterInvoiceServiceServer(srv, NewInvoiceService(proc, exporter, true, discardLogger()))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewInvoiceServiceClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestInvoiceService(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	t.Run("Should process an extraction string and read it back", func(t *testing.T) {
		var header metadata.MD
		out, err := client.ProcessInvoice(ctx, mustStruct(t, map[string]any{"extraction": extractionJSON}), grpc.Header(&header))
		require.NoError(t, err)
		assert.Equal(t, "PERSISTED", out.GetFields()["status"].GetStringValue())
		assert.NotEmpty(t, header.Get(RequestIDHeader))

		id := out.GetFields()["invoice_id"].GetStringValue()
		got, err := client.GetInvoice(ctx, mustStruct(t, map[string]any{"invoice_id": id}))
		require.NoError(t, err)
		items := got.GetFields()["items"].GetListValue().GetValues()
		require.Len(t, items, 1)
		line := items[0].GetStructValue().GetFields()
		assert.Equal(t, "77", line["product_code"].GetStringValue())
		assert.Equal(t, "KG", line["unit_supplier"].GetStringValue())
		assert.Equal(t, "4.5", line["price_total"].GetStringValue())

		exp, err := client.ExportInvoice(ctx, mustStruct(t, map[string]any{"invoice_id": id}))
		require.NoError(t, err)
		b, err := base64.StdEncoding.DecodeString(exp.GetFields()["xlsx_base64"].GetStringValue())
		require.NoError(t, err)
		assert.Equal(t, []byte("PK"), b[:2])
	})

	t.Run("Should normalize an object payload without storing it", func(t *testing.T) {
		payload := mustStruct(t, map[string]any{
			"purchase_date": "02-05-2024",
			"supplier_nif":  "123 456 789",
			"items":         []any{map[string]any{"product_desc": "Sal", "qty": "2", "price_unit": "0,80"}},
		})
		out, err := client.NormalizeInvoice(ctx, mustStruct(t, map[string]any{"extraction": payload.AsMap()}))
		require.NoError(t, err)
		assert.Equal(t, "NORMALIZED", out.GetFields()["status"].GetStringValue())
		inv := out.GetFields()["invoice"].GetStructValue().GetFields()
		assert.Equal(t, "2024-05-02", inv["purchase_date"].GetStringValue())
		assert.Equal(t, "123456789", inv["supplier_nif"].GetStringValue())
	})

	t.Run("Should reuse the caller request id", func(t *testing.T) {
		var header metadata.MD
		callCtx := metadata.AppendToOutgoingContext(ctx, RequestIDHeader, "req-42")
		_, err := client.NormalizeInvoice(callCtx, mustStruct(t, map[string]any{"extraction": extractionJSON}), grpc.Header(&header))
		require.NoError(t, err)
		assert.Equal(t, []string{"req-42"}, header.Get(RequestIDHeader))
	})

	t.Run("Should map errors onto gRPC codes", func(t *testing.T) {
		cases := []struct {
			name string
			call func() error
			code codes.Code
		}{
			{"missing extraction", func() error {
				_, err := client.ProcessInvoice(ctx, mustStruct(t, map[string]any{}))
				return err
			}, codes.InvalidArgument},
			{"array payload", func() error {
				_, err := client.ProcessInvoice(ctx, mustStruct(t, map[string]any{"extraction": "[1, 2]"}))
				return err
			}, codes.InvalidArgument},
			{"non boolean flag", func() error {
				_, err := client.ProcessInvoice(ctx, mustStruct(t, map[string]any{"extraction": extractionJSON, "auto_create_suppliers": "yes"}))
				return err
			}, codes.InvalidArgument},
			{"bad invoice id", func() error {
				_, err := client.GetInvoice(ctx, mustStruct(t, map[string]any{"invoice_id": "nope"}))
				return err
			}, codes.InvalidArgument},
			{"unknown invoice", func() error {
				_, err := client.GetInvoice(ctx, mustStruct(t, map[string]any{"invoice_id": "6f1c2a8e-3d0b-4c55-9a61-0d8f3b2e7c10"}))
				return err
			}, codes.NotFound},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				err := tc.call()
				require.Error(t, err)
				assert.Equal(t, tc.code, status.Code(err))
			})
		}
	})
}

func TestStoreConfig(t *testing.T) {
	cfg := StoreConfig(common.DatabaseConfig{Driver: "sqlite", SQLitePath: "x.db", TxRetries: -1})
	assert.Equal(t, "sqlite", cfg.Driver)
	assert.Equal(t, "x.db", cfg.SQLitePath)
	assert.Zero(t, cfg.TxRetries)
}
