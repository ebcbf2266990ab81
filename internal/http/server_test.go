package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"contas/internal/log"
	"contas/internal/services"
	"contas/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "contas.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := services.NewLedgerService(repo)
	return NewServer(Options{
		Addr:         ":0",
		Store:        repo,
		Ledger:       ledger,
		Invoices:     services.NewInvoiceService(repo, ledger, nil),
		Reports:      services.NewReportService(repo),
		Bills:        services.NewBillService(repo),
		CacheSize:    16,
		CacheTTL:     time.Minute,
		UpcomingDays: 7,
	})
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Owner-ID", "owner-1")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestRequestLogStoresRequestIDInContext(t *testing.T) {
	var got string
	h := withRequestLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = log.RequestID(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got == "" {
		t.Fatal("handler saw no request id in its context")
	}
}

func createTestCard(t *testing.T, srv *Server) cardResponse {
	t.Helper()
	rec := doJSON(t, srv, "POST", "/api/cards", cardRequest{
		Name: "Nubank", Kind: "credit", Limit: "1000.00",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create card: status %d, body %s", rec.Code, rec.Body)
	}
	return decodeBody[cardResponse](t, rec)
}

func TestMissingOwnerHeader(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest("GET", "/api/cards", nil)
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 without X-Owner-ID", rec.Code)
	}
}

func TestCardLifecycle(t *testing.T) {
	srv := newTestServer(t)
	card := createTestCard(t, srv)

	if card.AvailableCents != 100000 || card.OriginalCents != 100000 {
		t.Errorf("card limits = %d/%d, want 100000/100000", card.AvailableCents, card.OriginalCents)
	}
	if card.DueDay != 10 || card.ClosingDay != 5 {
		t.Errorf("card days = %d/%d, want defaults 10/5", card.DueDay, card.ClosingDay)
	}

	rec := doJSON(t, srv, "GET", "/api/cards", nil)
	cards := decodeBody[[]cardResponse](t, rec)
	if len(cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(cards))
	}

	rec = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/cards/%d", card.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/cards/%d", card.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateCardValidation(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, "POST", "/api/cards", cardRequest{Name: "", Kind: "credit", Limit: "100.00"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 for empty name", rec.Code)
	}
}

func TestTransactionAffectsCardLimit(t *testing.T) {
	srv := newTestServer(t)
	card := createTestCard(t, srv)

	rec := doJSON(t, srv, "POST", "/api/transactions", transactionRequest{
		Description: "groceries",
		Amount:      "125.50",
		Method:      "credit",
		Kind:        "expense",
		CardID:      &card.ID,
		Category:    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d, body %s", rec.Code, rec.Body)
	}
	tx := decodeBody[transactionResponse](t, rec)
	if tx.AmountCents != 12550 {
		t.Errorf("AmountCents = %d, want 12550", tx.AmountCents)
	}

	rec = doJSON(t, srv, "GET", "/api/cards", nil)
	cards := decodeBody[[]cardResponse](t, rec)
	if cards[0].AvailableCents != 87450 {
		t.Errorf("AvailableCents = %d, want 87450", cards[0].AvailableCents)
	}

	rec = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/transactions/%d", tx.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete transaction: status %d", rec.Code)
	}
	rec = doJSON(t, srv, "GET", "/api/cards", nil)
	cards = decodeBody[[]cardResponse](t, rec)
	if cards[0].AvailableCents != 100000 {
		t.Errorf("AvailableCents = %d after delete, want restored 100000", cards[0].AvailableCents)
	}
}

func TestInvoiceFlow(t *testing.T) {
	srv := newTestServer(t)
	card := createTestCard(t, srv)
	month := time.Now().UTC().Format("2006-01")

	for _, amount := range []string{"50.00", "30.00"} {
		rec := doJSON(t, srv, "POST", "/api/transactions", transactionRequest{
			Description: "purchase",
			Amount:      amount,
			Method:      "credit",
			Kind:        "expense",
			CardID:      &card.ID,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: status %d, body %s", rec.Code, rec.Body)
		}
	}

	rec := doJSON(t, srv, "POST", "/api/invoices", generateInvoiceRequest{CardID: card.ID, Month: month})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate invoice: status %d, body %s", rec.Code, rec.Body)
	}
	generated := decodeBody[struct {
		Invoice invoiceResponse       `json:"invoice"`
		Items   []invoiceItemResponse `json:"items"`
	}](t, rec)
	if generated.Invoice.TotalCents != 8000 {
		t.Errorf("TotalCents = %d, want 8000", generated.Invoice.TotalCents)
	}
	if len(generated.Items) != 2 {
		t.Errorf("items = %d, want 2", len(generated.Items))
	}

	// Duplicate generation conflicts.
	rec = doJSON(t, srv, "POST", "/api/invoices", generateInvoiceRequest{CardID: card.ID, Month: month})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate generate: status %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/invoices/%d/pay", generated.Invoice.ID), payInvoiceRequest{Amount: "80.00"})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay invoice: status %d, body %s", rec.Code, rec.Body)
	}
	paid := decodeBody[invoiceResponse](t, rec)
	if paid.Status != "paid" {
		t.Errorf("Status = %s, want paid", paid.Status)
	}

	// Replay conflicts.
	rec = doJSON(t, srv, "POST", fmt.Sprintf("/api/invoices/%d/pay", generated.Invoice.ID), payInvoiceRequest{Amount: "80.00"})
	if rec.Code != http.StatusConflict {
		t.Errorf("replay pay: status %d, want 409", rec.Code)
	}

	// Absorbed transactions are gone; the settlement entry remains.
	rec = doJSON(t, srv, "GET", "/api/transactions", nil)
	txs := decodeBody[[]transactionResponse](t, rec)
	if len(txs) != 1 || txs[0].Method != "invoice-payment" {
		t.Errorf("transactions after payment = %+v, want single settlement entry", txs)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	card := createTestCard(t, srv)
	month := time.Now().UTC().Format("2006-01")

	rec := doJSON(t, srv, "PUT", "/api/settings", settingsRequest{SpendingLimit: "100.00"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update settings: status %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, "POST", "/api/transactions", transactionRequest{
		Description: "groceries",
		Amount:      "90.00",
		Method:      "credit",
		Kind:        "expense",
		CardID:      &card.ID,
		Category:    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/api/summary?month="+month, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: status %d, body %s", rec.Code, rec.Body)
	}
	summary := decodeBody[summaryResponse](t, rec)
	if summary.TopCategory != "food" {
		t.Errorf("TopCategory = %q, want food", summary.TopCategory)
	}
	if summary.LimitAlert == nil || summary.LimitAlert.Level != "warning" {
		t.Errorf("LimitAlert = %+v, want warning at 90%% of limit", summary.LimitAlert)
	}

	// Second read is served from cache and must match.
	rec = doJSON(t, srv, "GET", "/api/summary?month="+month, nil)
	cached := decodeBody[summaryResponse](t, rec)
	if cached.TotalExpense != summary.TotalExpense {
		t.Errorf("cached TotalExpense = %s, want %s", cached.TotalExpense, summary.TotalExpense)
	}
}

func TestDebtEndpoints(t *testing.T) {
	srv := newTestServer(t)
	card := createTestCard(t, srv)

	rec := doJSON(t, srv, "POST", "/api/debts", debtRequest{
		Description:  "notebook",
		Total:        "1200.00",
		Installments: 12,
		Paid:         5,
		Method:       "card",
		CardID:       &card.ID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create debt: status %d, body %s", rec.Code, rec.Body)
	}
	debt := decodeBody[debtResponse](t, rec)
	if debt.MonthlyCents != 10000 {
		t.Errorf("MonthlyCents = %d, want 10000", debt.MonthlyCents)
	}

	rec = doJSON(t, srv, "GET", "/api/cards", nil)
	cards := decodeBody[[]cardResponse](t, rec)
	if cards[0].AvailableCents != 30000 {
		t.Errorf("AvailableCents = %d, want 30000 after reserving 7 x 100.00", cards[0].AvailableCents)
	}

	rec = doJSON(t, srv, "DELETE", fmt.Sprintf("/api/debts/%d", debt.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete debt: status %d", rec.Code)
	}
	rec = doJSON(t, srv, "GET", "/api/cards", nil)
	cards = decodeBody[[]cardResponse](t, rec)
	if cards[0].AvailableCents != 100000 {
		t.Errorf("AvailableCents = %d after debt delete, want 100000", cards[0].AvailableCents)
	}
}

func TestBillEndpoints(t *testing.T) {
	srv := newTestServer(t)
	due := time.Now().AddDate(0, 0, 3).Format("2006-01-02")

	rec := doJSON(t, srv, "POST", "/api/bills", billRequest{
		Description: "electricity",
		Amount:      "150.00",
		DueDate:     due,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create bill: status %d, body %s", rec.Code, rec.Body)
	}
	bill := decodeBody[billResponse](t, rec)
	if bill.Status != "pending" {
		t.Errorf("Status = %s, want pending default", bill.Status)
	}

	rec = doJSON(t, srv, "GET", "/api/bills/upcoming", nil)
	upcoming := decodeBody[[]billResponse](t, rec)
	if len(upcoming) != 1 {
		t.Errorf("upcoming = %d, want 1", len(upcoming))
	}

	rec = doJSON(t, srv, "PUT", fmt.Sprintf("/api/bills/%d/status", bill.ID), billStatusRequest{Status: "paid"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("update bill status: status %d", rec.Code)
	}
	rec = doJSON(t, srv, "GET", "/api/bills/upcoming", nil)
	upcoming = decodeBody[[]billResponse](t, rec)
	if len(upcoming) != 0 {
		t.Errorf("upcoming = %d after paying, want 0", len(upcoming))
	}
}

func TestReportEndpoints(t *testing.T) {
	srv := newTestServer(t)
	month := time.Now().UTC().Format("2006-01")

	rec := doJSON(t, srv, "POST", "/api/transactions", transactionRequest{
		Description: "groceries",
		Amount:      "200.00",
		Method:      "pix",
		Kind:        "expense",
		Category:    "food",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: status %d", rec.Code)
	}

	rec = doJSON(t, srv, "POST", "/api/reports", generateReportRequest{Month: month})
	if rec.Code != http.StatusCreated {
		t.Fatalf("generate report: status %d, body %s", rec.Code, rec.Body)
	}
	report := decodeBody[reportResponse](t, rec)
	if report.TopCategory != "food" {
		t.Errorf("TopCategory = %q, want food", report.TopCategory)
	}

	rec = doJSON(t, srv, "POST", "/api/reports", generateReportRequest{Month: month})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate report: status %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, "GET", "/api/reports", nil)
	reports := decodeBody[[]reportResponse](t, rec)
	if len(reports) != 1 {
		t.Errorf("reports = %d, want 1", len(reports))
	}
}
