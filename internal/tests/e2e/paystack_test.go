package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakePaystack serves the two Paystack endpoints the service calls. A
// transaction stays "ongoing" until the test pays or fails it.
type fakePaystack struct {
	server *httptest.Server

	mu           sync.Mutex
	transactions map[string]*fakeTransaction
	nextID       int64

	verifyCalls atomic.Int64
}

type fakeTransaction struct {
	ID     int64
	Status string
	Amount int64
	Email  string
}

func newFakePaystack(t *testing.T) *fakePaystack {
	t.Helper()
	p := &fakePaystack{transactions: map[string]*fakeTransaction{}, nextID: 4099260000}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /transaction/initialize", p.handleInitialize)
	mux.HandleFunc("GET /transaction/verify/{reference}", p.handleVerify)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePaystack) URL() string {
	return p.server.URL
}

// settle records the outcome the payer reached on the checkout page.
func (p *fakePaystack) settle(reference, status string, amount int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.transactions[reference]
	if !ok {
		tx = &fakeTransaction{}
		p.transactions[reference] = tx
	}
	p.nextID++
	tx.ID = p.nextID
	tx.Status = status
	tx.Amount = amount
}

func (p *fakePaystack) transaction(reference string) (fakeTransaction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	tx, ok := p.transactions[reference]
	if !ok {
		return fakeTransaction{}, false
	}
	return *tx, true
}

func (p *fakePaystack) handleInitialize(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer sk_test_") {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"status": false, "message": "Invalid key"})
		return
	}

	var req struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Email     string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": false, "message": "Invalid body"})
		return
	}

	p.mu.Lock()
	p.transactions[req.Reference] = &fakeTransaction{Status: "ongoing", Amount: req.Amount, Email: req.Email}
	p.mu.Unlock()

	code := strings.ToLower(req.Reference[len(req.Reference)-8:])
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  true,
		"message": "Authorization URL created",
		"data": map[string]any{
			"authorization_url": "https://checkout.paystack.com/" + code,
			"access_code":       code,
			"reference":         req.Reference,
		},
	})
}

func (p *fakePaystack) handleVerify(w http.ResponseWriter, r *http.Request) {
	p.verifyCalls.Add(1)
	reference := r.PathValue("reference")

	tx, ok := p.transaction(reference)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": false, "message": "Transaction reference not found"})
		return
	}

	data := map[string]any{
		"status":    tx.Status,
		"reference": reference,
		"amount":    tx.Amount,
		"currency":  "NGN",
		"customer":  map[string]any{"email": tx.Email},
	}
	if tx.Status == "success" {
		data["id"] = tx.ID
		data["paid_at"] = "2026-03-14T10:00:00.000Z"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": true, "message": "Verification successful", "data": data})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
