package ocr

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Estados de una extraccion.
const (
	StatusSuccess        = "SUCCESS"
	StatusPartialFailure = "PARTIAL_FAILURE"
)

// Result contiene los datos extraidos de un recibo. Amount es puntero
// porque una extraccion parcial puede no traerlo.
type Result struct {
	Status   string   `json:"ocr_status"`
	Vendor   string   `json:"ocr_vendor,omitempty"`
	Amount   *float64 `json:"ocr_amount,omitempty"`
	Date     string   `json:"ocr_date,omitempty"`
	Currency string   `json:"ocr_currency,omitempty"`
	FullText string   `json:"full_text,omitempty"`
}

// Extractor define el contrato de extraccion de texto sobre un archivo
// local. La extraccion es best-effort: el pipeline de gastos nunca
// aborta por su resultado.
type Extractor interface {
	Extract(path string) (Result, error)
}

// SimulatedExtractor genera datos simulados en lugar de correr OCR real.
type SimulatedExtractor struct{}

var mockCurrencies = []string{"USD", "EUR", "GBP"}

func (SimulatedExtractor) Extract(path string) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{}, err
	}

	name := filepath.Base(path)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	amount := math.Round((5.0+rand.Float64()*495.0)*100) / 100

	res := Result{
		Status:   StatusSuccess,
		Vendor:   "MockVendor_" + base,
		Amount:   &amount,
		Date:     time.Now().AddDate(0, 0, -(1 + rand.Intn(30))).Format("2006-01-02"),
		Currency: mockCurrencies[rand.Intn(len(mockCurrencies))],
		FullText: "This is simulated OCR text for " + name + ". Content would be here.",
	}

	// Simula fallas parciales ocasionales del motor de OCR.
	if rand.Float64() < 0.1 {
		res.Status = StatusPartialFailure
		res.Amount = nil
	}
	return res, nil
}
