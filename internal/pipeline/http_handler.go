package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/vendata/vendata/internal/ingestion"
)

// Handler exposes pipeline runs as an HTTP endpoint.
type Handler struct {
	processor *Processor
	forceMode Mode
}

// NewHTTPHandler wraps the processor with a POST upload endpoint.
func NewHTTPHandler(processor *Processor) http.Handler {
	return &Handler{processor: processor}
}

// NewDiagnoseHandler is the upload endpoint pinned to diagnostic mode. Runs
// through it never commit anything.
func NewDiagnoseHandler(processor *Processor) http.Handler {
	return &Handler{processor: processor, forceMode: ModeDiagnostic}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	vendorID := strings.TrimSpace(r.FormValue("vendorId"))
	if vendorID == "" {
		http.Error(w, "vendorId is required", http.StatusBadRequest)
		return
	}

	mode := h.forceMode
	if mode == "" {
		mode, err = ParseMode(strings.TrimSpace(r.FormValue("mode")))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	var delimiter rune
	if d := r.FormValue("delimiter"); d != "" {
		delimiter = []rune(d)[0]
	}

	assumeFinance := false
	if v := r.FormValue("assumeFinanceSelected"); v != "" {
		assumeFinance, err = strconv.ParseBool(v)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid assumeFinanceSelected: %v", err), http.StatusBadRequest)
			return
		}
	}

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	req := ingestion.Request{
		VendorID:  vendorID,
		FileName:  header.Filename,
		Data:      bytes.NewReader(data),
		Delimiter: delimiter,
		CacheKey:  vendorID,
		Options:   ingestion.PassOptions{AssumeFinanceSelected: assumeFinance},
	}

	run, err := h.processor.Run(r.Context(), req, mode)
	if err != nil {
		// A failed run still carries diagnostics worth returning.
		writeJSON(w, http.StatusUnprocessableEntity, run)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
