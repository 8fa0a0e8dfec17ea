package devapi

import (
	"bufio"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

const maxReceiptBytes = 10 << 20

var totalLine = regexp.MustCompile(`(?i)\btotal\b[^0-9]*([0-9]+(?:[.,][0-9]{1,2})?)`)

// handleParseReceipt stands in for an OCR service. Plain-text receipts yield
// their TOTAL line; anything else yields a draft with only the description
// and today's date filled in.
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBytes)
	file, header, err := r.FormFile("receipt")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No receipt uploaded")
		return
	}
	defer file.Close()

	draft, err := parseReceipt(header.Filename, file)
	if err != nil {
		fail(w, r, log.OpParse, err)
		return
	}
	draft.Date = core.Date{Time: s.now()}.String()
	writeJSON(w, http.StatusOK, draft)
}

func parseReceipt(filename string, body io.Reader) (core.ReceiptDraft, error) {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	draft := core.ReceiptDraft{
		Category:    "Other",
		Description: strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(name)),
	}

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		m := totalLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		if amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ".")); err == nil {
			draft.Amount = amount
		}
	}
	if err := sc.Err(); err != nil && err != bufio.ErrTooLong {
		return core.ReceiptDraft{}, err
	}
	return draft, nil
}
