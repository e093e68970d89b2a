package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"spendwise-server/src/export"
	"spendwise-server/src/views"
)

type renderFunc func(v *views.ExpensesView, ctx context.Context, w io.Writer) error

func ExportPDF(reg *views.Registry) http.HandlerFunc {
	return exportHandler(reg, (*views.ExpensesView).ExportPDF, export.PDFFilename, export.PDFContentType)
}

func ExportXLSX(reg *views.Registry) http.HandlerFunc {
	return exportHandler(reg, (*views.ExpensesView).ExportXLSX, export.XLSXFilename, export.XLSXContentType)
}

// exportHandler renders into memory first so a failure can still be
// reported as JSON.
func exportHandler(reg *views.Registry, render renderFunc, filename, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var buf bytes.Buffer
		if err := render(reg.For(userID), r.Context(), &buf); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("file", filename).Msg("Failed to export expenses")
			writeFailure(w, err, "failed to export expenses")
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}
