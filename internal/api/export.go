package api

import (
	"bytes"
	"net/http"

	"sophia_companion_go_backend/internal/auth"
	apperrors "sophia_companion_go_backend/internal/errors"
	"sophia_companion_go_backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
)

// exportMessagesHandler renders the caller's transcript as a PDF.
func exportMessagesHandler(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			apperrors.HandleError(c, apperrors.New401Error("Unauthorized"))
			return
		}

		messages, err := store.GetMessages(user.ID)
		if err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error fetching messages", err))
			return
		}

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetTitle("Conversation Transcript", false)
		pdf.AddPage()

		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, "Conversation Transcript", "", 1, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, "User: "+user.Username, "", 1, "C", false, 0, "")
		pdf.Ln(4)

		for _, msg := range messages {
			speaker := "Sophia"
			if msg.FromUser {
				speaker = "You"
			}
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 5, speaker+" - "+msg.Timestamp.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, msg.Content, "", "L", false)
			pdf.Ln(2)
		}

		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			apperrors.HandleError(c, apperrors.New500Error("Error generating transcript", err))
			return
		}

		c.Header("Content-Disposition", `attachment; filename="transcript.pdf"`)
		c.Data(http.StatusOK, "application/pdf", buf.Bytes())
	}
}
