package battle

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// fragmentWriter frames relayed fragments for the client.
type fragmentWriter interface {
	begin()
	write(fragment string) error
	finish(verdict Verdict, ok bool)
	fail(err error)
}

// rawWriter sends the fragments as a flat byte stream, the format the
// browser reads incrementally.
type rawWriter struct {
	c *gin.Context
}

func (w *rawWriter) begin() {
	header := w.c.Writer.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("Trailer", WinnerTrailer)

	w.c.Status(http.StatusOK)
	w.c.Writer.WriteHeaderNow()
	w.c.Writer.Flush()
}

func (w *rawWriter) write(fragment string) error {
	if _, err := w.c.Writer.Write([]byte(fragment)); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

func (w *rawWriter) finish(verdict Verdict, ok bool) {
	if ok {
		w.c.Writer.Header().Set(WinnerTrailer, verdict.Winner)
	}
}

// fail tears the connection down so the client sees a truncated body rather
// than a clean end of stream.
func (w *rawWriter) fail(error) {
	panic(http.ErrAbortHandler)
}

// eventStreamContentType matches what gin's SSE renderer writes, so the
// header sent by begin and the one each event sets agree.
const eventStreamContentType = "text/event-stream;charset=utf-8"

type sseWriter struct {
	c *gin.Context
}

func (w *sseWriter) begin() {
	header := w.c.Writer.Header()
	header.Set("Content-Type", eventStreamContentType)
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")

	w.c.Status(http.StatusOK)
	w.c.Writer.WriteHeaderNow()
	w.c.Writer.Flush()
}

func (w *sseWriter) write(fragment string) error {
	w.c.SSEvent("message", fragment)
	w.c.Writer.Flush()
	return w.c.Request.Context().Err()
}

func (w *sseWriter) finish(verdict Verdict, ok bool) {
	data := gin.H{"winner": nil, "reason": ""}
	if ok {
		data = gin.H{"winner": verdict.Winner, "reason": verdict.Reason}
	}
	w.c.SSEvent("verdict", data)
	w.c.Writer.Flush()
}

func (w *sseWriter) fail(err error) {
	w.c.SSEvent("error", gin.H{"message": err.Error()})
	w.c.Writer.Flush()
}
