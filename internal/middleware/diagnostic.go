package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/GoPolymarket/schemascope/internal/reqctx"
	"github.com/GoPolymarket/schemascope/internal/response"
	"github.com/GoPolymarket/schemascope/internal/service"
	"github.com/gin-gonic/gin"
)

const HeaderRequestID = "X-Request-ID"

// maxCapturedBody caps how much of a request body is kept for the record.
// Larger bodies still reach the handler untouched but are not recorded.
var maxCapturedBody int64 = 1 << 20

// Diagnostic opens a resource scope for the request, captures the response
// body before it is written, and hands the finished request to svc.
func Diagnostic(svc *service.DiagnosticService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc == nil {
			c.Next()
			return
		}
		start := time.Now()

		payload := capturePayload(c.Request)

		ctx, scope := reqctx.OpenWithID(c.Request.Context(), c.GetHeader(HeaderRequestID))
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, scope.RequestID())

		capture := &response.Capture{}
		response.Install(c, response.Wrap(response.Plain, capture))

		c.Next()

		resources := scope.Freeze()
		body, _ := capture.Body()
		svc.Complete(ctx, service.Completion{
			RequestID: scope.RequestID(),
			URI:       requestURI(c.Request),
			Method:    c.Request.Method,
			Status:    c.Writer.Status(),
			Payload:   payload,
			Response:  body,
			Resources: resources,
			Latency:   time.Since(start),
			At:        time.Now(),
		})
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}

type failedRead struct{ err error }

func (f failedRead) Read([]byte) (int, error) { return 0, f.err }

// capturePayload reads up to maxCapturedBody bytes and puts the body back so
// binding still works. It returns nil, leaving the handler to see the full
// body or the same read error, when the body is too large or unreadable.
func capturePayload(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	orig := r.Body
	head, err := io.ReadAll(io.LimitReader(orig, maxCapturedBody+1))
	switch {
	case err != nil:
		r.Body = replayBody{io.MultiReader(bytes.NewReader(head), failedRead{err}), orig}
		return nil
	case int64(len(head)) > maxCapturedBody:
		r.Body = replayBody{io.MultiReader(bytes.NewReader(head), orig), orig}
		return nil
	default:
		r.Body = replayBody{bytes.NewReader(head), orig}
		return head
	}
}

// requestURI rebuilds scheme://host/path?query as the client addressed it.
func requestURI(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	return scheme + "://" + r.Host + uri
}
