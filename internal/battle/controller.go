package battle

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"combatai/internal/llm"

	"github.com/gin-gonic/gin"
)

// WinnerTrailer carries the winner selector once a relayed stream has ended.
// Browsers cannot read trailers from fetch; they get the winner from the
// verdict event in event-stream mode.
const WinnerTrailer = "X-Battle-Winner"

type Controller struct {
	verdicts     *VerdictService
	mock         *VerdictService
	images       ImageGenerator
	relayTimeout time.Duration
}

func NewController(verdicts, mock *VerdictService, images ImageGenerator, relayTimeout time.Duration) *Controller {
	return &Controller{
		verdicts:     verdicts,
		mock:         mock,
		images:       images,
		relayTimeout: relayTimeout,
	}
}

func (cc *Controller) RegisterRoutes(router gin.IRouter) {
	router.POST("/battle", cc.StreamVerdict)
	router.POST("/battle/mock", cc.StreamMock)
	router.POST("/battle/verdict", cc.Verdict)
	router.POST("/battle/image/create", cc.CreateImage)
}

// StreamVerdict relays the judge's answer as it is generated.
func (cc *Controller) StreamVerdict(c *gin.Context) {
	cc.relay(c, cc.verdicts)
}

// StreamMock relays a canned verdict for front-end development.
func (cc *Controller) StreamMock(c *gin.Context) {
	cc.relay(c, cc.mock)
}

func (cc *Controller) Verdict(c *gin.Context) {
	req, ok := bindVerdictRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.relayTimeout)
	defer cancel()

	resp, err := cc.verdicts.Verdict(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (cc *Controller) CreateImage(c *gin.Context) {
	req, ok := bindVerdictRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.relayTimeout)
	defer cancel()

	path, err := cc.images.Generate(ctx, req.Opponent1, req.Opponent2)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("battle image created", "path", path)
	c.String(http.StatusOK, path)
}

func (cc *Controller) relay(c *gin.Context, svc *VerdictService) {
	req, ok := bindVerdictRequest(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), cc.relayTimeout)
	defer cancel()

	chunks, err := svc.StreamVerdict(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}

	var out fragmentWriter = &rawWriter{c: c}
	if acceptsEventStream(c.Request) {
		out = &sseWriter{c: c}
	}
	out.begin()

	var transcript strings.Builder
	for chunk := range chunks {
		switch {
		case chunk.Err != nil:
			if errors.Is(chunk.Err, context.Canceled) {
				slog.Info("client disconnected during verdict stream")
				return
			}
			slog.Error("verdict stream failed", "error", chunk.Err, "bytes", transcript.Len())
			out.fail(chunk.Err)
			return

		case chunk.Done:
			verdict, ok := ParseVerdict(transcript.String())
			if ok {
				slog.Info("verdict streamed", "verdict", verdict.String())
			} else {
				slog.Warn("verdict did not follow the expected format", "bytes", transcript.Len())
			}
			out.finish(verdict, ok)
			return

		case chunk.Content == "":
			continue

		default:
			transcript.WriteString(chunk.Content)
			if err := out.write(chunk.Content); err != nil {
				slog.Info("client disconnected during verdict stream", "error", err)
				return
			}
		}
	}

	// The provider closed the channel without a terminal chunk, so ctx ended.
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		slog.Error("verdict stream timed out", "timeout", cc.relayTimeout)
		out.fail(ctx.Err())
		return
	}
	slog.Info("client disconnected during verdict stream")
}

func bindVerdictRequest(c *gin.Context) (VerdictRequest, bool) {
	var req VerdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request"})
		return req, false
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return req, false
	}
	return req, true
}

// writeError maps a failure that happened before any bytes were streamed.
func writeError(c *gin.Context, err error) {
	var rejected *llm.UpstreamRejected
	switch {
	case errors.Is(err, ErrMissingOpponent):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: MissingOpponentMessage})
	case errors.As(err, &rejected):
		slog.Error("upstream rejected request", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: rejected.Message,
			Type:    rejected.Type,
			Param:   rejected.Param,
			Code:    rejected.Code,
		})
	case errors.Is(err, context.Canceled):
		slog.Info("client disconnected before upstream answered")
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("upstream timed out", "error", err)
		c.JSON(http.StatusGatewayTimeout, ErrorResponse{Message: "Upstream timed out"})
	default:
		slog.Error("upstream request failed", "error", err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Message: err.Error()})
	}
}

func acceptsEventStream(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}
