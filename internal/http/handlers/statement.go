package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/ethixlearn/ethixlearn-backend/internal/domain/aggregates"
	"github.com/ethixlearn/ethixlearn-backend/internal/domain/xapi"
	"github.com/ethixlearn/ethixlearn-backend/internal/http/response"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/apierr"
	"github.com/ethixlearn/ethixlearn-backend/internal/platform/ctxutil"
	"github.com/ethixlearn/ethixlearn-backend/internal/services"
)

// maxStatementBody caps the ingestion payload.
const maxStatementBody = 1 << 20

type StatementHandler struct {
	statementService services.StatementService
}

func NewStatementHandler(statementService services.StatementService) *StatementHandler {
	return &StatementHandler{statementService: statementService}
}

// ingestRequest is the wrapped form of POST /api/xapi. A body without a
// "statement" key is treated as a bare statement.
type ingestRequest struct {
	Statement     *xapi.Statement `json:"statement"`
	CourseID      string          `json:"courseId"`
	EnrollmentID  string          `json:"enrollmentId"`
	UserID        string          `json:"userId"`
	Progress      *float64        `json:"progress"`
	Score         *float64        `json:"score"`
	Completed     *bool           `json:"completed"`
	TimeSpentMins *float64        `json:"timeSpentMins"`
	AttemptNo     *float64        `json:"attemptNo"`
}

// POST /api/xapi
func (sh *StatementHandler) Ingest(c *gin.Context) {
	req, err := decodeIngest(c)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	in := services.IngestInput{
		UserID:        req.UserID,
		CourseID:      req.CourseID,
		EnrollmentID:  req.EnrollmentID,
		Progress:      domainagg.FromPtr(req.Progress),
		Score:         domainagg.FromPtr(req.Score),
		TimeSpentMins: domainagg.FromPtr(req.TimeSpentMins),
		AttemptNo:     domainagg.FromPtr(req.AttemptNo),
		Completed:     req.Completed != nil && *req.Completed,
	}
	if req.Statement != nil {
		in.Statement = *req.Statement
	}

	caller := ctxutil.GetRequestData(c.Request.Context())
	out, err := sh.statementService.Ingest(c.Request.Context(), caller, in)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"statement":    out.Statement,
		"enrollmentId": out.Enrollment.ID,
	})
}

func decodeIngest(c *gin.Context) (*ingestRequest, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxStatementBody)
	raw, err := c.GetRawData()
	if err != nil {
		return nil, apierr.Validation("Invalid request body")
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, apierr.Validation("Invalid request body")
	}

	req := &ingestRequest{}
	if _, wrapped := probe["statement"]; wrapped {
		if err := json.Unmarshal(raw, req); err != nil {
			return nil, apierr.Validation("Invalid request body")
		}
		return req, nil
	}
	var stmt xapi.Statement
	if err := json.Unmarshal(raw, &stmt); err != nil {
		return nil, apierr.Validation("Invalid request body")
	}
	req.Statement = &stmt
	return req, nil
}
