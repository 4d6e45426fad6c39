package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"challenger/models"
	"challenger/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MatchHandler struct {
	matches service.MatchService
}

func NewMatchHandler(matches service.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type createMatchRequest struct {
	StakeAmount int64  `json:"stake_amount"`
	MatchType   string `json:"match_type" binding:"omitempty,oneof=1v1 team"`
	TeamSize    int    `json:"team_size"`
	Game        string `json:"game" binding:"max=64"`
}

type joinMatchRequest struct {
	Team string `json:"team" binding:"required,oneof=A B"`
}

type proofRequest struct {
	ProofURL string `json:"proof_url" binding:"required,url"`
	Note     string `json:"note" binding:"max=500"`
}

type disputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type settleRequest struct {
	WinnerID      string           `json:"winner_id" binding:"required"`
	AdminDecision string           `json:"admin_decision"`
	FeePercentage *decimal.Decimal `json:"fee_percentage"`
}

type voidRequest struct {
	Decision string `json:"decision"`
}

func matchIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondValidation(c, fmt.Errorf("invalid match id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		return 0
	}
	return limit
}

// Create opens a challenge and escrows the creator's stake
func (h *MatchHandler) Create(c *gin.Context) {
	var req createMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	detail, err := h.matches.CreateMatch(c.Request.Context(), service.CreateMatchRequest{
		CreatorID:   GetUserID(c),
		StakeAmount: req.StakeAmount,
		MatchType:   models.MatchType(req.MatchType),
		TeamSize:    req.TeamSize,
		Game:        req.Game,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *MatchHandler) Accept(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	detail, err := h.matches.AcceptChallenge(c.Request.Context(), matchID, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *MatchHandler) Join(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	var req joinMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	detail, err := h.matches.JoinTeamMatch(c.Request.Context(), matchID, GetUserID(c), models.Team(req.Team))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *MatchHandler) Cancel(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	detail, err := h.matches.CancelMatch(c.Request.Context(), matchID, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *MatchHandler) MarkDone(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	match, err := h.matches.MarkDone(c.Request.Context(), matchID, GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *MatchHandler) UploadProof(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	var req proofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	proof, err := h.matches.UploadProof(c.Request.Context(), matchID, GetUserID(c), req.ProofURL, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, proof)
}

func (h *MatchHandler) Get(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	detail, err := h.matches.GetMatch(c.Request.Context(), matchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *MatchHandler) ListOpen(c *gin.Context) {
	matches, err := h.matches.ListOpenChallenges(c.Request.Context(), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

func (h *MatchHandler) ListMine(c *gin.Context) {
	matches, err := h.matches.ListUserMatches(c.Request.Context(), GetUserID(c), limitQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// Dispute is staff only
func (h *MatchHandler) Dispute(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	var req disputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}
	match, err := h.matches.MarkDisputed(c.Request.Context(), matchID, GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

// Settle pays out the pot. A retry of a settled match answers 200 with already_settled.
func (h *MatchHandler) Settle(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	winnerID, err := uuid.Parse(req.WinnerID)
	if err != nil {
		respondError(c, fmt.Errorf("%w: %q is not a user id", service.ErrInvalidWinner, req.WinnerID))
		return
	}

	result, err := h.matches.SettleMatch(c.Request.Context(), service.SettleMatchRequest{
		MatchID:       matchID,
		WinnerID:      winnerID,
		AdminDecision: req.AdminDecision,
		FeePercentage: req.FeePercentage,
		ActorID:       GetUserID(c),
	})
	if err != nil {
		if service.IsSettlementConflict(err) && result != nil {
			c.JSON(http.StatusOK, result)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *MatchHandler) Void(c *gin.Context) {
	matchID, ok := matchIDParam(c)
	if !ok {
		return
	}
	var req voidRequest
	// body is optional; chunked requests carry no ContentLength
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			respondValidation(c, err)
			return
		}
	}

	result, err := h.matches.VoidMatch(c.Request.Context(), matchID, GetUserID(c), req.Decision)
	if err != nil {
		if service.IsSettlementConflict(err) && result != nil {
			c.JSON(http.StatusOK, result)
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
