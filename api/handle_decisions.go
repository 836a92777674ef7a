package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

type DecisionDto struct {
	Id              string    `json:"id"`
	TicketKey       string    `json:"ticket_key"`
	WinningRuleId   string    `json:"winning_rule_id"`
	RuleName        string    `json:"rule_name"`
	Confidence      float64   `json:"confidence"`
	RenderedComment string    `json:"rendered_comment,omitempty"`
	Suppressed      bool      `json:"suppressed"`
	CreatedAt       time.Time `json:"created_at"`
}

func AdaptDecisionDto(decision models.Decision) DecisionDto {
	return DecisionDto{
		Id:              decision.Id.String(),
		TicketKey:       decision.TicketKey,
		WinningRuleId:   decision.WinningRuleId,
		RuleName:        decision.RuleName,
		Confidence:      decision.Confidence,
		RenderedComment: decision.RenderedComment,
		Suppressed:      decision.Suppressed,
		CreatedAt:       decision.CreatedAt,
	}
}

func handleListDecisions(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))

		decisions, err := uc.DecisionRepository.ListDecisions(c.Request.Context(), limit)
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"decisions": utils.Map(decisions, AdaptDecisionDto),
		})
	}
}
