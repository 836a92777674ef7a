package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

type TimerDto struct {
	TicketKey string    `json:"ticket_key"`
	RuleId    string    `json:"rule_id"`
	StartedAt time.Time `json:"started_at"`
	ExpiresAt time.Time `json:"expires_at"`
	State     string    `json:"state"`
}

func AdaptTimerDto(timer models.TimerRecord) TimerDto {
	return TimerDto{
		TicketKey: timer.TicketKey,
		RuleId:    timer.RuleId,
		StartedAt: timer.StartedAt,
		ExpiresAt: timer.ExpiresAt(),
		State:     string(timer.State),
	}
}

func handleListTimers(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		timers, err := uc.TimerRepository.ListTimers(c.Request.Context())
		if presentError(c, err) {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"timers": utils.Map(timers, AdaptTimerDto),
		})
	}
}
