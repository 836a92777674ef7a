package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faultline/faultline/models"
	"github.com/faultline/faultline/usecases"
	"github.com/faultline/faultline/utils"
)

type RuleDto struct {
	Id           string   `json:"id"`
	Name         string   `json:"name"`
	Priority     int      `json:"priority"`
	PatternCount int      `json:"pattern_count"`
	ScopeFields  []string `json:"scope_fields,omitempty"`
}

func AdaptRuleDto(rule models.Rule) RuleDto {
	return RuleDto{
		Id:           rule.Id,
		Name:         rule.Name,
		Priority:     rule.Priority,
		PatternCount: len(rule.Patterns),
		ScopeFields: utils.Map(rule.Scope, func(p models.ScopePredicate) string {
			return p.Field
		}),
	}
}

func handleListRules(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"rules": utils.Map(uc.Rules, AdaptRuleDto),
		})
	}
}
