package risk

import (
	"github.com/prepdeckhq/prepdeck-backend/pkg/db/models"
	"github.com/prepdeckhq/prepdeck-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// EvaluatedItem is a counted item annotated with its risk tier and a
// reorder suggestion.
type EvaluatedItem struct {
	ItemName       string          `json:"item_name"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	ParLevel       decimal.Decimal `json:"par_level"`
	Unit           string          `json:"unit,omitempty"`
	Risk           enums.RiskTier  `json:"risk"`
	SuggestedOrder decimal.Decimal `json:"suggested_order"`
	Ratio          decimal.Decimal `json:"-"`
}

// Evaluation is the result of classifying one approved count session.
type Evaluation struct {
	Items      []EvaluatedItem
	AlertItems []EvaluatedItem
}

// HasRed reports whether any alert item sits in the red tier.
func (e Evaluation) HasRed() bool {
	for _, item := range e.AlertItems {
		if item.Risk == enums.RiskRed {
			return true
		}
	}
	return false
}

// Evaluate classifies every item of an approved session against its PAR
// level. A PAR of zero is floored to one so the ratio stays defined.
// Items below PAR (ratio < 1) are collected as alert items.
func Evaluate(items []models.SessionItem) Evaluation {
	evaluation := Evaluation{Items: make([]EvaluatedItem, 0, len(items))}
	for _, item := range items {
		evaluated := evaluateItem(item)
		evaluation.Items = append(evaluation.Items, evaluated)
		if evaluated.Ratio.LessThan(one) {
			evaluation.AlertItems = append(evaluation.AlertItems, evaluated)
		}
	}
	return evaluation
}

func evaluateItem(item models.SessionItem) EvaluatedItem {
	par := item.ParLevel
	if par.LessThan(one) {
		par = one
	}
	ratio := item.CurrentStock.Div(par)

	suggested := item.ParLevel.Sub(item.CurrentStock)
	if suggested.IsNegative() {
		suggested = decimal.Zero
	}

	return EvaluatedItem{
		ItemName:       item.ItemName,
		CurrentStock:   item.CurrentStock,
		ParLevel:       item.ParLevel,
		Unit:           item.Unit,
		Risk:           classify(ratio),
		SuggestedOrder: suggested,
		Ratio:          ratio,
	}
}

func classify(ratio decimal.Decimal) enums.RiskTier {
	switch {
	case ratio.LessThan(half):
		return enums.RiskRed
	case ratio.LessThan(one):
		return enums.RiskYellow
	default:
		return enums.RiskGreen
	}
}
