// Package classify assigns a category/subcategory suggestion to a financial
// document by keyword scoring. The result is always a suggestion the
// workflow may accept or override, never a hard constraint.
package classify

import (
	"strings"

	"github.com/hypervisual/finance-workflow/internal/domain/entity"
)

// merchantBonus is the extra weight for a keyword occurring in the
// counterparty/merchant name rather than only in the free text.
const merchantBonus = 2

// Suggestion is a classifier match.
type Suggestion struct {
	Category    string
	Subcategory string
	Score       int
}

// Classifier scores documents against an ordered taxonomy.
type Classifier struct {
	taxonomy Taxonomy
}

// NewClassifier creates a classifier over the given taxonomy; a nil taxonomy
// uses the default one.
func NewClassifier(taxonomy Taxonomy) *Classifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Classifier{taxonomy: taxonomy}
}

// Classify scores every category and returns the strictly best match, or nil
// when no keyword matches at all. Ties keep the earliest-declared category,
// so identical inputs always yield identical output.
func (c *Classifier) Classify(doc *entity.FinancialDocument, freeText string) *Suggestion {
	text := strings.ToLower(freeText)
	if text == "" {
		text = strings.ToLower(doc.Description)
	}
	merchant := strings.ToLower(doc.Counterparty.Name)
	if merchant == strings.ToLower(entity.UnknownCounterpartyName) {
		merchant = ""
	}

	var best *Suggestion
	for _, category := range c.taxonomy {
		score := 0
		matched := ""

		for _, keyword := range category.Keywords {
			kw := strings.ToLower(keyword)
			hit := false
			if text != "" && strings.Contains(text, kw) {
				score++
				hit = true
			}
			if merchant != "" && strings.Contains(merchant, kw) {
				score += merchantBonus
				hit = true
			}
			if hit && matched == "" {
				matched = keyword
			}
		}

		if score > 0 && (best == nil || score > best.Score) {
			best = &Suggestion{
				Category:    category.Name,
				Subcategory: category.subcategoryFor(matched),
				Score:       score,
			}
		}
	}

	return best
}

func (cat Category) subcategoryFor(keyword string) string {
	if sub, ok := cat.SubcategoryHints[keyword]; ok {
		return sub
	}
	if len(cat.Subcategories) > 0 {
		return cat.Subcategories[0]
	}
	return ""
}
