package ai

import (
	"regexp"
	"strings"
)

// GeneratedRecipe is one parsed recipe block, not yet persisted.
type GeneratedRecipe struct {
	Name         string `json:"name"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

// ParseExercises splits a workout-plan response into per-exercise blocks.
// A line containing the "Exercise" marker starts a new block; continuation
// lines attach to the current one. Responses without any marker come back
// as a single block so the user still sees the text.
func ParseExercises(text string) []string {
	var blocks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(line, "Exercise") {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	return blocks
}

// ParseRecipes parses the templated three-recipe response. This is a
// best-effort line heuristic over free model output, not a contract: if the
// strict template parse finds nothing, parseRecipesFallback scrapes what it
// can, and as a last resort the whole cleaned text becomes one pseudo-recipe
// so the user never gets an empty screen.
func ParseRecipes(text string) []GeneratedRecipe {
	cleaned := stripMarkdown(text)

	var recipes []GeneratedRecipe
	blocks := strings.Split(cleaned, "Name:")
	for _, block := range blocks[1:] {
		if r, ok := parseRecipeBlock(block); ok {
			recipes = append(recipes, r)
		}
	}

	if len(recipes) == 0 {
		return parseRecipesFallback(cleaned)
	}
	return recipes
}

type recipeSection int

const (
	sectionName recipeSection = iota
	sectionType
	sectionIngredients
	sectionInstructions
)

func parseRecipeBlock(block string) (GeneratedRecipe, bool) {
	var r GeneratedRecipe
	var ingredients, instructions []string
	section := sectionName

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(line, "Type:"):
			section = sectionType
		case strings.HasPrefix(lower, "ingredients:"):
			section = sectionIngredients
		case strings.HasPrefix(lower, "preparation:"):
			section = sectionInstructions
		default:
			switch section {
			case sectionName:
				r.Name = line
			case sectionIngredients:
				if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
					ingredients = append(ingredients, strings.TrimSpace(line[1:]))
				}
			case sectionInstructions:
				if startsNumbered(line) || strings.HasPrefix(line, "-") ||
					strings.HasPrefix(line, "*") || strings.HasPrefix(line, "•") {
					instructions = append(instructions, line)
				}
			}
		}
	}

	if r.Name == "" {
		return GeneratedRecipe{}, false
	}
	r.Ingredients = strings.Join(ingredients, "\n")
	r.Instructions = strings.Join(instructions, "\n")
	return r, true
}

var (
	ingredientsRe = regexp.MustCompile(`(?is)ingredients:\s*(.*?)(?:preparation:|$)`)
	preparationRe = regexp.MustCompile(`(?is)preparation:\s*(.*)`)
)

// parseRecipesFallback handles responses that ignored the template: split on
// blank-line paragraphs, scrape sections by regex, cap at three recipes.
func parseRecipesFallback(text string) []GeneratedRecipe {
	var recipes []GeneratedRecipe

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		name := firstNonEmptyLine(para)
		r := GeneratedRecipe{Name: name, Instructions: para}

		if m := ingredientsRe.FindStringSubmatch(para); m != nil {
			r.Ingredients = strings.TrimSpace(m[1])
		}
		if m := preparationRe.FindStringSubmatch(para); m != nil {
			r.Instructions = strings.TrimSpace(m[1])
		}

		recipes = append(recipes, r)
		if len(recipes) == 3 {
			break
		}
	}

	if len(recipes) == 0 {
		recipes = []GeneratedRecipe{{Name: "Recipe", Instructions: text}}
	}
	return recipes
}

func stripMarkdown(s string) string {
	r := strings.NewReplacer("**", "", "###", "", "```", "")
	return r.Replace(s)
}

func startsNumbered(s string) bool {
	return len(s) > 0 && s[0] >= '0' && s[0] <= '9'
}

func firstNonEmptyLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return "Recipe"
}
