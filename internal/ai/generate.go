package ai

import (
	"context"
	"fmt"
)

const trainerSystemPrompt = "You are an experienced personal trainer. " +
	"Produce exactly four different exercises. Each exercise must follow one " +
	"standardized format: the word Exercise with its number, then the exercise " +
	"name, a dash, and the description. Output them as:\n" +
	"Exercise 1. Name - Description.\n" +
	"Exercise 2. Name - Description.\n" +
	"Exercise 3. Name - Description.\n" +
	"Exercise 4. Name - Description."

const chefSystemPrompt = "You are an experienced chef and dietitian. Answer " +
	"ONLY questions related to cooking, recipes, nutrition and dietetics. If a " +
	"question is outside these topics, politely decline and explain that your " +
	"expertise is limited to the culinary domain."

const vitaminSystemPrompt = "You are a vitamin expert. Suggest vitamins that " +
	"could help the user with their request. Output a list of 3-5 vitamins " +
	"with a short description for each."

// GenerateWorkoutPlan asks for four exercises matching the user's goal and
// returns them as separate text blocks.
func (c *Client) GenerateWorkoutPlan(ctx context.Context, goal string) ([]string, error) {
	text, err := c.Complete(ctx, trainerSystemPrompt, goal, Options{Temperature: 0.3, MaxTokens: 1000})
	if err != nil {
		return nil, err
	}
	return ParseExercises(text), nil
}

// GenerateRecipes asks for three recipes of the given meal type matching the
// user's request and parses them into structured blocks.
func (c *Client) GenerateRecipes(ctx context.Context, mealType, request string) ([]GeneratedRecipe, error) {
	prompt := recipePrompt(mealType, request)
	text, err := c.Complete(ctx, chefSystemPrompt, prompt, Options{Temperature: 0.7, MaxTokens: 2000})
	if err != nil {
		return nil, err
	}
	return ParseRecipes(text), nil
}

// GenerateVitaminSuggestions returns the suggestion text verbatim; the
// caller stores it alongside the query.
func (c *Client) GenerateVitaminSuggestions(ctx context.Context, query string) (string, error) {
	return c.Complete(ctx, vitaminSystemPrompt, query, Options{Temperature: 0.3, MaxTokens: 1000})
}

// recipePrompt pins the output format hard: the parser is a line heuristic,
// so the template is repeated for all three recipes to keep the model on
// rails.
func recipePrompt(mealType, request string) string {
	block := "Name: [recipe name %d]\n" +
		"Type: " + mealType + "\n" +
		"Ingredients:\n" +
		"- ingredient 1\n" +
		"- ingredient 2\n" +
		"- ...\n" +
		"Preparation:\n" +
		"1. step 1\n" +
		"2. step 2\n" +
		"3. ...\n"

	return "Follow this template strictly for 3 recipes. No extra words or " +
		"symbols, only the recipes!\n\n" +
		fmt.Sprintf(block, 1) + "\n" +
		fmt.Sprintf(block, 2) + "\n" +
		fmt.Sprintf(block, 3) + "\n" +
		"Request: " + request + ". Only recipes in the given format, without " +
		"introductions or conclusions!"
}
