package xai

import "fmt"

// stylistSystemPrompt frames Grok as a personal fashion stylist. Replies
// stay short because MaxTokens caps them hard.
const stylistSystemPrompt = `You are a knowledgeable and friendly personal fashion stylist. ` +
	`Help users with outfit ideas, styling tips, color coordination, and fashion advice. ` +
	`Keep responses concise, practical, and encouraging. ` +
	`When suggesting outfits, prefer pieces the user already owns.`

// buildStylistPrompt returns the system prompt, optionally extended with a
// summary of the user's wardrobe.
func buildStylistPrompt(wardrobeNotes string) string {
	if wardrobeNotes == "" {
		return stylistSystemPrompt
	}
	return fmt.Sprintf("%s\n\nThe user's wardrobe includes: %s", stylistSystemPrompt, wardrobeNotes)
}
