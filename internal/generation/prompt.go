package generation

import (
	"fmt"
	"strings"

	"github.com/starford/articlegen/internal/models"
)

// Prompt is a system and user message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = "You are a professional content writer. Reply with Markdown only, no commentary."

var lengthWords = map[models.Length]string{
	models.LengthShort:  "500-800 words",
	models.LengthMedium: "800-1500 words",
	models.LengthLong:   "1500+ words",
}

// OutlinePrompt asks for a heading and bullet outline.
func OutlinePrompt(req models.OutlineRequest) Prompt {
	var sb strings.Builder
	sb.WriteString("Write a detailed article outline in Markdown.\n")
	sb.WriteString("Use the title as a level-one heading and level-two headings for sections, each with 2-4 bullet points.\n")
	writeBrief(&sb, req)
	fmt.Fprintf(&sb, "\nTitle: %s\nInstructions: %s\n", req.Title, req.Instructions)
	return Prompt{System: systemPrompt, User: sb.String()}
}

// ArticlePrompt asks for the full article following outline.
func ArticlePrompt(req models.ArticleRequest, outline string) Prompt {
	var sb strings.Builder
	sb.WriteString("Write the complete article in Markdown following the outline below.\n")
	sb.WriteString("Start with a level-one heading, then an italic summary paragraph of 1-2 sentences.\n")
	writeBrief(&sb, req.OutlineRequest)
	if req.Tone != "" {
		fmt.Fprintf(&sb, "- Tone: %s.\n", req.Tone)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "- Work these keywords in naturally: %s.\n", strings.Join(req.Keywords, ", "))
	}
	if req.Citations {
		sb.WriteString("- Cite sources inline and end with a References section.\n")
	}
	if req.AdditionalInstructions != "" {
		fmt.Fprintf(&sb, "- %s\n", req.AdditionalInstructions)
	}
	fmt.Fprintf(&sb, "\nTitle: %s\nInstructions: %s\n\nOutline:\n%s\n", req.Title, req.Instructions, outline)
	return Prompt{System: systemPrompt, User: sb.String()}
}

func writeBrief(sb *strings.Builder, req models.OutlineRequest) {
	if req.Audience != "" {
		fmt.Fprintf(sb, "- Audience: %s readers.\n", req.Audience)
	}
	if w, ok := lengthWords[req.Length]; ok {
		fmt.Fprintf(sb, "- Length: %s.\n", w)
	}
	if req.Industry != "" {
		fmt.Fprintf(sb, "- Industry: %s.\n", req.Industry)
	}
	if req.ContentType != "" {
		fmt.Fprintf(sb, "- Format: %s.\n", req.ContentType)
	}
}
