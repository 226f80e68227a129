package llm

import "strings"

// StripCodeFence removes a surrounding markdown code fence from model output.
// Models often wrap JSON in ```json ... ``` even when asked not to.
func StripCodeFence(content string) string {
	if body := extractFromCodeBlock(content, "```json", "```"); body != "" {
		return body
	}
	if body := extractFromCodeBlock(content, "```", "```"); body != "" {
		return body
	}
	return strings.TrimSpace(content)
}

func extractFromCodeBlock(content, startMarker, endMarker string) string {
	startIdx := strings.Index(content, startMarker)
	if startIdx == -1 {
		return ""
	}

	contentStart := startIdx + len(startMarker)
	if contentStart < len(content) && content[contentStart] == '\n' {
		contentStart++
	}

	endIdx := strings.Index(content[contentStart:], endMarker)
	if endIdx == -1 {
		return strings.TrimSpace(content[contentStart:])
	}

	return strings.TrimSpace(content[contentStart : contentStart+endIdx])
}
