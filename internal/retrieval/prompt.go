package retrieval

import "fmt"

const SystemPrompt = "Eres un asistente legal que responde en lenguaje claro."

func BuildPrompt(chunk, question string) []Message {
	return []Message{
		{Role: RoleSystem, Content: SystemPrompt},
		{Role: RoleUser, Content: fmt.Sprintf("Basado en este texto: %s\n\nResponde: %s", chunk, question)},
	}
}
