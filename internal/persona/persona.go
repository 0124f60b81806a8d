// Package persona defines the closed set of tutor personas and their
// response-framing system prompts.
package persona

import "fmt"

// Persona names a response-framing profile selected by the user. The
// completion layer uses it to pick the system prompt sent to the model.
type Persona string

const (
	Amigo     Persona = "amigo"
	Pai       Persona = "pai"
	Professor Persona = "professor"
	Mentor    Persona = "mentor"
)

// DefaultSystemPrompt is the generic educational framing used when a persona
// carries no specific prompt.
const DefaultSystemPrompt = "Você é um assistente educacional especializado em reforço escolar. Seja claro, paciente e adaptativo ao nível do estudante."

var systemPrompts = map[Persona]string{
	Professor: "Você é um professor experiente e paciente. Ensine de forma clara, didática e sempre incentive o aprendizado. Use exemplos práticos e faça perguntas que estimulem o pensamento crítico.",
	Amigo:     "Você é um amigo prestativo e encorajador. Seja empático, use linguagem casual e sempre ofereça apoio emocional junto com suas respostas. Celebre os sucessos e ajude nas dificuldades.",
	Mentor:    "Você é um mentor sábio e experiente. Guie através de perguntas reflexivas, compartilhe insights valiosos e ajude a desenvolver habilidades de pensamento independente.",
	Pai:       "Você é um pai ou mãe carinhoso acompanhando os estudos. Demonstre orgulho pelo esforço, seja acolhedor e incentive com paciência cada pequena conquista.",
}

// Parse converts a user-supplied string into a Persona. Unknown values are
// rejected; the API boundary is strict even though the completion layer
// tolerates arbitrary strings.
func Parse(s string) (Persona, error) {
	switch p := Persona(s); p {
	case Amigo, Pai, Professor, Mentor:
		return p, nil
	}
	return "", fmt.Errorf("unknown persona %q", s)
}

// String returns the wire representation of the persona.
func (p Persona) String() string {
	return string(p)
}

// SystemPrompt returns the system framing for the persona, falling back to
// the generic educational framing for values outside the known set.
func (p Persona) SystemPrompt() string {
	if prompt, ok := systemPrompts[p]; ok {
		return prompt
	}
	return DefaultSystemPrompt
}

// All lists the valid personas in display order.
func All() []Persona {
	return []Persona{Amigo, Pai, Professor, Mentor}
}
