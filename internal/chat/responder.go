package chat

import (
	"math/rand/v2"
	"strings"
)

type Responder interface {
	Reply(text, category string) string
}

// Rule answers with Reply when the lower-cased input contains any keyword.
type Rule struct {
	Keywords []string
	Reply    string
}

// KeywordResponder checks Rules in order and otherwise picks one of Fallback.
type KeywordResponder struct {
	Rules    []Rule
	Fallback []string
	// Pick selects a fallback index in [0, n). Defaults to a random pick.
	Pick func(n int) int
}

func DefaultResponder() *KeywordResponder {
	return &KeywordResponder{
		Rules: []Rule{
			{Keywords: []string{"obrigad", "valeu"}, Reply: "😊 Por nada! Fico feliz em ajudar. Há algo mais em que posso ser útil?"},
			{Keywords: []string{"tchau", "até"}, Reply: "👋 Até logo! Tenha um ótimo dia. Estou sempre aqui quando precisar! 😊"},
			{Keywords: []string{"preço", "valor", "custo"}, Reply: "💰 Para consultar preços específicos, você pode:\n• Acessar nosso site\n• Verificar no app\n• Solicitar orçamento\n\nQue produto te interessa?"},
			{Keywords: []string{"horário", "funciona"}, Reply: "🕒 Nossos horários:\n• Loja virtual: 24h\n• Atendimento: 8h às 18h (Seg-Sex)\n• SAC: 8h às 20h (Seg-Sáb)\n\nComo posso ajudar?"},
		},
		Fallback: []string{
			"🤔 Entendi! Deixe-me processar sua solicitação...",
			"📝 Interessante pergunta! Vou verificar isso para você.",
			"💡 Boa pergunta! Estou analisando sua solicitação.",
			"🔍 Verificando as informações... Um momento, por favor!",
			"✅ Recebi sua mensagem! Vou te dar uma resposta completa.",
		},
	}
}

func (r *KeywordResponder) Reply(text, category string) string {
	_ = category

	lower := strings.ToLower(text)
	for _, rule := range r.Rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Reply
			}
		}
	}

	if len(r.Fallback) == 0 {
		return ""
	}
	pick := r.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return r.Fallback[pick(len(r.Fallback))]
}
