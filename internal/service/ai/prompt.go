package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/safespeak/backend/internal/analysis/toxicity"
)

// labelGuides 各类别在提示词中的说明
var labelGuides = map[toxicity.Label]string{
	toxicity.Toxic:        "rude, disrespectful or unreasonable language likely to make someone leave a discussion",
	toxicity.SevereToxic:  "very hateful, aggressive or disrespectful language, including urging self-harm",
	toxicity.Obscene:      "swearing, sexual or vulgar language",
	toxicity.Threat:       "an intention to inflict pain, injury or violence on someone",
	toxicity.Insult:       "insulting, inflammatory or negative comments aimed at a person",
	toxicity.IdentityHate: "hate aimed at someone's identity such as race, religion, gender or orientation",
}

// BuildSystemPrompt 生成打分模型的系统提示词。
// 文本会作为 FString 模板使用，不能包含花括号。
func BuildSystemPrompt() string {
	var builder strings.Builder
	builder.WriteString("You are a content moderation classifier for a chat application. ")
	builder.WriteString("Score the user's message independently for each category below, ")
	builder.WriteString("using a probability between 0 and 1.\n\nCategories:\n")
	for _, label := range toxicity.Labels {
		builder.WriteString(fmt.Sprintf("- %s: %s\n", label, labelGuides[label]))
	}
	builder.WriteString("\nReply with a single JSON object only. It has one key, \"scores\", ")
	builder.WriteString("whose value maps every category name above to its probability. ")
	builder.WriteString("Do not add commentary. Ordinary or friendly messages score close to 0 everywhere.")
	return builder.String()
}

const userPromptTemplate = "Message to classify:\n{message}"
