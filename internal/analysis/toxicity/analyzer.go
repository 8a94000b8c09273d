package toxicity

import (
	"strconv"
	"strings"
	"unicode"
)

// Label 表示分类器输出的毒性类别。
type Label string

const (
	Toxic        Label = "toxic"
	SevereToxic  Label = "severe_toxic"
	Obscene      Label = "obscene"
	Threat       Label = "threat"
	Insult       Label = "insult"
	IdentityHate Label = "identity_hate"
	Neutral      Label = "neutral"
)

// Labels 按模型输出下标顺序列出全部类别
var Labels = []Label{Toxic, SevereToxic, Obscene, Threat, Insult, IdentityHate}

// neutralFloor 所有分数低于该值时判定为 neutral
const neutralFloor = 0.05

// Result 给出一次分类的主标签、主分数 (0~1) 以及全部类别分数。
type Result struct {
	Label  Label             `json:"label"`
	Score  float64           `json:"score"`
	Scores map[Label]float64 `json:"scores"`
}

// LabelFromID 将 "LABEL_4" 这类原始标签解析为类别。
// 未知下标回落为 Toxic，不带下标的名称原样返回。
func LabelFromID(raw string) Label {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if !strings.Contains(normalized, "_") {
		return Label(normalized)
	}

	idx, err := strconv.Atoi(normalized[strings.LastIndex(normalized, "_")+1:])
	if err != nil {
		// severe_toxic、identity_hate 等名称已是类别本身
		return Label(normalized)
	}
	if idx < 0 || idx >= len(Labels) {
		return Toxic
	}
	return Labels[idx]
}

// FromScores 从分数表中选出主类别。分数相同时按 Labels 顺序取前者，
// 结果不受 map 遍历顺序影响。
func FromScores(scores map[Label]float64) Result {
	normalized := make(map[Label]float64, len(Labels))
	for _, label := range Labels {
		normalized[label] = clamp01(scores[label])
	}

	best := Neutral
	bestScore := 0.0
	for _, label := range Labels {
		if s := normalized[label]; s > bestScore {
			best = label
			bestScore = s
		}
	}
	if bestScore < neutralFloor {
		best = Neutral
	}

	return Result{Label: best, Score: bestScore, Scores: normalized}
}

var keywordBuckets = map[Label][]string{
	Toxic: {
		"shut up", "hate you", "loser", "trash", "garbage", "pathetic", "worthless", "disgusting",
		"get lost", "nobody likes you", "go away", "sucks", "screw you", "crap",
	},
	SevereToxic: {
		"kill yourself", "kys", "die in a fire", "hope you die", "go die", "piece of shit",
	},
	Obscene: {
		"fuck", "fucking", "shit", "bitch", "ass", "asshole", "dick", "bastard", "damn", "wtf",
		"porn", "slut", "whore",
	},
	Threat: {
		"kill you", "i will kill", "hurt you", "beat you", "find you", "watch your back",
		"burn your", "destroy you", "you will regret", "shoot", "stab",
	},
	Insult: {
		"stupid", "idiot", "dumb", "moron", "fool", "ugly", "fat", "retard", "clown", "useless",
		"incompetent", "ignorant", "brainless", "imbecile", "jerk",
	},
	IdentityHate: {
		"go back to your country", "your kind", "you people", "subhuman", "inferior race",
		"terrorist", "nazi",
	},
}

var keywordWeight = map[Label]float64{
	Toxic:        0.35,
	SevereToxic:  0.6,
	Obscene:      0.45,
	Threat:       0.55,
	Insult:       0.45,
	IdentityHate: 0.55,
}

// Analyze 使用关键词启发式规则给出毒性评分，在没有外部模型时作为兜底。
func Analyze(text string) Result {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return FromScores(nil)
	}
	padded := " " + strings.Join(tokens, " ") + " "

	scores := make(map[Label]float64, len(Labels))
	for _, label := range Labels {
		for _, phrase := range keywordBuckets[label] {
			if strings.Contains(padded, " "+phrase+" ") {
				scores[label] = combine(scores[label], keywordWeight[label])
			}
		}
	}

	// 针对读者的侮辱比泛指的侮辱权重更高
	if scores[Insult] > 0 && addressesReader(tokens) {
		scores[Insult] = combine(scores[Insult], 0.3)
	}

	if shouting(text) {
		scores[Toxic] = combine(scores[Toxic], 0.1)
	}

	strongest := 0.0
	for _, label := range Labels[1:] {
		if scores[label] > strongest {
			strongest = scores[label]
		}
	}
	if general := strongest * 0.9; general > scores[Toxic] {
		scores[Toxic] = general
	}

	return FromScores(scores)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func addressesReader(tokens []string) bool {
	for _, tok := range tokens {
		switch tok {
		case "you", "you're", "youre", "ur", "u", "your":
			return true
		}
	}
	return false
}

func shouting(text string) bool {
	upper, letters := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	return letters >= 4 && float64(upper)/float64(letters) > 0.6
}

// combine 将两个信号视为独立证据合并：1-(1-a)(1-b)
func combine(current, weight float64) float64 {
	return 1 - (1-current)*(1-weight)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
