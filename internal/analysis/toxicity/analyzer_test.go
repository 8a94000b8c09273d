package toxicity

import "testing"

func TestAnalyzeInsultAimedAtReader(t *testing.T) {
	result := Analyze("you are stupid")
	if result.Label != Insult {
		t.Fatalf("expected insult label, got %s", result.Label)
	}
	if sev := SeverityFor(result.Score); sev != SeverityMedium {
		t.Fatalf("expected medium severity, got %s (score %.3f)", sev, result.Score)
	}
	if result.Scores[Toxic] >= result.Score {
		t.Fatalf("general toxicity should trail the primary category: %.3f vs %.3f", result.Scores[Toxic], result.Score)
	}
}

func TestAnalyzeNeutralGreeting(t *testing.T) {
	result := Analyze("hello there, how was your weekend?")
	if result.Label != Neutral {
		t.Fatalf("expected neutral label, got %s", result.Label)
	}
	if SeverityFor(result.Score) != SeverityLow {
		t.Fatalf("expected low severity, got score %.3f", result.Score)
	}
}

func TestAnalyzeDoesNotMatchInsideWords(t *testing.T) {
	result := Analyze("the class assignment was a classic")
	if result.Scores[Obscene] != 0 {
		t.Fatalf("expected no obscene score, got %.3f", result.Scores[Obscene])
	}
}

func TestAnalyzeStackedThreatIsHigh(t *testing.T) {
	result := Analyze("I will kill you, watch your back")
	if result.Label != Threat {
		t.Fatalf("expected threat label, got %s", result.Label)
	}
	if SeverityFor(result.Score) != SeverityHigh {
		t.Fatalf("expected high severity, got score %.3f", result.Score)
	}
}

func TestAnalyzeEmptyText(t *testing.T) {
	result := Analyze("   ")
	if result.Label != Neutral || result.Score != 0 {
		t.Fatalf("expected zero neutral result, got %+v", result)
	}
	if len(result.Scores) != len(Labels) {
		t.Fatalf("expected every label to be present, got %d", len(result.Scores))
	}
}

func TestLabelFromID(t *testing.T) {
	cases := map[string]Label{
		"LABEL_0":       Toxic,
		"LABEL_4":       Insult,
		"label_5":       IdentityHate,
		"LABEL_17":      Toxic,
		"severe_toxic":  SevereToxic,
		"Insult":        Insult,
		"identity_hate": IdentityHate,
	}
	for raw, want := range cases {
		if got := LabelFromID(raw); got != want {
			t.Fatalf("LabelFromID(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestSeverityThresholdsAreExclusive(t *testing.T) {
	cases := []struct {
		score float64
		want  Severity
	}{
		{0.0, SeverityLow},
		{0.5, SeverityLow},
		{0.51, SeverityMedium},
		{0.8, SeverityMedium},
		{0.81, SeverityHigh},
		{1.0, SeverityHigh},
	}
	for _, tc := range cases {
		if got := SeverityFor(tc.score); got != tc.want {
			t.Fatalf("SeverityFor(%.2f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestIsToxic(t *testing.T) {
	for _, sev := range []string{"medium", "high"} {
		if !IsToxic(sev) {
			t.Fatalf("expected %s to be toxic", sev)
		}
	}
	for _, sev := range []string{"low", "", "HIGH", "critical"} {
		if IsToxic(sev) {
			t.Fatalf("expected %q to be safe", sev)
		}
	}
}
