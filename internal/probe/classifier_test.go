package probe

import (
	"testing"

	"routerprobe/internal/config"
)

func defaultClassifier() *PhraseClassifier {
	return NewPhraseClassifier(config.DefaultRefusalPhrases, config.DefaultErrorKeywords)
}

func TestClassifyText(t *testing.T) {
	c := defaultClassifier()
	cases := []struct {
		text string
		want TextVerdict
	}{
		{"", VerdictBlank},
		{"  \n\t", VerdictBlank},
		{"I CANNOT check live weather.", VerdictRefused},
		{"Sorry, I don't have access to real-time data", VerdictRefused},
		{"It is sunny and 18C in San Francisco.", VerdictIgnored},
	}
	for _, tc := range cases {
		if got := c.ClassifyText(tc.text); got != tc.want {
			t.Fatalf("%q: got %s want %s", tc.text, got, tc.want)
		}
	}
}

func TestErrorImpliesUnsupported(t *testing.T) {
	c := defaultClassifier()
	if !c.ErrorImpliesUnsupported("status 404: No endpoints found that support Tool use") {
		t.Fatalf("expected keyword match")
	}
	if c.ErrorImpliesUnsupported("status 502: upstream timeout") {
		t.Fatalf("unexpected keyword match")
	}
	if NewPhraseClassifier(nil, []string{" ", ""}).ErrorImpliesUnsupported("anything") {
		t.Fatalf("blank keywords must not match")
	}
}
