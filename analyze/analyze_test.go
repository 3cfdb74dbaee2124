package analyze

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/docsift/docsift/varscan"
)

func hashOf(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func para(id int64, text string) Paragraph {
	return Paragraph{ID: id, Text: text, Hash: hashOf(text)}
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello, World!", "hello world"},
		{"  spaced\t\nout  ", "spaced out"},
		{`"quoted" text; with: punctuation.`, "quoted text with punctuation"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Preprocess(tt.in); got != tt.want {
			t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVectorizeCosine(t *testing.T) {
	vecs, err := vectorize([]string{
		"contract renewal terms apply annually",
		"contract renewal terms apply annually",
		"completely unrelated gardening advice",
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := cosine(vecs[0], vecs[1]); math.Abs(got-1) > 1e-9 {
		t.Errorf("cosine(identical) = %v, want 1", got)
	}
	if got := cosine(vecs[0], vecs[2]); got != 0 {
		t.Errorf("cosine(disjoint) = %v, want 0", got)
	}
}

func TestVectorizeEmptyVocabulary(t *testing.T) {
	_, err := vectorize([]string{"the and of", "a an"})
	if err != ErrNoVocabulary {
		t.Fatalf("err = %v, want ErrNoVocabulary", err)
	}
}

func TestExactDuplicates(t *testing.T) {
	dup := "Payment is due within thirty days."
	paras := []Paragraph{
		para(1, dup),
		para(2, "Something else entirely."),
		para(3, dup),
	}

	e := New(Config{})
	groups := e.ExactDuplicates(paras)
	if len(groups) != 1 {
		t.Fatalf("groups = %d, want 1", len(groups))
	}
	group := groups[hashOf(dup)]
	if len(group) != 2 {
		t.Fatalf("group size = %d, want 2", len(group))
	}
	if group[0].ID != 1 || group[1].ID != 3 {
		t.Errorf("group IDs = %d, %d, want 1, 3", group[0].ID, group[1].ID)
	}
}

func TestSimilarPairsSkipsExactDuplicates(t *testing.T) {
	// Identical paragraphs are exact duplicates and never reported as
	// similar pairs.
	dup := "Payment is due within thirty days of the invoice date and late payments accrue interest."
	paras := []Paragraph{para(1, dup), para(2, dup)}

	e := New(Config{})
	if pairs := e.SimilarPairs(paras); len(pairs) != 0 {
		t.Fatalf("pairs = %d, want 0", len(pairs))
	}
}

func TestSimilarPairsNearDuplicates(t *testing.T) {
	a := "Payment is due within thirty days of the invoice date and late payments accrue interest at the statutory rate."
	b := "Payment is due within sixty days of the invoice date and late payments accrue interest at the statutory rate."
	c := "The committee will convene in the main conference hall next Tuesday morning."
	paras := []Paragraph{para(1, a), para(2, b), para(3, c)}

	e := New(Config{})
	pairs := e.SimilarPairs(paras)
	if len(pairs) != 1 {
		t.Fatalf("pairs = %d, want 1", len(pairs))
	}
	p := pairs[0]
	if p.A.ID != 1 || p.B.ID != 2 {
		t.Errorf("pair IDs = %d, %d, want 1, 2", p.A.ID, p.B.ID)
	}
	if p.Score < 0.8 || p.Score > 1 {
		t.Errorf("score = %v, want in [0.8, 1]", p.Score)
	}
}

func TestSimilarPairsSingleParagraph(t *testing.T) {
	e := New(Config{})
	if pairs := e.SimilarPairs([]Paragraph{para(1, "alone")}); pairs != nil {
		t.Fatalf("pairs = %v, want nil", pairs)
	}
}

func TestSimilarPairsStopwordsOnly(t *testing.T) {
	// Nothing survives stopword removal; analysis degrades to no pairs
	// rather than failing.
	paras := []Paragraph{
		para(1, "the and of which"),
		para(2, "a an because"),
	}
	e := New(Config{})
	if pairs := e.SimilarPairs(paras); len(pairs) != 0 {
		t.Fatalf("pairs = %d, want 0", len(pairs))
	}
}

func TestSampleDeterministic(t *testing.T) {
	var paras []Paragraph
	for i := int64(0); i < 50; i++ {
		paras = append(paras, para(i, fmt.Sprintf("paragraph number %d with unique content", i)))
	}

	e := New(Config{MaxComparisons: 10, SampleSize: 5, Seed: 42})
	first := e.sample(paras)
	second := e.sample(paras)
	if len(first) != 5 {
		t.Fatalf("sample size = %d, want 5", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("sample not deterministic at %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSampleWithinBudget(t *testing.T) {
	paras := []Paragraph{para(1, "a"), para(2, "b"), para(3, "c")}
	e := New(Config{MaxComparisons: 10, SampleSize: 2})
	if got := e.sample(paras); len(got) != 3 {
		t.Fatalf("sample = %d paragraphs, want all 3 (budget not exceeded)", len(got))
	}
}

func TestCommonPhrases(t *testing.T) {
	boiler := "This agreement shall be governed by the laws of the state of Delaware."
	paras := []Paragraph{
		para(1, boiler+" First variant trailer."),
		para(2, boiler+" Second variant trailer text."),
		para(3, "Unrelated discussion of quarterly sales figures and projections."),
		para(4, "Another paragraph about staffing levels in the northern office."),
		para(5, "Closing remarks from the chairman of the board meeting."),
	}

	e := New(Config{})
	phrases := e.CommonPhrases(paras)
	if len(phrases) == 0 {
		t.Fatal("expected at least one common phrase")
	}
	top := phrases[0]
	if top.Count != 2 {
		t.Errorf("top count = %d, want 2", top.Count)
	}
	if !strings.Contains(boiler, top.Text) {
		t.Errorf("top phrase %q not drawn from the shared boilerplate", top.Text)
	}

	// No kept phrase may contain, or be contained in, another.
	for i := range phrases {
		for j := range phrases {
			if i == j {
				continue
			}
			if strings.Contains(phrases[i].Text, phrases[j].Text) {
				t.Errorf("phrase %q contains phrase %q", phrases[i].Text, phrases[j].Text)
			}
		}
	}
}

func TestCommonPhrasesVerbatimText(t *testing.T) {
	boiler := "This Agreement shall be governed by the laws of Delaware."
	paras := []Paragraph{
		para(1, boiler+" Executed in two counterparts."),
		para(2, boiler+" Executed in three counterparts."),
		para(3, "Quarterly revenue grew across all regions this year."),
		para(4, "The northern office reported higher staffing levels."),
		para(5, "Board approval is recorded in the meeting minutes."),
	}

	e := New(Config{})
	phrases := e.CommonPhrases(paras)
	if len(phrases) == 0 {
		t.Fatal("expected at least one common phrase")
	}
	// Phrases keep the casing and punctuation of the source text.
	for _, p := range phrases {
		found := false
		for _, src := range paras {
			if strings.Contains(src.Text, p.Text) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("phrase %q is not verbatim text from any paragraph", p.Text)
		}
	}
}

func TestCommonPhrasesRepeatWithinParagraph(t *testing.T) {
	paras := []Paragraph{
		para(1, "Confidential information must be returned promptly. Confidential information must be returned promptly."),
		para(2, "Quarterly revenue grew across all regions this year."),
		para(3, "The northern office reported higher staffing levels."),
		para(4, "Board approval is recorded in the meeting minutes."),
		para(5, "Closing remarks were delivered by the chairman."),
	}

	e := New(Config{})
	phrases := e.CommonPhrases(paras)
	if len(phrases) != 1 {
		t.Fatalf("phrases = %v, want exactly one", phrases)
	}
	want := "Confidential information must be returned promptly."
	if phrases[0].Text != want || phrases[0].Count != 2 {
		t.Fatalf("phrase = %+v, want %q with count 2", phrases[0], want)
	}
}

func TestCommonPhrasesTooFewParagraphs(t *testing.T) {
	paras := []Paragraph{
		para(1, "Shared boilerplate text repeated below for emphasis here."),
		para(2, "Shared boilerplate text repeated below for emphasis here."),
	}
	e := New(Config{})
	if got := e.CommonPhrases(paras); got != nil {
		t.Fatalf("phrases = %v, want nil below 5 paragraphs", got)
	}
}

func TestCommonPhrasesCap(t *testing.T) {
	var paras []Paragraph
	for i := int64(0); i < 10; i++ {
		// Each paragraph repeats many distinct shared sentences.
		var b strings.Builder
		for s := 0; s < 30; s++ {
			fmt.Fprintf(&b, "recurring clause number %d appears in every single document here. ", s)
		}
		paras = append(paras, para(i, b.String()))
	}
	e := New(Config{MaxPhrases: 3})
	if got := e.CommonPhrases(paras); len(got) > 3 {
		t.Fatalf("phrases = %d, want at most 3", len(got))
	}
}

func TestStats(t *testing.T) {
	paras := []Paragraph{
		para(1, "abcde"),
		para(2, "abcdefghij"),
		para(3, "abc"),
	}
	s := Stats(paras)
	if s.Count != 3 || s.MinLength != 3 || s.MaxLength != 10 || s.TotalChars != 18 {
		t.Fatalf("stats = %+v", s)
	}
	if s.AvgLength != 6 {
		t.Errorf("avg = %v, want 6", s.AvgLength)
	}
}

func TestStatsEmpty(t *testing.T) {
	s := Stats(nil)
	if s.Count != 0 || s.AvgLength != 0 || s.TotalChars != 0 {
		t.Fatalf("stats = %+v, want zeros", s)
	}
}

func TestVariableUsage(t *testing.T) {
	matches := []varscan.Match{
		{Name: "client_name", Kind: "<<>>"},
		{Name: "date", Kind: "{{}}"},
		{Name: "client_name", Kind: "<<>>"},
		{Name: "client_name", Kind: "${}"},
	}
	usage := VariableUsage(matches)
	if len(usage) != 2 {
		t.Fatalf("usage = %d entries, want 2", len(usage))
	}
	if usage[0].Name != "client_name" || usage[0].Count != 3 {
		t.Errorf("usage[0] = %+v", usage[0])
	}
	if usage[0].Kind != "<<>>" {
		t.Errorf("kind = %q, want first-seen <<>>", usage[0].Kind)
	}
	if usage[1].Name != "date" || usage[1].Count != 1 {
		t.Errorf("usage[1] = %+v", usage[1])
	}
}
