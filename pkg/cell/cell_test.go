package cell

import "testing"

func TestCellEmpty(t *testing.T) {
	if !(Cell{}).Empty() {
		t.Fatal("zero-value cell should be empty")
	}
	space := Cell{ContentTag: ContentCodepoint, CodePoint: ' '}
	if !space.Empty() {
		t.Fatal("space codepoint cell should be empty")
	}
	x := Cell{ContentTag: ContentCodepoint, CodePoint: 'x'}
	if x.Empty() {
		t.Fatal("'x' cell should not be empty")
	}
	styled := Cell{ContentTag: ContentCodepoint, CodePoint: ' ', StyleID: 5}
	if styled.Empty() {
		t.Fatal("styled space should not count as empty")
	}
}

func TestContentTagString(t *testing.T) {
	cases := map[ContentTag]string{
		ContentCodepoint:         "codepoint",
		ContentCodepointGrapheme: "codepoint_grapheme",
		ContentBGColorPalette:    "bg_color_palette",
		ContentBGColorRGB:        "bg_color_rgb",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("tag %d: got %q want %q", tag, got, want)
		}
	}
}

func TestSemanticPromptIsPromptLike(t *testing.T) {
	if SemanticPromptUnknown.IsPromptLike() {
		t.Fatal("unknown should not be prompt-like")
	}
	if SemanticPromptCommand.IsPromptLike() {
		t.Fatal("command should not be prompt-like")
	}
	for _, s := range []SemanticPrompt{SemanticPromptPrompt, SemanticPromptPromptContinuation, SemanticPromptInput} {
		if !s.IsPromptLike() {
			t.Errorf("%d should be prompt-like", s)
		}
	}
}

func TestBlankRow(t *testing.T) {
	r := BlankRow(42)
	if r.CellOffset != 42 {
		t.Fatalf("got offset %d want 42", r.CellOffset)
	}
	if r.Wrap || r.WrapContinuation || r.Grapheme || r.Styled {
		t.Fatal("blank row should have no flags set")
	}
}
